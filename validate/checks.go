package validate

import (
	"cmp"
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/google/uuid"
	"github.com/signadot/tomlkit/diagnostic"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/schema"
)

type bound struct {
	limit *float64
	// fails reports whether a value comparing c to limit violates it.
	fails          func(c int) bool
	integer, float diagnostic.Kind
}

func bounds(s *schema.ValueSchema) []bound {
	return []bound{
		{s.Maximum, func(c int) bool { return c > 0 }, diagnostic.IntegerMaximum, diagnostic.FloatMaximum},
		{s.Minimum, func(c int) bool { return c < 0 }, diagnostic.IntegerMinimum, diagnostic.FloatMinimum},
		{s.ExclusiveMaximum, func(c int) bool { return c >= 0 }, diagnostic.IntegerExclusiveMaximum, diagnostic.FloatExclusiveMaximum},
		{s.ExclusiveMinimum, func(c int) bool { return c <= 0 }, diagnostic.IntegerExclusiveMinimum, diagnostic.FloatExclusiveMinimum},
	}
}

func isIntegral(f float64) bool {
	return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64
}

func (v *validator) integer(res diags, s *schema.ValueSchema, val *doctree.Value) diags {
	x := val.Int
	for _, b := range bounds(s) {
		if b.limit == nil {
			continue
		}
		// integral limits compare exactly, beyond float64 precision
		if isIntegral(*b.limit) {
			if lim := int64(*b.limit); b.fails(cmp.Compare(x, lim)) {
				res = v.add(res, diagnostic.NewIntegerBound(b.integer, val.Range, lim, x))
			}
		} else if b.fails(cmp.Compare(float64(x), *b.limit)) {
			res = v.add(res, diagnostic.NewFloatBound(b.integer, val.Range, *b.limit, float64(x)))
		}
	}
	if m := s.MultipleOf; m != nil && *m != 0 {
		switch {
		case isIntegral(*m):
			if x%int64(*m) != 0 {
				res = v.add(res, diagnostic.NewIntegerBound(diagnostic.IntegerMultipleOf, val.Range, int64(*m), x))
			}
		case !multipleOf(float64(x), *m):
			res = v.add(res, diagnostic.NewFloatBound(diagnostic.IntegerMultipleOf, val.Range, *m, float64(x)))
		}
	}
	return res
}

func (v *validator) float(res diags, s *schema.ValueSchema, val *doctree.Value) diags {
	x := val.Float
	if val.Kind == doctree.Integer {
		x = float64(val.Int)
	}
	for _, b := range bounds(s) {
		if b.limit != nil && !math.IsNaN(x) && b.fails(cmp.Compare(x, *b.limit)) {
			res = v.add(res, diagnostic.NewFloatBound(b.float, val.Range, *b.limit, x))
		}
	}
	if m := s.MultipleOf; m != nil && *m != 0 && !multipleOf(x, *m) {
		res = v.add(res, diagnostic.NewFloatBound(diagnostic.FloatMultipleOf, val.Range, *m, x))
	}
	return res
}

func multipleOf(x, m float64) bool {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return false
	}
	q := x / m
	return math.Abs(q-math.Round(q)) < 1e-9
}

func (v *validator) str(res diags, s *schema.ValueSchema, val *doctree.Value) diags {
	n := utf8.RuneCountInString(val.Str)
	if s.MaxLength != nil && n > *s.MaxLength {
		res = v.add(res, diagnostic.NewStringMaxLength(val.Range, *s.MaxLength, n))
	}
	if s.MinLength != nil && n < *s.MinLength {
		res = v.add(res, diagnostic.NewStringMinLength(val.Range, *s.MinLength, n))
	}
	if s.FormatChecked && !checkFormat(s.Format, val.Str) {
		res = v.add(res, diagnostic.NewStringFormat(val.Range, s.Format, val.Display()))
	}
	if re := s.PatternRegexp(); re != nil && !matchString(re, val.Str) {
		res = v.add(res, diagnostic.NewStringPattern(val.Range, s.Pattern, val.Display()))
	}
	return res
}

// matchString reports a match; a match that times out counts as one.
func matchString(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return ok || err != nil
}

var hostnameRE = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// checkFormat reports whether s is valid for one of the formats
// x-tombi-string-formats can enable. Unknown formats are not checked.
func checkFormat(format, s string) bool {
	switch format {
	case "email":
		a, err := mail.ParseAddress(s)
		return err == nil && a.Address == s
	case "hostname":
		return len(s) <= 253 && hostnameRE.MatchString(s)
	case "uri":
		u, err := url.Parse(s)
		return err == nil && u.IsAbs()
	case "uuid":
		return len(s) == 36 && uuid.Validate(s) == nil
	}
	return true
}
