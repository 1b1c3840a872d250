package edit

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/schema"
)

// sortNames returns names in the order o asks for. s is the table schema
// the names are keys of, needed for schema order and for grouping; it may
// be nil.
func sortNames(names []string, o *schema.TableKeysOrder, s *schema.ValueSchema) []string {
	if o == nil {
		return names
	}
	if o.All != 0 {
		return orderNames(names, o.All, s)
	}
	buckets := make([][]string, len(o.Groups))
	var rest []string
	for _, n := range names {
		g := groupOf(n, s)
		i := slices.IndexFunc(o.Groups, func(x schema.GroupOrder) bool { return x.Target == g })
		if i < 0 {
			rest = append(rest, n)
			continue
		}
		buckets[i] = append(buckets[i], n)
	}
	res := make([]string, 0, len(names))
	for i, b := range buckets {
		res = append(res, orderNames(b, o.Groups[i].Order, s)...)
	}
	return append(res, rest...)
}

func groupOf(key string, s *schema.ValueSchema) schema.KeysGroup {
	if s == nil {
		return schema.AdditionalPropertiesGroup
	}
	if s.Property(key) != nil {
		return schema.PropertiesGroup
	}
	for _, p := range s.PatternProperties {
		if p.Match(key) {
			return schema.PatternPropertiesGroup
		}
	}
	return schema.AdditionalPropertiesGroup
}

func orderNames(names []string, o schema.KeysOrder, s *schema.ValueSchema) []string {
	res := slices.Clone(names)
	switch o {
	case schema.Ascending:
		slices.SortStableFunc(res, strings.Compare)
	case schema.Descending:
		slices.SortStableFunc(res, func(a, b string) int { return strings.Compare(b, a) })
	case schema.VersionSort:
		slices.SortStableFunc(res, versionCompare)
	case schema.SchemaOrder:
		if s == nil {
			break
		}
		decl := s.PropertyKeys()
		rank := func(k string) int {
			if i := slices.Index(decl, k); i >= 0 {
				return i
			}
			return len(decl)
		}
		slices.SortStableFunc(res, func(a, b string) int { return cmp.Compare(rank(a), rank(b)) })
	}
	return res
}

// versionCompare compares semantic versions, and other strings with runs
// of digits compared by value, so that "v2" < "v10".
func versionCompare(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		if c := va.Compare(vb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	}
	return naturalCompare(a, b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func naturalCompare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if isDigit(a[i]) && isDigit(b[j]) {
			si, sj := i, j
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			x, y := strings.TrimLeft(a[si:i], "0"), strings.TrimLeft(b[sj:j], "0")
			if c := cmp.Compare(len(x), len(y)); c != 0 {
				return c
			}
			if c := strings.Compare(x, y); c != 0 {
				return c
			}
			continue
		}
		if c := cmp.Compare(a[i], b[j]); c != 0 {
			return c
		}
		i++
		j++
	}
	return cmp.Compare(len(a)-i, len(b)-j)
}

type keyClass int

const (
	boolClass keyClass = iota + 1
	numberClass
	stringClass
	offsetDateTimeClass
	localDateTimeClass
	localDateClass
	localTimeClass
)

// sortKey is what an array element is ordered by.
type sortKey struct {
	class keyClass
	b     bool
	f     float64
	s     string
	t     int64
}

// keyOf returns the sort key of a scalar, false for arrays, tables and
// incomplete values.
func keyOf(v *doctree.Value) (sortKey, bool) {
	switch v.Kind {
	case doctree.Boolean:
		return sortKey{class: boolClass, b: v.Bool}, true
	case doctree.Integer:
		return sortKey{class: numberClass, f: float64(v.Int)}, true
	case doctree.Float:
		return sortKey{class: numberClass, f: v.Float}, true
	case doctree.String:
		return sortKey{class: stringClass, s: v.Str}, true
	case doctree.OffsetDateTime:
		return sortKey{class: offsetDateTimeClass, t: v.DateTime.UnixNano()}, true
	case doctree.LocalDateTime:
		return sortKey{class: localDateTimeClass, s: v.LocalDateTime.String()}, true
	case doctree.LocalDate:
		return sortKey{class: localDateClass, s: v.LocalDate.String()}, true
	case doctree.LocalTime:
		return sortKey{class: localTimeClass, s: v.LocalTime.String()}, true
	}
	return sortKey{}, false
}

func compareKeys(a, b sortKey, o schema.KeysOrder) int {
	var c int
	switch a.class {
	case boolClass:
		switch {
		case a.b == b.b:
		case !a.b:
			c = -1
		default:
			c = 1
		}
	case numberClass:
		c = cmp.Compare(a.f, b.f)
	case offsetDateTimeClass:
		c = cmp.Compare(a.t, b.t)
	case stringClass:
		if o == schema.VersionSort {
			c = versionCompare(a.s, b.s)
		} else {
			c = strings.Compare(a.s, b.s)
		}
	default:
		c = strings.Compare(a.s, b.s)
	}
	if o == schema.Descending {
		return -c
	}
	return c
}
