package accessor

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Accessor is one step of a path into a document: a table key or an array
// index. IndexAll is the array wildcard used by schema paths, where every
// index of an array shares the same schema.
type Accessor struct {
	Field    *string
	Index    *int
	IndexAll bool
}

func Key(k string) Accessor {
	return Accessor{Field: &k}
}

func Index(i int) Accessor {
	return Accessor{Index: &i}
}

func AnyIndex() Accessor {
	return Accessor{IndexAll: true}
}

func (a Accessor) IsKey() bool {
	return a.Field != nil
}

func (a Accessor) IsIndex() bool {
	return a.Index != nil || a.IndexAll
}

// KeyName returns the key, or "" for index accessors.
func (a Accessor) KeyName() string {
	if a.Field == nil {
		return ""
	}
	return *a.Field
}

// IndexValue returns the index, or -1 for key and wildcard accessors.
func (a Accessor) IndexValue() int {
	if a.Index == nil {
		return -1
	}
	return *a.Index
}

func (a Accessor) Equal(b Accessor) bool {
	switch {
	case a.Field != nil:
		return b.Field != nil && *a.Field == *b.Field
	case a.Index != nil:
		return b.Index != nil && *a.Index == *b.Index
	default:
		return a.IndexAll && b.IndexAll
	}
}

// Schema returns the accessor as seen by schema paths: indices become the
// wildcard.
func (a Accessor) Schema() Accessor {
	if a.Index != nil {
		return AnyIndex()
	}
	return a
}

// String returns the segment representation, quoting keys that are not bare.
func (a Accessor) String() string {
	switch {
	case a.Field != nil:
		return QuoteKey(*a.Field)
	case a.Index != nil:
		return fmt.Sprintf("[%d]", *a.Index)
	case a.IndexAll:
		return "[*]"
	}
	return ""
}

// Path is an ordered accessor sequence. Paths are values: Append never
// mutates the receiver's backing array.
type Path []Accessor

func (p Path) Append(as ...Accessor) Path {
	res := make(Path, 0, len(p)+len(as))
	res = append(res, p...)
	return append(res, as...)
}

func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if !p[i].Equal(q[i]) {
			return false
		}
	}
	return true
}

func (p Path) HasPrefix(q Path) bool {
	return len(q) <= len(p) && p[:len(q)].Equal(q)
}

// Keys returns the key names of p, skipping indices.
func (p Path) Keys() []string {
	res := make([]string, 0, len(p))
	for _, a := range p {
		if a.Field != nil {
			res = append(res, *a.Field)
		}
	}
	return res
}

// Schema returns p with every index replaced by the wildcard.
func (p Path) Schema() Path {
	res := make(Path, len(p))
	for i := range p {
		res[i] = p[i].Schema()
	}
	return res
}

// String formats p as e.g. root.child[1].item
func (p Path) String() string {
	buf := bytes.NewBuffer(nil)
	for i, a := range p {
		if a.Field != nil && i > 0 {
			buf.WriteByte('.')
		}
		buf.WriteString(a.String())
	}
	return buf.String()
}

// QuoteKey returns k unchanged if it is a bare TOML key, otherwise as a
// basic string.
func QuoteKey(k string) string {
	if isBareKey(k) {
		return k
	}
	buf := bytes.NewBuffer(nil)
	buf.WriteByte('"')
	for _, r := range k {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\t':
			buf.WriteString(`\t`)
		case '\r':
			buf.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(buf, `\u%04X`, r)
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
	return buf.String()
}

func isBareKey(k string) bool {
	if k == "" {
		return false
	}
	for i := 0; i < len(k); i++ {
		if !isBareKeyChar(k[i]) {
			return false
		}
	}
	return true
}

func isBareKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

// Parse parses a path such as tool.poetry."key with space"[0].name or
// servers[*].host. Keys follow TOML dotted key syntax, so whitespace around
// dots and both quote styles are accepted. The empty string is the root path.
func Parse(s string) (Path, error) {
	var res Path
	i := 0
	n := len(s)
	expectKey := true
	for {
		i = skipSpace(s, i)
		if i >= n {
			break
		}
		switch {
		case s[i] == '[':
			j := strings.IndexByte(s[i:], ']')
			if j < 0 {
				return nil, fmt.Errorf("%w: unterminated index in %q", ErrBadPath, s)
			}
			body := strings.TrimSpace(s[i+1 : i+j])
			if body == "*" {
				res = append(res, AnyIndex())
			} else {
				idx, err := strconv.Atoi(body)
				if err != nil || idx < 0 {
					return nil, fmt.Errorf("%w: bad index %q in %q", ErrBadPath, body, s)
				}
				res = append(res, Index(idx))
			}
			i += j + 1
			expectKey = false
			continue
		case s[i] == '.':
			if expectKey {
				return nil, fmt.Errorf("%w: empty key at offset %d in %q", ErrBadPath, i, s)
			}
			i++
			expectKey = true
			continue
		}
		if !expectKey {
			return nil, fmt.Errorf("%w: expected '.' or '[' at offset %d in %q", ErrBadPath, i, s)
		}
		k, next, err := parseKey(s, i)
		if err != nil {
			return nil, err
		}
		res = append(res, Key(k))
		i = next
		expectKey = false
	}
	if expectKey && len(res) > 0 {
		return nil, fmt.Errorf("%w: trailing '.' in %q", ErrBadPath, s)
	}
	return res, nil
}

// ParseKeys parses a TOML dotted key into its segments.
func ParseKeys(s string) ([]string, error) {
	p, err := Parse(s)
	if err != nil {
		return nil, err
	}
	for _, a := range p {
		if !a.IsKey() {
			return nil, fmt.Errorf("%w: %q is not a dotted key", ErrBadPath, s)
		}
	}
	return p.Keys(), nil
}

func parseKey(s string, i int) (string, int, error) {
	switch s[i] {
	case '"':
		buf := bytes.NewBuffer(nil)
		j := i + 1
		for j < len(s) {
			c := s[j]
			switch {
			case c == '"':
				return buf.String(), j + 1, nil
			case c == '\\' && j+1 < len(s):
				r, sz, err := unescape(s[j:])
				if err != nil {
					return "", 0, fmt.Errorf("%w: %w", ErrBadPath, err)
				}
				buf.WriteString(r)
				j += sz
			default:
				buf.WriteByte(c)
				j++
			}
		}
		return "", 0, fmt.Errorf("%w: unterminated quoted key in %q", ErrBadPath, s)
	case '\'':
		j := strings.IndexByte(s[i+1:], '\'')
		if j < 0 {
			return "", 0, fmt.Errorf("%w: unterminated literal key in %q", ErrBadPath, s)
		}
		return s[i+1 : i+1+j], i + j + 2, nil
	}
	j := i
	for j < len(s) && isBareKeyChar(s[j]) {
		j++
	}
	if j == i {
		return "", 0, fmt.Errorf("%w: unexpected %q at offset %d in %q", ErrBadPath, s[i], i, s)
	}
	return s[i:j], j, nil
}

func unescape(s string) (string, int, error) {
	switch s[1] {
	case 'b':
		return "\b", 2, nil
	case 't':
		return "\t", 2, nil
	case 'n':
		return "\n", 2, nil
	case 'f':
		return "\f", 2, nil
	case 'r':
		return "\r", 2, nil
	case '"':
		return "\"", 2, nil
	case '\\':
		return "\\", 2, nil
	case 'u', 'U':
		sz := 4
		if s[1] == 'U' {
			sz = 8
		}
		if len(s) < 2+sz {
			return "", 0, fmt.Errorf("short unicode escape %q", s)
		}
		v, err := strconv.ParseUint(s[2:2+sz], 16, 32)
		if err != nil {
			return "", 0, fmt.Errorf("bad unicode escape %q", s[:2+sz])
		}
		return string(rune(v)), 2 + sz, nil
	}
	return "", 0, fmt.Errorf("unknown escape %q", s[:2])
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}
