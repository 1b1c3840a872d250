package doctree

import "bytes"

// The parser reports decoded data but not always where it came from; these
// helpers recover source offsets by scanning from a known position.

// subsliceOffset returns the offset of sub within data when sub shares
// data's backing array.
func subsliceOffset(data, sub []byte) (int, bool) {
	if len(sub) == 0 || len(data) == 0 {
		return 0, false
	}
	off := cap(data) - cap(sub)
	if off < 0 || off+len(sub) > len(data) {
		return 0, false
	}
	if &data[off] != &sub[0] {
		return 0, false
	}
	return off, true
}

func skipSpace(src []byte, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	return i
}

// skipTrivia skips whitespace, newlines and comments, and commas when
// commas is set.
func skipTrivia(src []byte, i int, commas bool) int {
	for i < len(src) {
		switch c := src[i]; {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == ',' && commas:
			i++
		case c == '#':
			j := bytes.IndexByte(src[i:], '\n')
			if j < 0 {
				return len(src)
			}
			i += j
		default:
			return i
		}
	}
	return i
}

// skipAssign moves past the = between a key and its value.
func skipAssign(src []byte, i int) int {
	i = skipSpace(src, i)
	if i < len(src) && src[i] == '=' {
		i++
	}
	return skipSpace(src, i)
}

// scanString returns the end offset of the string starting at i and the
// kind of string it is.
func scanString(src []byte, i int) (int, StringKind) {
	if i >= len(src) {
		return i, BasicString
	}
	q := src[i]
	if bytes.HasPrefix(src[i:], []byte{q, q, q}) {
		kind := MultiLineBasicString
		if q == '\'' {
			kind = MultiLineLiteralString
		}
		j := i + 3
		for j < len(src) {
			if q == '"' && src[j] == '\\' {
				j += 2
				continue
			}
			if bytes.HasPrefix(src[j:], []byte{q, q, q}) {
				end := j + 3
				// up to two quotes may directly precede the delimiter
				for k := 0; k < 2 && end < len(src) && src[end] == q; k++ {
					end++
				}
				return end, kind
			}
			j++
		}
		return len(src), kind
	}
	kind := BasicString
	if q == '\'' {
		kind = LiteralString
	}
	j := i + 1
	for j < len(src) && src[j] != '\n' {
		if q == '"' && src[j] == '\\' {
			j += 2
			continue
		}
		if src[j] == q {
			return j + 1, kind
		}
		j++
	}
	return j, kind
}

// scanBare returns the end of an unquoted token such as a number, boolean
// or date starting at i.
func scanBare(src []byte, i int) int {
	for i < len(src) {
		switch src[i] {
		case ',', ']', '}', '#', '\n', '\r', '\t':
			return i
		case ' ':
			// local date times may use a space between date and time
			if i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9' && i > 0 && src[i-1] >= '0' && src[i-1] <= '9' {
				i++
				continue
			}
			return i
		}
		i++
	}
	return i
}

// scanKey returns the range of a single key segment at or after i.
func scanKey(src []byte, i int) (int, int) {
	i = skipSpace(src, i)
	if i < len(src) && src[i] == '.' {
		i = skipSpace(src, i+1)
	}
	if i < len(src) && (src[i] == '"' || src[i] == '\'') {
		end, _ := scanString(src, i)
		return i, end
	}
	j := i
	for j < len(src) && isBareKeyByte(src[j]) {
		j++
	}
	return i, j
}

func isBareKeyByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

// closing finds the delimiter c ending a container whose last element ends
// at i.
func closing(src []byte, i int, c byte) int {
	i = skipTrivia(src, i, true)
	if i < len(src) && src[i] == c {
		return i + 1
	}
	return i
}
