package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lexgen/lexgen/charset"
)

// decodeString unquotes a string literal token.
func decodeString(raw string) ([]rune, error) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return nil, fmt.Errorf("malformed string literal %s", raw)
	}
	body := []rune(raw[1 : len(raw)-1])
	out := make([]rune, 0, len(body))
	for i := 0; i < len(body); {
		r, next, err := readScalar(body, i, `"`)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
		i = next
	}
	return out, nil
}

// decodeClass turns a bracket class token into a set. A leading '^'
// complements the class.
func decodeClass(raw string) (charset.Set, error) {
	if len(raw) < 2 || raw[0] != '[' || raw[len(raw)-1] != ']' {
		return charset.Set{}, fmt.Errorf("malformed class %s", raw)
	}
	body := []rune(raw[1 : len(raw)-1])
	negate := len(body) > 0 && body[0] == '^'
	if negate {
		body = body[1:]
	}

	var items []charset.Range
	for i := 0; i < len(body); {
		lo, next, err := readScalar(body, i, `]-^[`)
		if err != nil {
			return charset.Set{}, err
		}
		i = next
		if i+1 < len(body) && body[i] == '-' {
			hi, after, err := readScalar(body, i+1, `]-^[`)
			if err != nil {
				return charset.Set{}, err
			}
			r, err := charset.NewRange(charset.Scalar(lo), charset.Scalar(hi))
			if err != nil {
				return charset.Set{}, fmt.Errorf("class %s: %w", raw, err)
			}
			items = append(items, r)
			i = after
			continue
		}
		items = append(items, charset.Single(charset.Scalar(lo)))
	}

	if negate {
		return charset.Any().Subtract(charset.Of(items...)), nil
	}
	return charset.Of(items...), nil
}

// readScalar reads one possibly escaped scalar at body[i]. extra lists the
// punctuation that may be escaped besides the common escapes.
func readScalar(body []rune, i int, extra string) (rune, int, error) {
	if body[i] != '\\' {
		return body[i], i + 1, nil
	}
	if i+1 >= len(body) {
		return 0, 0, fmt.Errorf("dangling escape")
	}
	c := body[i+1]
	switch c {
	case 'n':
		return '\n', i + 2, nil
	case 't':
		return '\t', i + 2, nil
	case 'r':
		return '\r', i + 2, nil
	case '0':
		return 0, i + 2, nil
	case '\\':
		return '\\', i + 2, nil
	case 'u':
		return readUnicode(body, i+2)
	}
	if strings.ContainsRune(extra, c) {
		return c, i + 2, nil
	}
	return 0, 0, fmt.Errorf("unknown escape \\%c", c)
}

func readUnicode(body []rune, i int) (rune, int, error) {
	if i >= len(body) || body[i] != '{' {
		return 0, 0, fmt.Errorf(`expected \u{HEX}`)
	}
	end := i + 1
	for end < len(body) && body[end] != '}' {
		end++
	}
	if end >= len(body) {
		return 0, 0, fmt.Errorf(`unterminated \u{...} escape`)
	}
	digits := string(body[i+1 : end])
	if digits == "" || len(digits) > 6 {
		return 0, 0, fmt.Errorf(`\u{%s} needs one to six hex digits`, digits)
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf(`invalid \u{%s}: %w`, digits, err)
	}
	if !charset.Scalar(v).Valid() {
		return 0, 0, fmt.Errorf(`\u{%s} is outside the code point space`, digits)
	}
	return rune(v), end + 1, nil
}
