package scanner

import (
	"fmt"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/lexgen/lexgen/automaton"
	"github.com/lexgen/lexgen/charset"
)

// Token is one scanned lexeme. An empty Class marks an error token.
type Token struct {
	Text  string         `json:"text"`
	Class string         `json:"class,omitempty"`
	Pos   lexer.Position `json:"pos"`
}

// IsError reports whether no token definition matched the text.
func (t Token) IsError() bool {
	return t.Class == ""
}

func (t Token) String() string {
	class := t.Class
	if t.IsError() {
		class = "<error>"
	}
	return fmt.Sprintf("%d:%d %s %q", t.Pos.Line, t.Pos.Column, class, t.Text)
}

// Scan tokenizes input by longest match. Every scalar of input ends up in
// exactly one token, in order.
func Scan(table *automaton.Table, input []rune) []Token {
	decode := func(i int) (charset.Scalar, int, bool) {
		return charset.Scalar(input[i]), 1, true
	}
	text := func(i, j int) string {
		return string(input[i:j])
	}
	return scan(table, "", len(input), decode, text)
}

// ScanString tokenizes text, recording filename in token positions. Bytes
// that are not valid UTF-8 match no definition and end up, unchanged, in
// error tokens, so the tokens always reproduce text exactly.
func ScanString(table *automaton.Table, filename, text string) []Token {
	decode := func(i int) (charset.Scalar, int, bool) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size <= 1 {
			return 0, 1, false
		}
		return charset.Scalar(r), size, true
	}
	slice := func(i, j int) string {
		return text[i:j]
	}
	return scan(table, filename, len(text), decode, slice)
}

// scan runs maximal munch over n input units. decode reports the scalar at
// unit i and its width; ok is false for a unit that is not a scalar.
func scan(table *automaton.Table, filename string, n int, decode func(i int) (charset.Scalar, int, bool), text func(i, j int) string) []Token {
	var out []Token
	pos := lexer.Position{Filename: filename, Line: 1, Column: 1}

	for start := 0; start < n; {
		state := table.Initial()
		class, accepted := "", -1
		i := start
		for i < n {
			s, size, ok := decode(i)
			if !ok {
				break
			}
			next, ok := table.Step(state.ID, s)
			if !ok {
				break
			}
			state = next
			i += size
			if state.Accepting() {
				class, accepted = state.Accept, i
			}
		}

		end := accepted
		if end < 0 {
			class = ""
			end = i
			if end == start {
				_, size, _ := decode(start)
				end = start + size
			}
		}
		lexeme := text(start, end)
		out = append(out, Token{Text: lexeme, Class: class, Pos: pos})
		pos = advance(pos, lexeme)
		start = end
	}
	return out
}

// advance moves pos past text. Lines and columns are 1-based and columns
// count scalars.
func advance(pos lexer.Position, text string) lexer.Position {
	pos.Offset += len(text)
	for _, r := range text {
		if r == '\n' {
			pos.Line++
			pos.Column = 1
			continue
		}
		pos.Column++
	}
	return pos
}

// Text concatenates the text of tokens.
func Text(tokens []Token) string {
	n := 0
	for _, t := range tokens {
		n += len(t.Text)
	}
	buf := make([]byte, 0, n)
	for _, t := range tokens {
		buf = append(buf, t.Text...)
	}
	return string(buf)
}

// Errors returns the error tokens among tokens.
func Errors(tokens []Token) []Token {
	var out []Token
	for _, t := range tokens {
		if t.IsError() {
			out = append(out, t)
		}
	}
	return out
}
