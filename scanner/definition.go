package scanner

import (
	"fmt"
	"io"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/lexgen/lexgen/automaton"
)

// Definition adapts a table to participle's lexer.Definition so a generated
// table can feed a participle parser. Token types are the table's classes.
type Definition struct {
	table   *automaton.Table
	symbols map[string]lexer.TokenType
}

var _ lexer.Definition = (*Definition)(nil)

// NewDefinition returns a lexer definition over table.
func NewDefinition(table *automaton.Table) *Definition {
	symbols := map[string]lexer.TokenType{"EOF": lexer.EOF}
	for i, class := range table.Classes {
		symbols[class] = lexer.EOF - 1 - lexer.TokenType(i)
	}
	return &Definition{table: table, symbols: symbols}
}

// Symbols maps each token class to its participle token type.
func (d *Definition) Symbols() map[string]lexer.TokenType {
	return d.symbols
}

// Lex scans all of r up front and replays the tokens.
func (d *Definition) Lex(filename string, r io.Reader) (lexer.Lexer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return &tokenLexer{
		def:    d,
		tokens: ScanString(d.table, filename, string(data)),
		end:    lexer.Position{Filename: filename, Line: 1, Column: 1},
	}, nil
}

type tokenLexer struct {
	def    *Definition
	tokens []Token
	next   int
	end    lexer.Position
}

func (l *tokenLexer) Next() (lexer.Token, error) {
	if l.next >= len(l.tokens) {
		pos := l.end
		if len(l.tokens) > 0 {
			last := l.tokens[len(l.tokens)-1]
			pos = advance(last.Pos, last.Text)
		}
		return lexer.EOFToken(pos), nil
	}
	tok := l.tokens[l.next]
	l.next++
	if tok.IsError() {
		return lexer.Token{}, &lexer.Error{Pos: tok.Pos, Msg: fmt.Sprintf("invalid input %q", tok.Text)}
	}
	return lexer.Token{Type: l.def.symbols[tok.Class], Value: tok.Text, Pos: tok.Pos}, nil
}
