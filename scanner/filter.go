package scanner

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Filter keeps the tokens for which a boolean expression holds. The
// expression sees class, text, line, column, offset and error.
type Filter struct {
	source  string
	program *vm.Program
}

// NewFilter compiles source, for example `class != "ws" && !error`.
func NewFilter(source string) (*Filter, error) {
	program, err := expr.Compile(source, expr.Env(tokenEnv(Token{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling filter: %w", err)
	}
	return &Filter{source: source, program: program}, nil
}

func tokenEnv(t Token) map[string]interface{} {
	return map[string]interface{}{
		"class":  t.Class,
		"text":   t.Text,
		"line":   t.Pos.Line,
		"column": t.Pos.Column,
		"offset": t.Pos.Offset,
		"error":  t.IsError(),
	}
}

// String returns the filter source.
func (f *Filter) String() string {
	return f.source
}

// Match evaluates the filter against one token.
func (f *Filter) Match(t Token) (bool, error) {
	result, err := expr.Run(f.program, tokenEnv(t))
	if err != nil {
		return false, fmt.Errorf("evaluating filter: %w", err)
	}
	keep, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter returned %T, not bool", result)
	}
	return keep, nil
}

// Apply returns the tokens the filter keeps. A nil filter keeps all.
func (f *Filter) Apply(tokens []Token) ([]Token, error) {
	if f == nil {
		return tokens, nil
	}
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		keep, err := f.Match(t)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, t)
		}
	}
	return out, nil
}
