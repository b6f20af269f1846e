package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

const (
	// TokenRule marks a definition the scanner emits.
	TokenRule = "=>"
	// Fragment marks a definition that is only referenced.
	Fragment = "="
)

// File represents a parsed grammar file
type File struct {
	Pos         lexer.Position
	Definitions []*Definition `parser:"@@*"`
}

// Definition represents one named rule, either a token or a fragment
type Definition struct {
	Pos  lexer.Position
	Name string       `parser:"@Ident"`
	Kind string       `parser:"@( Arrow | '=' )"`
	Body *Alternation `parser:"@@ ';'"`
}

// IsToken reports whether the definition is a token rule.
func (d *Definition) IsToken() bool {
	return d.Kind == TokenRule
}

// Alternation represents branches separated by '|'
type Alternation struct {
	Pos      lexer.Position
	Branches []*Sequence `parser:"@@ ( '|' @@ )*"`
}

// Sequence represents juxtaposed terms
type Sequence struct {
	Pos   lexer.Position
	Terms []*Term `parser:"@@+"`
}

// Term represents an atom with its postfix operators
type Term struct {
	Pos      lexer.Position
	Atom     *Atom    `parser:"@@"`
	Suffixes []string `parser:"@( '*' | '+' | '?' )*"`
}

// Atom represents a set expression, a group or an anchor
type Atom struct {
	Pos    lexer.Position
	Set    *SetExpr     `parser:"  @@"`
	Group  *Alternation `parser:"| '(' @@ ')'"`
	Anchor string       `parser:"| @( '^' | '$' )"`
}

// SetExpr represents an operand with optional subtractions (a \ b \ c).
// Without subtractions the operand stands for itself.
type SetExpr struct {
	Pos   lexer.Position
	Base  *SetOperand   `parser:"@@"`
	Minus []*SetOperand `parser:"( Minus @@ )*"`
}

// SetOperand represents a string literal, a bracket class, '.' or a
// reference
type SetOperand struct {
	Pos    lexer.Position
	String *string `parser:"  @String"`
	Class  *string `parser:"| @Class"`
	Any    bool    `parser:"| @'.'"`
	Ref    string  `parser:"| @Ident"`
}

// References returns the names referenced by the definition's body, in
// order of first appearance.
func (d *Definition) References() []string {
	var out []string
	seen := make(map[string]struct{})
	walkAlternation(d.Body, func(op *SetOperand) {
		if op.Ref == "" {
			return
		}
		if _, ok := seen[op.Ref]; ok {
			return
		}
		seen[op.Ref] = struct{}{}
		out = append(out, op.Ref)
	})
	return out
}

// Operands visits every set operand in the definition's body.
func (d *Definition) Operands(fn func(*SetOperand)) {
	walkAlternation(d.Body, fn)
}

func walkAlternation(a *Alternation, fn func(*SetOperand)) {
	if a == nil {
		return
	}
	for _, seq := range a.Branches {
		for _, term := range seq.Terms {
			walkAtom(term.Atom, fn)
		}
	}
}

func walkAtom(a *Atom, fn func(*SetOperand)) {
	switch {
	case a == nil:
	case a.Set != nil:
		fn(a.Set.Base)
		for _, op := range a.Set.Minus {
			fn(op)
		}
	case a.Group != nil:
		walkAlternation(a.Group, fn)
	}
}

// Lookup returns the definition named name.
func (f *File) Lookup(name string) (*Definition, bool) {
	for _, d := range f.Definitions {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// Tokens returns the token rules in declaration order.
func (f *File) Tokens() []*Definition {
	var out []*Definition
	for _, d := range f.Definitions {
		if d.IsToken() {
			out = append(out, d)
		}
	}
	return out
}

// Fragments returns the fragment definitions in declaration order.
func (f *File) Fragments() []*Definition {
	var out []*Definition
	for _, d := range f.Definitions {
		if !d.IsToken() {
			out = append(out, d)
		}
	}
	return out
}
