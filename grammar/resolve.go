package grammar

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/lexgen/lexgen/automaton"
	"github.com/lexgen/lexgen/charset"
	"github.com/lexgen/lexgen/regex"
)

// Error is a grammar problem found after parsing.
type Error struct {
	Pos lexer.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Errors collects every problem found while resolving a grammar.
type Errors []*Error

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "\n")
}

// Resolve substitutes references, desugars repetition and returns the
// token rules in declaration order. All problems are reported together as
// Errors.
func Resolve(file *File, pool *regex.Pool) ([]automaton.TokenDefinition, error) {
	r := &resolver{
		pool:   pool,
		defs:   make(map[string]*Definition),
		nodes:  make(map[string]*regex.Node),
		cyclic: make(map[string]bool),
	}
	r.index(file)
	r.findCycles(file)

	var out []automaton.TokenDefinition
	for _, def := range file.Definitions {
		node := r.definition(def)
		if def.IsToken() && r.defs[def.Name] == def {
			out = append(out, automaton.TokenDefinition{Class: def.Name, Order: len(out), Regex: node})
		}
	}
	if len(r.errs) > 0 {
		return nil, r.errs
	}
	return out, nil
}

type resolver struct {
	pool   *regex.Pool
	defs   map[string]*Definition
	nodes  map[string]*regex.Node
	cyclic map[string]bool
	errs   Errors
}

func (r *resolver) errorf(pos lexer.Position, format string, args ...interface{}) {
	r.errs = append(r.errs, &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (r *resolver) index(file *File) {
	for _, def := range file.Definitions {
		if first, ok := r.defs[def.Name]; ok {
			r.errorf(def.Pos, "duplicate definition of %q (first defined at %s)", def.Name, first.Pos)
			continue
		}
		r.defs[def.Name] = def
	}
}

// findCycles runs a depth-first search over references and reports each
// recursive definition with the path that closes the cycle.
func (r *resolver) findCycles(file *File) {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int)
	var stack []string

	var visit func(name string)
	visit = func(name string) {
		color[name] = grey
		stack = append(stack, name)
		for _, ref := range r.defs[name].References() {
			if _, ok := r.defs[ref]; !ok {
				continue
			}
			switch color[ref] {
			case white:
				visit(ref)
			case grey:
				start := 0
				for i, n := range stack {
					if n == ref {
						start = i
						break
					}
				}
				cycle := append(append([]string{}, stack[start:]...), ref)
				for _, n := range cycle {
					r.cyclic[n] = true
				}
				r.errorf(r.defs[ref].Pos, "recursive definition: %s", strings.Join(cycle, " -> "))
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
	}

	for _, def := range file.Definitions {
		if r.defs[def.Name] == def && color[def.Name] == white {
			visit(def.Name)
		}
	}
}

func (r *resolver) definition(def *Definition) *regex.Node {
	if node, ok := r.nodes[def.Name]; ok && r.defs[def.Name] == def {
		return node
	}
	if r.cyclic[def.Name] {
		return r.pool.Epsilon()
	}
	node := r.alternation(def.Body)
	if r.defs[def.Name] == def {
		r.nodes[def.Name] = node
	}
	return node
}

func (r *resolver) reference(name string, pos lexer.Position) *regex.Node {
	def, ok := r.defs[name]
	if !ok {
		r.errorf(pos, "undefined name %q", name)
		return r.pool.Epsilon()
	}
	return r.definition(def)
}

func (r *resolver) alternation(a *Alternation) *regex.Node {
	branches := make([]*regex.Node, 0, len(a.Branches))
	for _, seq := range a.Branches {
		terms := make([]*regex.Node, 0, len(seq.Terms))
		for _, term := range seq.Terms {
			terms = append(terms, r.term(term))
		}
		branches = append(branches, r.pool.Sequence(terms...))
	}
	return r.pool.Alternatives(branches...)
}

func (r *resolver) term(t *Term) *regex.Node {
	node := r.atom(t.Atom)
	for _, suffix := range t.Suffixes {
		switch suffix {
		case "*":
			node = r.pool.Star(node)
		case "+":
			node = r.pool.OneOrMore(node)
		case "?":
			node = r.pool.Optional(node)
		}
	}
	return node
}

func (r *resolver) atom(a *Atom) *regex.Node {
	switch {
	case a.Group != nil:
		return r.alternation(a.Group)
	case a.Anchor != "":
		r.errorf(a.Pos, "anchor %q is not supported", a.Anchor)
		return r.pool.Epsilon()
	case a.Set != nil && len(a.Set.Minus) == 0:
		return r.operand(a.Set.Base)
	case a.Set != nil:
		set, ok := r.operandSet(a.Set.Base)
		for _, op := range a.Set.Minus {
			sub, subOK := r.operandSet(op)
			ok = ok && subOK
			set = set.Subtract(sub)
		}
		if !ok {
			return r.pool.Epsilon()
		}
		return r.pool.Class(set)
	}
	return r.pool.Epsilon()
}

func (r *resolver) operand(op *SetOperand) *regex.Node {
	switch {
	case op.String != nil:
		runes, err := decodeString(*op.String)
		if err != nil {
			r.errorf(op.Pos, "%v", err)
			return r.pool.Epsilon()
		}
		return r.pool.Literal(string(runes))
	case op.Ref != "":
		return r.reference(op.Ref, op.Pos)
	}
	set, ok := r.operandSet(op)
	if !ok {
		return r.pool.Epsilon()
	}
	return r.pool.Class(set)
}

// operandSet evaluates an operand of a set subtraction. Strings contribute
// each of their scalars and references must name a character set.
func (r *resolver) operandSet(op *SetOperand) (charset.Set, bool) {
	switch {
	case op.String != nil:
		runes, err := decodeString(*op.String)
		if err != nil {
			r.errorf(op.Pos, "%v", err)
			return charset.Set{}, false
		}
		scalars := make([]charset.Scalar, 0, len(runes))
		for _, c := range runes {
			scalars = append(scalars, charset.Scalar(c))
		}
		return charset.OfScalars(scalars...), true
	case op.Class != nil:
		set, err := decodeClass(*op.Class)
		if err != nil {
			r.errorf(op.Pos, "%v", err)
			return charset.Set{}, false
		}
		return set, true
	case op.Any:
		return charset.Any(), true
	case op.Ref != "":
		if _, ok := r.defs[op.Ref]; !ok {
			r.errorf(op.Pos, "undefined name %q", op.Ref)
			return charset.Set{}, false
		}
		if r.cyclic[op.Ref] {
			return charset.Set{}, false
		}
		set, ok := SetOf(r.reference(op.Ref, op.Pos))
		if !ok {
			r.errorf(op.Pos, "%q is not a character set", op.Ref)
		}
		return set, ok
	}
	return charset.Set{}, false
}

// SetOf reports whether n matches exactly one scalar from a set, and
// returns that set.
func SetOf(n *regex.Node) (charset.Set, bool) {
	switch n.Kind() {
	case regex.Class:
		return n.Set(), true
	case regex.Union:
		left, ok := SetOf(n.Left())
		if !ok {
			return charset.Set{}, false
		}
		right, ok := SetOf(n.Right())
		if !ok {
			return charset.Set{}, false
		}
		return left.Union(right), true
	}
	return charset.Set{}, false
}
