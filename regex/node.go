package regex

import (
	"fmt"
	"strings"

	"github.com/lexgen/lexgen/charset"
)

// Kind identifies the shape of a regex node
type Kind uint8

const (
	// Epsilon matches the empty string
	Epsilon Kind = iota
	// Class matches one scalar from a character set
	Class
	// Union matches either operand
	Union
	// Concat matches the left operand followed by the right one
	Concat
	// OneOrMore matches one or more repetitions of its operand
	OneOrMore
)

func (k Kind) String() string {
	switch k {
	case Epsilon:
		return "epsilon"
	case Class:
		return "class"
	case Union:
		return "union"
	case Concat:
		return "concat"
	case OneOrMore:
		return "oneOrMore"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Node is an immutable, hash-consed regex. Two nodes from the same Pool are
// structurally equal exactly when they are the same pointer.
type Node struct {
	pool     *Pool
	id       uint32
	kind     Kind
	left     *Node
	right    *Node
	set      charset.Set
	members  []charset.Range
	nullable bool
}

// ID is the node's identity within its pool.
func (n *Node) ID() uint32 { return n.id }

// Kind returns the node tag.
func (n *Node) Kind() Kind { return n.kind }

// Left returns the first operand of Union and Concat, and the repeated
// operand of OneOrMore.
func (n *Node) Left() *Node { return n.left }

// Right returns the second operand of Union and Concat.
func (n *Node) Right() *Node { return n.right }

// Set returns the character set of a Class node.
func (n *Node) Set() charset.Set { return n.set }

// Pool returns the pool that owns the node.
func (n *Node) Pool() *Pool { return n.pool }

// IsEpsilon reports whether n is the empty-string regex.
func (n *Node) IsEpsilon() bool { return n.kind == Epsilon }

// Nullable reports whether n matches the empty string.
func (n *Node) Nullable() bool { return n.nullable }

// containsRange reports whether every scalar of r is in a Class node's set.
func (n *Node) containsRange(r charset.Range) bool {
	lo, hi := 0, len(n.members)
	for lo < hi {
		mid := (lo + hi) / 2
		m := n.members[mid]
		switch {
		case m.Hi < r.Lo:
			lo = mid + 1
		case m.Lo > r.Lo:
			hi = mid
		default:
			return m.ContainsRange(r)
		}
	}
	return false
}

// String renders the regex in grammar notation.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b, false)
	return b.String()
}

func (n *Node) write(b *strings.Builder, nested bool) {
	switch n.kind {
	case Epsilon:
		b.WriteString(`""`)
	case Class:
		b.WriteString(n.set.String())
	case Union:
		if nested {
			b.WriteByte('(')
		}
		n.left.write(b, false)
		b.WriteString(" | ")
		n.right.write(b, false)
		if nested {
			b.WriteByte(')')
		}
	case Concat:
		n.left.write(b, true)
		b.WriteByte(' ')
		n.right.write(b, true)
	case OneOrMore:
		if n.left.kind == Class || n.left.kind == Epsilon {
			n.left.write(b, true)
		} else {
			b.WriteByte('(')
			n.left.write(b, false)
			b.WriteByte(')')
		}
		b.WriteByte('+')
	}
}

// Walk visits n and its operands depth first, stopping early when fn
// returns false.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n.kind {
	case Union, Concat:
		n.left.Walk(fn)
		n.right.Walk(fn)
	case OneOrMore:
		n.left.Walk(fn)
	}
}

// Sets collects the distinct character sets mentioned by the given nodes.
func Sets(nodes ...*Node) []charset.Set {
	seen := make(map[uint32]struct{})
	var out []charset.Set
	for _, root := range nodes {
		root.Walk(func(n *Node) bool {
			if _, ok := seen[n.id]; ok {
				return false
			}
			seen[n.id] = struct{}{}
			if n.kind == Class {
				out = append(out, n.set)
			}
			return true
		})
	}
	return out
}
