package regex

import (
	"sync/atomic"

	"github.com/lexgen/lexgen/charset"
	"github.com/puzpuzpuz/xsync/v3"
)

type nodeKey struct {
	kind  Kind
	left  uint32
	right uint32
	class string
}

// Pool interns regex nodes so that structurally equal regexes share one
// pointer. A pool is safe for concurrent use.
type Pool struct {
	nodes   *xsync.MapOf[nodeKey, *Node]
	next    atomic.Uint32
	epsilon *Node
}

// NewPool returns an empty pool holding only the epsilon node.
func NewPool() *Pool {
	p := &Pool{nodes: xsync.NewMapOf[nodeKey, *Node]()}
	p.epsilon = p.intern(nodeKey{kind: Epsilon}, func(n *Node) {
		n.nullable = true
	})
	return p
}

func (p *Pool) intern(key nodeKey, fill func(*Node)) *Node {
	n, _ := p.nodes.LoadOrCompute(key, func() *Node {
		n := &Node{pool: p, id: p.next.Add(1) - 1, kind: key.kind}
		fill(n)
		return n
	})
	return n
}

// Len is the number of distinct nodes interned so far.
func (p *Pool) Len() int {
	return p.nodes.Size()
}

// Epsilon returns the empty-string regex.
func (p *Pool) Epsilon() *Node {
	return p.epsilon
}

// Class returns the regex matching one scalar of set.
func (p *Pool) Class(set charset.Set) *Node {
	return p.intern(nodeKey{kind: Class, class: set.String()}, func(n *Node) {
		n.set = set
		n.members = set.Ranges()
	})
}

// Union returns a | b. A union of a node with itself is the node.
func (p *Pool) Union(a, b *Node) *Node {
	if a == b {
		return a
	}
	return p.intern(nodeKey{kind: Union, left: a.id, right: b.id}, func(n *Node) {
		n.left, n.right = a, b
		n.nullable = a.nullable || b.nullable
	})
}

// Concat returns a b. Epsilon on either side is dropped and nested
// concatenations on the left are re-associated to the right, so
// (a b) c and a (b c) intern to the same node.
func (p *Pool) Concat(a, b *Node) *Node {
	switch {
	case a.kind == Epsilon:
		return b
	case b.kind == Epsilon:
		return a
	case a.kind == Concat:
		return p.Concat(a.left, p.Concat(a.right, b))
	}
	return p.intern(nodeKey{kind: Concat, left: a.id, right: b.id}, func(n *Node) {
		n.left, n.right = a, b
		n.nullable = a.nullable && b.nullable
	})
}

// OneOrMore returns a+.
func (p *Pool) OneOrMore(a *Node) *Node {
	switch a.kind {
	case Epsilon, OneOrMore:
		return a
	}
	return p.intern(nodeKey{kind: OneOrMore, left: a.id}, func(n *Node) {
		n.left = a
		n.nullable = a.nullable
	})
}

// Star returns a*, encoded as "" | a+.
func (p *Pool) Star(a *Node) *Node {
	return p.Union(p.epsilon, p.OneOrMore(a))
}

// Optional returns a?, encoded as "" | a.
func (p *Pool) Optional(a *Node) *Node {
	return p.Union(p.epsilon, a)
}

// Literal returns the concatenation of one singleton class per scalar of s.
func (p *Pool) Literal(s string) *Node {
	out := p.epsilon
	runes := []rune(s)
	for i := len(runes) - 1; i >= 0; i-- {
		out = p.Concat(p.Class(charset.OfScalars(charset.Scalar(runes[i]))), out)
	}
	return out
}

// Alternatives folds nodes into a right-nested union. An empty list yields
// nil.
func (p *Pool) Alternatives(nodes ...*Node) *Node {
	if len(nodes) == 0 {
		return nil
	}
	out := nodes[len(nodes)-1]
	for i := len(nodes) - 2; i >= 0; i-- {
		out = p.Union(nodes[i], out)
	}
	return out
}

// Sequence folds nodes into a concatenation. An empty list yields epsilon.
func (p *Pool) Sequence(nodes ...*Node) *Node {
	out := p.epsilon
	for i := len(nodes) - 1; i >= 0; i-- {
		out = p.Concat(nodes[i], out)
	}
	return out
}
