package regex

import (
	"github.com/lexgen/lexgen/charset"
	"github.com/lexgen/lexgen/ranges"
	"github.com/puzpuzpuz/xsync/v3"
)

type moveKey struct {
	node  uint32
	first charset.Scalar
}

// Deriver computes derivatives of regexes from one pool over the
// elementary ranges of one index. Results are memoized and the deriver is
// safe for concurrent use.
type Deriver struct {
	pool  *Pool
	index *ranges.Index
	moves *xsync.MapOf[moveKey, []*Node]
	heads *xsync.MapOf[uint32, []ranges.Elementary]
}

// NewDeriver returns a deriver over index. Every class reachable from the
// regexes it is asked about must be refined by index.
func NewDeriver(pool *Pool, index *ranges.Index) *Deriver {
	return &Deriver{
		pool:  pool,
		index: index,
		moves: xsync.NewMapOf[moveKey, []*Node](),
		heads: xsync.NewMapOf[uint32, []ranges.Elementary](),
	}
}

// Index returns the range index the deriver works over.
func (d *Deriver) Index() *ranges.Index {
	return d.index
}

// Move returns the residual regexes left after n consumes one scalar of e.
// The result holds no duplicates and is empty when n cannot consume from e.
func (d *Deriver) Move(n *Node, e ranges.Elementary) []*Node {
	key := moveKey{node: n.id, first: e.First()}
	if cached, ok := d.moves.Load(key); ok {
		return cached
	}
	out := d.move(n, e)
	d.moves.Store(key, out)
	return out
}

func (d *Deriver) move(n *Node, e ranges.Elementary) []*Node {
	switch n.kind {
	case Epsilon:
		return nil
	case Class:
		if n.containsRange(e.Range()) {
			return []*Node{d.pool.epsilon}
		}
		return nil
	case Union:
		return dedupe(d.Move(n.left, e), d.Move(n.right, e))
	case Concat:
		var out []*Node
		for _, residual := range d.Move(n.left, e) {
			out = append(out, d.pool.Concat(residual, n.right))
		}
		if n.left.nullable {
			out = append(out, d.Move(n.right, e)...)
		}
		return dedupe(out)
	case OneOrMore:
		var out []*Node
		for _, residual := range d.Move(n.left, e) {
			out = append(out, d.pool.Concat(residual, n), residual)
		}
		return dedupe(out)
	}
	return nil
}

// First returns, in order, the elementary ranges from which n can consume
// its first scalar.
func (d *Deriver) First(n *Node) []ranges.Elementary {
	if cached, ok := d.heads.Load(n.id); ok {
		return cached
	}
	out := d.first(n)
	d.heads.Store(n.id, out)
	return out
}

func (d *Deriver) first(n *Node) []ranges.Elementary {
	switch n.kind {
	case Class:
		var out []ranges.Elementary
		for _, r := range n.members {
			out = append(out, d.index.RangesIntersecting(r)...)
		}
		return out
	case Union:
		return mergeRanges(d.First(n.left), d.First(n.right))
	case Concat:
		if n.left.nullable {
			return mergeRanges(d.First(n.left), d.First(n.right))
		}
		return d.First(n.left)
	case OneOrMore:
		return d.First(n.left)
	}
	return nil
}

func dedupe(groups ...[]*Node) []*Node {
	var out []*Node
	seen := make(map[*Node]struct{})
	for _, group := range groups {
		for _, n := range group {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// mergeRanges unions two sorted lists of elementary ranges.
func mergeRanges(a, b []ranges.Elementary) []ranges.Elementary {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]ranges.Elementary, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].First() < b[j].First():
			out = append(out, a[i])
			i++
		case a[i].First() > b[j].First():
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// MergeRanges unions sorted lists of elementary ranges.
func MergeRanges(lists ...[]ranges.Elementary) []ranges.Elementary {
	var out []ranges.Elementary
	for _, l := range lists {
		out = mergeRanges(out, l)
	}
	return out
}
