package ranges

import (
	"fmt"

	"github.com/lexgen/lexgen/charset"
)

// Index is an immutable AVL tree over disjoint elementary ranges. Insert
// returns a new index and shares untouched subtrees with the old one.
type Index struct {
	root  *node
	count int
}

type node struct {
	value  Elementary
	left   *node
	right  *node
	height int
}

// NewIndex builds a balanced index over values. The input is sorted first
// and must be pairwise disjoint.
func NewIndex(values []Elementary) (*Index, error) {
	sorted := append([]Elementary(nil), values...)
	Sort(sorted)
	if err := Verify(sorted); err != nil {
		return nil, err
	}

	// Inserting medians first keeps rotations rare.
	order := make([]Elementary, 0, len(sorted))
	var split func(lo, hi int)
	split = func(lo, hi int) {
		if lo >= hi {
			return
		}
		mid := lo + (hi-lo)/2
		order = append(order, sorted[mid])
		split(lo, mid)
		split(mid+1, hi)
	}
	split(0, len(sorted))

	index := &Index{}
	for _, value := range order {
		index = index.Insert(value)
	}
	if err := index.Verify(); err != nil {
		return nil, err
	}
	return index, nil
}

// Insert returns an index that also holds e. Inserting a range whose first
// scalar is already present returns the receiver unchanged.
func (ix *Index) Insert(e Elementary) *Index {
	root, added := insert(ix.root, e)
	if !added {
		return ix
	}
	return &Index{root: root, count: ix.count + 1}
}

func insert(n *node, e Elementary) (*node, bool) {
	if n == nil {
		return &node{value: e, height: 1}, true
	}
	switch {
	case e.First() < n.value.First():
		left, added := insert(n.left, e)
		if !added {
			return n, false
		}
		return rebalance(newNode(n.value, left, n.right)), true
	case e.First() > n.value.First():
		right, added := insert(n.right, e)
		if !added {
			return n, false
		}
		return rebalance(newNode(n.value, n.left, right)), true
	default:
		return n, false
	}
}

func newNode(value Elementary, left, right *node) *node {
	return &node{
		value:  value,
		left:   left,
		right:  right,
		height: 1 + max(height(left), height(right)),
	}
}

func height(n *node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func balanceFactor(n *node) int {
	return height(n.left) - height(n.right)
}

func rotateRight(n *node) *node {
	pivot := n.left
	return newNode(pivot.value, pivot.left, newNode(n.value, pivot.right, n.right))
}

func rotateLeft(n *node) *node {
	pivot := n.right
	return newNode(pivot.value, newNode(n.value, n.left, pivot.left), pivot.right)
}

func rebalance(n *node) *node {
	switch bf := balanceFactor(n); {
	case bf > 1:
		if balanceFactor(n.left) < 0 {
			n = newNode(n.value, rotateLeft(n.left), n.right)
		}
		return rotateRight(n)
	case bf < -1:
		if balanceFactor(n.right) > 0 {
			n = newNode(n.value, n.left, rotateRight(n.right))
		}
		return rotateLeft(n)
	default:
		return n
	}
}

// RangeContaining returns the elementary range holding s. It reports false
// when no mentioned class reaches s.
func (ix *Index) RangeContaining(s charset.Scalar) (Elementary, bool) {
	n := ix.root
	for n != nil {
		switch n.value.Compare(s) {
		case -1:
			n = n.left
		case 1:
			n = n.right
		default:
			return n.value, true
		}
	}
	return Elementary{}, false
}

// RangesIntersecting returns, in order, every elementary range sharing a
// scalar with r.
func (ix *Index) RangesIntersecting(r charset.Range) []Elementary {
	var out []Elementary
	collect(ix.root, r, &out)
	return out
}

func collect(n *node, r charset.Range, out *[]Elementary) {
	if n == nil {
		return
	}
	if r.Lo < n.value.First() {
		collect(n.left, r, out)
	}
	if n.value.Overlaps(r) {
		*out = append(*out, n.value)
	}
	if r.Hi > n.value.Last() {
		collect(n.right, r, out)
	}
}

// Count is the number of stored ranges.
func (ix *Index) Count() int {
	return ix.count
}

// Height is the height of the tree; an empty index has height 0.
func (ix *Index) Height() int {
	return height(ix.root)
}

// Values returns the stored ranges in order.
func (ix *Index) Values() []Elementary {
	out := make([]Elementary, 0, ix.count)
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		walk(n.left)
		out = append(out, n.value)
		walk(n.right)
	}
	walk(ix.root)
	return out
}

// IsBalanced reports whether every node has a balance factor in {-1,0,1}
// and a correct cached height.
func (ix *Index) IsBalanced() bool {
	_, ok := checkBalance(ix.root)
	return ok
}

func checkBalance(n *node) (int, bool) {
	if n == nil {
		return 0, true
	}
	lh, ok := checkBalance(n.left)
	if !ok {
		return 0, false
	}
	rh, ok := checkBalance(n.right)
	if !ok {
		return 0, false
	}
	if lh-rh > 1 || rh-lh > 1 {
		return 0, false
	}
	h := 1 + max(lh, rh)
	return h, h == n.height
}

// BSTInvariantHolds reports whether an inorder walk yields strictly
// increasing, non-overlapping ranges.
func (ix *Index) BSTInvariantHolds() bool {
	values := ix.Values()
	for i := 1; i < len(values); i++ {
		if values[i-1].Last() >= values[i].First() {
			return false
		}
	}
	return len(values) == ix.count
}

// Verify returns ErrInvariant when either tree invariant is broken.
func (ix *Index) Verify() error {
	if !ix.BSTInvariantHolds() {
		return fmt.Errorf("%w: index is not a search tree", ErrInvariant)
	}
	if !ix.IsBalanced() {
		return fmt.Errorf("%w: index is not height balanced", ErrInvariant)
	}
	return nil
}
