package regex

import (
	"sync"
	"testing"

	"github.com/lexgen/lexgen/charset"
	"github.com/lexgen/lexgen/ranges"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deriverFor(t *testing.T, pool *Pool, nodes ...*Node) *Deriver {
	t.Helper()
	index, err := ranges.NewIndex(ranges.Partition(Sets(nodes...)))
	require.NoError(t, err)
	return NewDeriver(pool, index)
}

func TestPoolInternsStructurallyEqualNodes(t *testing.T) {
	pool := NewPool()
	a1 := pool.Class(charset.OfScalars('a'))
	a2 := pool.Class(charset.OfScalars('a'))
	assert.Same(t, a1, a2)

	b := pool.Class(charset.OfScalars('b'))
	assert.Same(t, pool.Union(a1, b), pool.Union(a2, b))
	assert.NotSame(t, pool.Union(a1, b), pool.Union(b, a1))
	assert.Same(t, pool.Literal("ab"), pool.Concat(a1, b))
}

func TestSmartConstructors(t *testing.T) {
	pool := NewPool()
	eps := pool.Epsilon()
	a := pool.Class(charset.OfScalars('a'))
	b := pool.Class(charset.OfScalars('b'))
	c := pool.Class(charset.OfScalars('c'))

	assert.Same(t, a, pool.Concat(eps, a))
	assert.Same(t, a, pool.Concat(a, eps))
	assert.Same(t, a, pool.Union(a, a))
	assert.Same(t, eps, pool.OneOrMore(eps))
	assert.Same(t, pool.OneOrMore(a), pool.OneOrMore(pool.OneOrMore(a)))
	assert.Same(t, pool.Concat(pool.Concat(a, b), c), pool.Concat(a, pool.Concat(b, c)))
	assert.Same(t, eps, pool.Literal(""))
	assert.Same(t, eps, pool.Sequence())
	assert.Nil(t, pool.Alternatives())
}

func TestNullable(t *testing.T) {
	pool := NewPool()
	a := pool.Class(charset.OfScalars('a'))
	b := pool.Class(charset.OfScalars('b'))

	tests := []struct {
		name string
		node *Node
		want bool
	}{
		{"epsilon", pool.Epsilon(), true},
		{"class", a, false},
		{"star", pool.Star(a), true},
		{"optional", pool.Optional(a), true},
		{"plus", pool.OneOrMore(a), false},
		{"concat of optionals", pool.Concat(pool.Optional(a), pool.Star(b)), true},
		{"concat with required", pool.Concat(pool.Optional(a), b), false},
		{"union", pool.Union(a, pool.Epsilon()), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.node.Nullable())
		})
	}
}

func TestMoveClass(t *testing.T) {
	pool := NewPool()
	set := charset.Of(charset.MustRange('a', 'z')).Subtract(charset.OfScalars('q'))
	class := pool.Class(set)
	d := deriverFor(t, pool, class)

	assert.Equal(t, []*Node{pool.Epsilon()}, d.Move(class, ranges.Between('a', 'q')))
	assert.Empty(t, d.Move(class, ranges.SingleOf('q')))
	assert.Equal(t, []*Node{pool.Epsilon()}, d.Move(class, ranges.SingleOf('z')))
	assert.Empty(t, d.Move(pool.Epsilon(), ranges.SingleOf('a')))
}

func TestMoveConcatAndRepeat(t *testing.T) {
	pool := NewPool()
	a := pool.Class(charset.OfScalars('a'))
	b := pool.Class(charset.OfScalars('b'))
	ab := pool.Literal("ab")
	plus := pool.OneOrMore(a)
	optThenB := pool.Concat(pool.Optional(a), b)
	d := deriverFor(t, pool, ab, plus, optThenB)

	assert.Equal(t, []*Node{b}, d.Move(ab, ranges.SingleOf('a')))
	assert.Empty(t, d.Move(ab, ranges.SingleOf('b')))

	assert.Equal(t, []*Node{plus, pool.Epsilon()}, d.Move(plus, ranges.SingleOf('a')))
	assert.Equal(t, []*Node{plus, pool.Epsilon()}, d.Move(pool.Star(a), ranges.SingleOf('a')))

	assert.Equal(t, []*Node{b}, d.Move(optThenB, ranges.SingleOf('a')))
	assert.Equal(t, []*Node{pool.Epsilon()}, d.Move(optThenB, ranges.SingleOf('b')))
}

func TestMoveUnionDeduplicates(t *testing.T) {
	pool := NewPool()
	a := pool.Class(charset.OfScalars('a'))
	letters := pool.Class(charset.Of(charset.MustRange('a', 'c')))
	union := pool.Union(a, letters)
	d := deriverFor(t, pool, union)

	assert.Equal(t, []*Node{pool.Epsilon()}, d.Move(union, ranges.SingleOf('a')))
}

func TestFirst(t *testing.T) {
	pool := NewPool()
	a := pool.Class(charset.OfScalars('a'))
	b := pool.Class(charset.OfScalars('b'))
	node := pool.Concat(pool.Optional(a), b)
	d := deriverFor(t, pool, node)

	assert.Equal(t, []ranges.Elementary{ranges.SingleOf('a'), ranges.SingleOf('b')}, d.First(node))
	assert.Equal(t, []ranges.Elementary{ranges.SingleOf('a')}, d.First(pool.Concat(a, b)))
	assert.Empty(t, d.First(pool.Epsilon()))
}

func TestFirstCoversClassWithoutHoles(t *testing.T) {
	pool := NewPool()
	class := pool.Class(charset.Of(charset.MustRange('a', 'z')).Subtract(charset.OfScalars('q')))
	d := deriverFor(t, pool, class)

	assert.Equal(t, []ranges.Elementary{
		ranges.SingleOf('a'),
		ranges.Between('a', 'q'),
		ranges.Between('q', 'z'),
		ranges.SingleOf('z'),
	}, d.First(class))
}

func TestPoolConcurrentInterning(t *testing.T) {
	pool := NewPool()
	results := make([]*Node, 16)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = pool.Star(pool.Literal("while"))
		}(i)
	}
	wg.Wait()

	for _, n := range results {
		assert.Same(t, results[0], n)
	}
}

func TestString(t *testing.T) {
	pool := NewPool()
	a := pool.Class(charset.OfScalars('a'))
	b := pool.Class(charset.OfScalars('b'))

	assert.Equal(t, `['a'] ['b']`, pool.Concat(a, b).String())
	assert.Equal(t, `"" | ['a']+`, pool.Star(a).String())
	assert.Equal(t, `(['a'] | ['b'])+`, pool.OneOrMore(pool.Union(a, b)).String())
}
