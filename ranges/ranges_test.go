package ranges

import (
	"errors"
	"testing"

	"github.com/lexgen/lexgen/charset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSets() []charset.Set {
	return []charset.Set{
		charset.Of(charset.MustRange('a', 'z')),
		charset.Of(charset.MustRange('0', '9'), charset.Single('_')),
		charset.OfScalars('i', 'f'),
		charset.Of(charset.MustRange('a', 'z')).Subtract(charset.OfScalars('q')),
	}
}

func TestPartitionEmptyAndSingle(t *testing.T) {
	assert.Empty(t, Partition(nil))
	assert.Equal(t, []Elementary{SingleOf('x')}, Partition([]charset.Set{charset.OfScalars('x')}))
}

func TestPartitionRefinesEveryRange(t *testing.T) {
	sets := testSets()
	parts := Partition(sets)
	require.NoError(t, Verify(parts))

	for _, set := range sets {
		for _, r := range append(append([]charset.Range{}, set.Positive...), set.Negative...) {
			covered := make([]charset.Range, 0)
			for _, e := range parts {
				er := e.Range()
				if r.ContainsRange(er) {
					covered = append(covered, er)
					continue
				}
				assert.False(t, r.Overlaps(er), "range %s splits elementary %s", r, e)
			}
			assert.Equal(t, []charset.Range{r}, charset.Normalize(covered), "range %s not tiled exactly", r)
		}
	}
}

func TestPartitionEmitsSegmentsOnlyForGaps(t *testing.T) {
	parts := Partition([]charset.Set{charset.Of(charset.MustRange('a', 'b'), charset.MustRange('d', 'g'))})
	assert.Equal(t, []Elementary{
		SingleOf('a'),
		SingleOf('b'),
		Between('b', 'd'),
		SingleOf('d'),
		Between('d', 'g'),
		SingleOf('g'),
	}, parts)
}

func TestVerifyRejectsOverlap(t *testing.T) {
	err := Verify([]Elementary{Between('a', 'z'), SingleOf('c')})
	assert.True(t, errors.Is(err, ErrInvariant))

	err = Verify([]Elementary{Between('a', 'b')})
	assert.True(t, errors.Is(err, ErrInvariant))
}

func TestIndexInvariants(t *testing.T) {
	parts := Partition(testSets())
	index, err := NewIndex(parts)
	require.NoError(t, err)

	assert.True(t, index.IsBalanced())
	assert.True(t, index.BSTInvariantHolds())
	assert.Equal(t, len(parts), index.Count())
	assert.Equal(t, parts, index.Values())
}

func TestIndexStaysBalancedUnderSequentialInserts(t *testing.T) {
	index := &Index{}
	for i := 0; i < 500; i++ {
		index = index.Insert(SingleOf(charset.Scalar(i * 2)))
		require.True(t, index.IsBalanced(), "unbalanced after %d inserts", i+1)
		require.True(t, index.BSTInvariantHolds())
	}
	assert.Equal(t, 500, index.Count())
	assert.LessOrEqual(t, index.Height(), 13)

	for i := 499; i >= 0; i-- {
		index = index.Insert(SingleOf(charset.Scalar(i*2 + 1)))
	}
	assert.True(t, index.IsBalanced())
	assert.Equal(t, 1000, index.Count())
}

func TestIndexInsertIsPersistent(t *testing.T) {
	base, err := NewIndex([]Elementary{SingleOf('a'), SingleOf('c')})
	require.NoError(t, err)

	grown := base.Insert(SingleOf('b'))
	assert.Equal(t, 2, base.Count())
	assert.Equal(t, 3, grown.Count())
	_, ok := base.RangeContaining('b')
	assert.False(t, ok)

	assert.Same(t, grown, grown.Insert(SingleOf('b')))
}

func TestIndexAgreesWithPartition(t *testing.T) {
	parts := Partition(testSets())
	index, err := NewIndex(parts)
	require.NoError(t, err)

	for _, e := range parts {
		probes := []charset.Scalar{e.First(), e.Last()}
		for _, s := range probes {
			got, ok := index.RangeContaining(s)
			require.True(t, ok, "no range for %s", s)
			assert.Equal(t, e, got)
		}
	}

	// 'A' falls in the gap between the '9' and '_' endpoints.
	got, ok := index.RangeContaining('A')
	require.True(t, ok)
	assert.Equal(t, Between('9', '_'), got)

	for _, s := range []charset.Scalar{'~', '/', 0, charset.MaxScalar} {
		_, ok = index.RangeContaining(s)
		assert.False(t, ok, "unexpected range for %s", s)
	}
}

func TestRangesIntersecting(t *testing.T) {
	parts := Partition(testSets())
	index, err := NewIndex(parts)
	require.NoError(t, err)

	got := index.RangesIntersecting(charset.MustRange('e', 'g'))
	assert.Equal(t, []Elementary{Between('a', 'f'), SingleOf('f'), Between('f', 'i')}, got)

	assert.Equal(t, []Elementary{Between('9', '_')}, index.RangesIntersecting(charset.MustRange('A', 'Z')))
	assert.Empty(t, index.RangesIntersecting(charset.MustRange('!', '/')))
	assert.Empty(t, index.RangesIntersecting(charset.MustRange('{', '~')))

	all := index.RangesIntersecting(charset.Range{Lo: charset.MinScalar, Hi: charset.MaxScalar})
	assert.Equal(t, parts, all)
}

func TestNewIndexRejectsOverlap(t *testing.T) {
	_, err := NewIndex([]Elementary{Between('a', 'z'), SingleOf('m')})
	assert.ErrorIs(t, err, ErrInvariant)
}
