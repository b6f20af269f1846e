package ranges

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lexgen/lexgen/charset"
)

// ErrInvariant reports a broken partition or index invariant. It is a defect,
// never a user error.
var ErrInvariant = errors.New("range invariant violated")

// Kind tags the two shapes of an elementary range.
type Kind uint8

const (
	// Single is exactly one scalar.
	Single Kind = iota
	// Segment is every scalar strictly between two partition points.
	Segment
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "single"
	case Segment:
		return "segment"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Elementary is a range that no mentioned character class splits. For
// Single, From and To are the same scalar. For Segment they are the
// surrounding partition points and are themselves excluded.
type Elementary struct {
	Kind Kind
	From charset.Scalar
	To   charset.Scalar
}

// SingleOf returns the elementary range holding just s.
func SingleOf(s charset.Scalar) Elementary {
	return Elementary{Kind: Single, From: s, To: s}
}

// Between returns the segment strictly between lo and hi. It requires
// lo+1 < hi.
func Between(lo, hi charset.Scalar) Elementary {
	return Elementary{Kind: Segment, From: lo, To: hi}
}

// First is the lowest scalar in e.
func (e Elementary) First() charset.Scalar {
	if e.Kind == Segment {
		return e.From + 1
	}
	return e.From
}

// Last is the highest scalar in e.
func (e Elementary) Last() charset.Scalar {
	if e.Kind == Segment {
		return e.To - 1
	}
	return e.From
}

// Range converts e to an inclusive scalar range.
func (e Elementary) Range() charset.Range {
	return charset.Range{Lo: e.First(), Hi: e.Last()}
}

// Contains reports whether s lies in e.
func (e Elementary) Contains(s charset.Scalar) bool {
	return e.First() <= s && s <= e.Last()
}

// Compare places s relative to e: -1 before it, 0 inside, 1 after.
func (e Elementary) Compare(s charset.Scalar) int {
	switch {
	case s < e.First():
		return -1
	case s > e.Last():
		return 1
	default:
		return 0
	}
}

// Less orders elementary ranges by their first scalar.
func (e Elementary) Less(o Elementary) bool {
	return e.First() < o.First()
}

// Overlaps reports whether e shares a scalar with r.
func (e Elementary) Overlaps(r charset.Range) bool {
	return e.Range().Overlaps(r)
}

func (e Elementary) String() string {
	if e.Kind == Single {
		return e.From.String()
	}
	return fmt.Sprintf("(%s..%s)", e.From, e.To)
}

// Sort orders elementary ranges in place.
func Sort(values []Elementary) {
	sort.Slice(values, func(i, j int) bool {
		return values[i].Less(values[j])
	})
}

// Partition computes the coarsest set of elementary ranges refining every
// range of every given set. The result is sorted.
func Partition(sets []charset.Set) []Elementary {
	seen := make(map[charset.Scalar]struct{})
	points := make([]charset.Scalar, 0)
	for _, set := range sets {
		for _, p := range set.Endpoints() {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			points = append(points, p)
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })

	out := make([]Elementary, 0, 2*len(points))
	for i, p := range points {
		out = append(out, SingleOf(p))
		if i+1 < len(points) && p+1 < points[i+1] {
			out = append(out, Between(p, points[i+1]))
		}
	}
	return out
}

// Verify checks that values are sorted, well-formed and pairwise disjoint.
func Verify(values []Elementary) error {
	for i, e := range values {
		if e.Kind == Segment && e.From+1 >= e.To {
			return fmt.Errorf("%w: empty segment %s", ErrInvariant, e)
		}
		if e.Kind == Single && e.From != e.To {
			return fmt.Errorf("%w: single %s with distinct bounds", ErrInvariant, e)
		}
		if i > 0 && values[i-1].Last() >= e.First() {
			return fmt.Errorf("%w: %s and %s overlap or are out of order", ErrInvariant, values[i-1], e)
		}
	}
	return nil
}
