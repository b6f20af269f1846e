package charset

import (
	"sort"
	"strings"
)

// Set is a character class. A scalar is a member when it lies in some
// positive range and in no negative range. Neither side is normalized.
type Set struct {
	Positive []Range `json:"positive" yaml:"positive"`
	Negative []Range `json:"negative,omitempty" yaml:"negative,omitempty"`
}

// Of builds a set from positive ranges only.
func Of(ranges ...Range) Set {
	return Set{Positive: append([]Range(nil), ranges...)}
}

// OfScalars builds a set holding each of the given scalars.
func OfScalars(scalars ...Scalar) Set {
	ranges := make([]Range, 0, len(scalars))
	for _, s := range scalars {
		ranges = append(ranges, Single(s))
	}
	return Set{Positive: ranges}
}

// Any is the set of every scalar.
func Any() Set {
	return Of(Range{Lo: MinScalar, Hi: MaxScalar})
}

// Contains reports whether s is a member of the set.
func (s Set) Contains(x Scalar) bool {
	inPositive := false
	for _, r := range s.Positive {
		if r.Contains(x) {
			inPositive = true
			break
		}
	}
	if !inPositive {
		return false
	}
	for _, r := range s.Negative {
		if r.Contains(x) {
			return false
		}
	}
	return true
}

// ContainsRange reports whether every scalar of r is a member.
func (s Set) ContainsRange(r Range) bool {
	for _, eff := range s.Ranges() {
		if eff.ContainsRange(r) {
			return true
		}
	}
	return false
}

// Union returns the set of scalars that are members of s or o.
func (s Set) Union(o Set) Set {
	return Of(Normalize(append(s.Ranges(), o.Ranges()...))...)
}

// Subtract returns the set of members of s that are not members of o.
func (s Set) Subtract(o Set) Set {
	negative := make([]Range, 0, len(s.Negative)+len(o.Positive))
	negative = append(negative, s.Negative...)
	negative = append(negative, o.Ranges()...)
	return Set{
		Positive: append([]Range(nil), s.Positive...),
		Negative: negative,
	}
}

// Ranges returns the members of the set as sorted, disjoint, non-adjacent
// ranges.
func (s Set) Ranges() []Range {
	return Difference(s.Positive, s.Negative)
}

// IsEmpty reports whether the set has no members.
func (s Set) IsEmpty() bool {
	return len(s.Ranges()) == 0
}

// Endpoints returns the bounds of every positive and negative range.
func (s Set) Endpoints() []Scalar {
	points := make([]Scalar, 0, 2*(len(s.Positive)+len(s.Negative)))
	for _, r := range s.Positive {
		points = append(points, r.Lo, r.Hi)
	}
	for _, r := range s.Negative {
		points = append(points, r.Lo, r.Hi)
	}
	return points
}

// String renders the set as it was written: positive ranges, then the
// subtracted ones.
func (s Set) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, r := range s.Positive {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(r.String())
	}
	b.WriteByte(']')
	if len(s.Negative) > 0 {
		b.WriteString(`\[`)
		for i, r := range s.Negative {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(r.String())
		}
		b.WriteByte(']')
	}
	return b.String()
}

// Normalize sorts ranges and merges the ones that overlap or touch.
func Normalize(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := append([]Range(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Lo != sorted[j].Lo {
			return sorted[i].Lo < sorted[j].Lo
		}
		return sorted[i].Hi < sorted[j].Hi
	})

	merged := make([]Range, 0, len(sorted))
	current := sorted[0]
	for _, r := range sorted[1:] {
		if int64(r.Lo) <= int64(current.Hi)+1 {
			if r.Hi > current.Hi {
				current.Hi = r.Hi
			}
			continue
		}
		merged = append(merged, current)
		current = r
	}
	return append(merged, current)
}

// Difference returns the scalars of a that are not in b, normalized.
func Difference(a, b []Range) []Range {
	left := Normalize(a)
	right := Normalize(b)
	if len(right) == 0 {
		return left
	}

	out := make([]Range, 0, len(left))
	j := 0
	for _, r := range left {
		lo := r.Lo
		for j < len(right) && right[j].Hi < lo {
			j++
		}
		k := j
		for k < len(right) && right[k].Lo <= r.Hi {
			if right[k].Lo > lo {
				out = append(out, Range{Lo: lo, Hi: right[k].Lo - 1})
			}
			if right[k].Hi >= r.Hi {
				lo = r.Hi + 1
				break
			}
			lo = right[k].Hi + 1
			k++
		}
		if lo <= r.Hi {
			out = append(out, Range{Lo: lo, Hi: r.Hi})
		}
	}
	return out
}
