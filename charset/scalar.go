package charset

import (
	"fmt"
	"strconv"
	"unicode"
)

// Scalar is a single Unicode code point.
type Scalar rune

const (
	// MinScalar is the lowest code point.
	MinScalar Scalar = 0
	// MaxScalar is the highest code point.
	MaxScalar Scalar = unicode.MaxRune
)

// Valid reports whether s lies inside the code point space.
func (s Scalar) Valid() bool {
	return s >= MinScalar && s <= MaxScalar
}

// String renders printable scalars quoted and everything else as U+XXXX.
func (s Scalar) String() string {
	r := rune(s)
	if unicode.IsPrint(r) && r != '\'' && r != '\\' {
		return strconv.QuoteRune(r)
	}
	return fmt.Sprintf("U+%04X", r)
}

// Range is an inclusive, non-empty span of scalars.
type Range struct {
	Lo Scalar `json:"lo" yaml:"lo"`
	Hi Scalar `json:"hi" yaml:"hi"`
}

// NewRange validates and returns the range lo..hi.
func NewRange(lo, hi Scalar) (Range, error) {
	if !lo.Valid() || !hi.Valid() {
		return Range{}, fmt.Errorf("range %d-%d outside the code point space", lo, hi)
	}
	if lo > hi {
		return Range{}, fmt.Errorf("inverted range %s-%s", lo, hi)
	}
	return Range{Lo: lo, Hi: hi}, nil
}

// MustRange is NewRange for literals known to be valid.
func MustRange(lo, hi Scalar) Range {
	r, err := NewRange(lo, hi)
	if err != nil {
		panic(err)
	}
	return r
}

// Single returns the range holding only s.
func Single(s Scalar) Range {
	return Range{Lo: s, Hi: s}
}

// Contains reports whether s lies in r.
func (r Range) Contains(s Scalar) bool {
	return r.Lo <= s && s <= r.Hi
}

// ContainsRange reports whether o lies entirely in r.
func (r Range) ContainsRange(o Range) bool {
	return r.Lo <= o.Lo && o.Hi <= r.Hi
}

// Overlaps reports whether r and o share at least one scalar.
func (r Range) Overlaps(o Range) bool {
	return r.Lo <= o.Hi && o.Lo <= r.Hi
}

// Len is the number of scalars in r.
func (r Range) Len() int {
	return int(r.Hi-r.Lo) + 1
}

func (r Range) String() string {
	if r.Lo == r.Hi {
		return r.Lo.String()
	}
	return r.Lo.String() + "-" + r.Hi.String()
}
