package automaton

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lexgen/lexgen/regex"
)

// TokenDefinition pairs a token class with its regex. Order is the
// declaration position among token rules; the lowest order wins a tie.
type TokenDefinition struct {
	Class string
	Order int
	Regex *regex.Node
}

// Satisfied reports whether the definition has matched completely, that is
// whether its residual accepts the empty string.
func (d TokenDefinition) Satisfied() bool {
	return d.Regex.Nullable()
}

// State is an immutable set of token definitions, each holding the
// residual left after the input consumed so far.
type State struct {
	items []TokenDefinition
	key   string
}

// NewState returns the canonical state holding items. Duplicates collapse
// and the order of items does not matter.
func NewState(items []TokenDefinition) *State {
	sorted := append([]TokenDefinition(nil), items...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].Regex.ID() < sorted[j].Regex.ID()
	})

	var b strings.Builder
	unique := make([]TokenDefinition, 0, len(sorted))
	for _, item := range sorted {
		if n := len(unique); n > 0 && item.Order == unique[n-1].Order && item.Regex == unique[n-1].Regex {
			continue
		}
		unique = append(unique, item)
		b.WriteString(strconv.Itoa(item.Order))
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(item.Regex.ID()), 10))
		b.WriteByte(';')
	}
	return &State{items: unique, key: b.String()}
}

// Items returns the state's definitions ordered by priority.
func (s *State) Items() []TokenDefinition {
	return s.items
}

// Key identifies the state: two states with the same key hold the same
// definitions.
func (s *State) Key() string {
	return s.key
}

// Len is the number of definitions in the state.
func (s *State) Len() int {
	return len(s.items)
}

// Accepting returns the lowest-order satisfied definition, if any.
func (s *State) Accepting() (TokenDefinition, bool) {
	for _, item := range s.items {
		if item.Satisfied() {
			return item, true
		}
	}
	return TokenDefinition{}, false
}
