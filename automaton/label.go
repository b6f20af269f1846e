package automaton

import (
	"context"
	"sort"

	"github.com/lexgen/lexgen/charset"
	"github.com/lexgen/lexgen/ranges"
)

// LabeledState is a state stripped down to its id and the token class it
// accepts. Accept is empty for non-accepting states.
type LabeledState struct {
	ID     int
	Accept string
}

// Accepting reports whether the state accepts a token.
func (s LabeledState) Accepting() bool {
	return s.Accept != ""
}

// TransitionKey addresses one transition of a table.
type TransitionKey struct {
	State int
	Range ranges.Elementary
}

// Table is the compact transition table consumed by the scanner.
type Table struct {
	Index       *ranges.Index
	Ranges      []ranges.Elementary
	States      []LabeledState
	Transitions map[TransitionKey]LabeledState
	Classes     []string
}

// Label numbers the states of a in discovery order and resolves each
// accepting state to its lowest-order satisfied definition.
func Label(a *Automaton) *Table {
	t := &Table{
		Index:       a.Index,
		Ranges:      a.Ranges,
		States:      make([]LabeledState, len(a.States)),
		Transitions: make(map[TransitionKey]LabeledState, a.TransitionCount()),
		Classes:     classes(a.Definitions),
	}
	for id, state := range a.States {
		labeled := LabeledState{ID: id}
		if def, ok := state.Accepting(); ok {
			labeled.Accept = def.Class
		}
		t.States[id] = labeled
	}
	for from, edges := range a.Edges {
		for _, edge := range edges {
			t.Transitions[TransitionKey{State: from, Range: edge.Range}] = t.States[edge.To]
		}
	}
	return t
}

// Compile builds and labels the automaton for defs.
func Compile(ctx context.Context, defs []TokenDefinition, opts ...Option) (*Table, error) {
	a, err := Build(ctx, defs, opts...)
	if err != nil {
		return nil, err
	}
	return Label(a), nil
}

func classes(defs []TokenDefinition) []string {
	sorted := append([]TokenDefinition(nil), defs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	out := make([]string, 0, len(sorted))
	seen := make(map[string]struct{})
	for _, def := range sorted {
		if _, ok := seen[def.Class]; ok {
			continue
		}
		seen[def.Class] = struct{}{}
		out = append(out, def.Class)
	}
	return out
}

// Initial returns the start state.
func (t *Table) Initial() LabeledState {
	return t.States[0]
}

// Step classifies s and follows the transition of state on its range.
func (t *Table) Step(state int, s charset.Scalar) (LabeledState, bool) {
	e, ok := t.Index.RangeContaining(s)
	if !ok {
		return LabeledState{}, false
	}
	next, ok := t.Transitions[TransitionKey{State: state, Range: e}]
	return next, ok
}

// AcceptingCount is the number of accepting states.
func (t *Table) AcceptingCount() int {
	n := 0
	for _, s := range t.States {
		if s.Accepting() {
			n++
		}
	}
	return n
}

// Equivalent reports whether t and o are the same automaton up to state
// numbering: same ranges, and a bijection between reachable states that
// preserves labels and transitions.
func (t *Table) Equivalent(o *Table) bool {
	if len(t.Ranges) != len(o.Ranges) || len(t.States) != len(o.States) || len(t.Transitions) != len(o.Transitions) {
		return false
	}
	for i := range t.Ranges {
		if t.Ranges[i] != o.Ranges[i] {
			return false
		}
	}

	mapping := map[int]int{0: 0}
	reverse := map[int]int{0: 0}
	queue := []int{0}
	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]
		b := mapping[a]
		if t.States[a].Accept != o.States[b].Accept {
			return false
		}
		for _, e := range t.Ranges {
			na, okA := t.Transitions[TransitionKey{State: a, Range: e}]
			nb, okB := o.Transitions[TransitionKey{State: b, Range: e}]
			if okA != okB {
				return false
			}
			if !okA {
				continue
			}
			if m, seen := mapping[na.ID]; seen {
				if m != nb.ID {
					return false
				}
				continue
			}
			if _, taken := reverse[nb.ID]; taken {
				return false
			}
			mapping[na.ID] = nb.ID
			reverse[nb.ID] = na.ID
			queue = append(queue, na.ID)
		}
	}
	return true
}
