package automaton

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/lexgen/lexgen/ranges"
	"github.com/lexgen/lexgen/regex"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxStates bounds the number of states a build may discover.
const DefaultMaxStates = 10000

// ErrStateLimit is returned when a grammar discovers more states than the
// configured ceiling.
var ErrStateLimit = errors.New("automaton state limit exceeded")

// Option configures a build.
type Option func(*options)

type options struct {
	maxStates int
	workers   int
	logger    *zap.Logger
}

// WithMaxStates sets the state ceiling. Values below one keep the default.
func WithMaxStates(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxStates = n
		}
	}
}

// WithWorkers sets how many frontier states are expanded concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogger attaches a logger for build progress.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Edge is one outgoing transition of a state.
type Edge struct {
	Range ranges.Elementary
	To    int
}

// Automaton is the result of subset construction. States are numbered in
// discovery order and state 0 holds every definition unmoved.
type Automaton struct {
	Definitions []TokenDefinition
	Ranges      []ranges.Elementary
	Index       *ranges.Index
	States      []*State
	Edges       [][]Edge
	Rounds      int
}

// Next follows the transition of state on e.
func (a *Automaton) Next(state int, e ranges.Elementary) (int, bool) {
	edges := a.Edges[state]
	i := sort.Search(len(edges), func(i int) bool {
		return edges[i].Range.First() >= e.First()
	})
	if i < len(edges) && edges[i].Range == e {
		return edges[i].To, true
	}
	return 0, false
}

// TransitionCount is the total number of edges.
func (a *Automaton) TransitionCount() int {
	total := 0
	for _, edges := range a.Edges {
		total += len(edges)
	}
	return total
}

type successor struct {
	rng   ranges.Elementary
	state *State
}

// Build runs subset construction over defs until no new state appears.
// All regexes must come from the same pool.
func Build(ctx context.Context, defs []TokenDefinition, opts ...Option) (*Automaton, error) {
	cfg := options{
		maxStates: DefaultMaxStates,
		workers:   runtime.GOMAXPROCS(0),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var pool *regex.Pool
	roots := make([]*regex.Node, 0, len(defs))
	for _, def := range defs {
		if def.Regex == nil {
			return nil, fmt.Errorf("token %q has no regex", def.Class)
		}
		if pool == nil {
			pool = def.Regex.Pool()
		} else if def.Regex.Pool() != pool {
			return nil, fmt.Errorf("token %q was built from a different regex pool", def.Class)
		}
		roots = append(roots, def.Regex)
	}
	if pool == nil {
		pool = regex.NewPool()
	}

	parts := ranges.Partition(regex.Sets(roots...))
	index, err := ranges.NewIndex(parts)
	if err != nil {
		return nil, fmt.Errorf("indexing ranges: %w", err)
	}
	deriver := regex.NewDeriver(pool, index)

	initial := NewState(defs)
	a := &Automaton{
		Definitions: append([]TokenDefinition(nil), defs...),
		Ranges:      parts,
		Index:       index,
		States:      []*State{initial},
		Edges:       [][]Edge{nil},
	}
	seen := map[string]int{initial.Key(): 0}
	frontier := []int{0}
	start := time.Now()

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("building automaton: %w", err)
		}
		a.Rounds++

		results := make([][]successor, len(frontier))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.workers)
		for i, id := range frontier {
			i := i
			state := a.States[id]
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = expand(deriver, state)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("building automaton: %w", err)
		}

		var next []int
		for i, from := range frontier {
			for _, succ := range results[i] {
				to, ok := seen[succ.state.Key()]
				if !ok {
					if len(a.States) >= cfg.maxStates {
						return nil, fmt.Errorf("%w: more than %d states after %d rounds", ErrStateLimit, cfg.maxStates, a.Rounds)
					}
					to = len(a.States)
					seen[succ.state.Key()] = to
					a.States = append(a.States, succ.state)
					a.Edges = append(a.Edges, nil)
					next = append(next, to)
				}
				a.Edges[from] = append(a.Edges[from], Edge{Range: succ.rng, To: to})
			}
		}

		cfg.logger.Debug("subset construction round",
			zap.Int("round", a.Rounds),
			zap.Int("frontier", len(frontier)),
			zap.Int("discovered", len(next)),
			zap.Int("states", len(a.States)))
		frontier = next
	}

	cfg.logger.Info("automaton built",
		zap.Int("definitions", len(defs)),
		zap.Int("ranges", len(parts)),
		zap.Int("states", len(a.States)),
		zap.Int("transitions", a.TransitionCount()),
		zap.Int("rounds", a.Rounds),
		zap.Duration("elapsed", time.Since(start)))
	return a, nil
}

// expand computes every outgoing transition of state, in range order.
func expand(d *regex.Deriver, state *State) []successor {
	heads := make([][]ranges.Elementary, 0, state.Len())
	for _, item := range state.Items() {
		heads = append(heads, d.First(item.Regex))
	}
	relevant := regex.MergeRanges(heads...)

	out := make([]successor, 0, len(relevant))
	for _, e := range relevant {
		var moved []TokenDefinition
		for _, item := range state.Items() {
			for _, residual := range d.Move(item.Regex, e) {
				moved = append(moved, TokenDefinition{Class: item.Class, Order: item.Order, Regex: residual})
			}
		}
		if len(moved) == 0 {
			continue
		}
		out = append(out, successor{rng: e, state: NewState(moved)})
	}
	return out
}
