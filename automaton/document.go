package automaton

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lexgen/lexgen/charset"
	"github.com/lexgen/lexgen/ranges"
	"gopkg.in/yaml.v3"
)

// Document is the portable form of a Table.
type Document struct {
	ID          string               `json:"id" yaml:"id"`
	Grammar     string               `json:"grammar,omitempty" yaml:"grammar,omitempty"`
	Digest      string               `json:"digest,omitempty" yaml:"digest,omitempty"`
	CreatedAt   time.Time            `json:"created_at" yaml:"created_at"`
	Classes     []string             `json:"classes" yaml:"classes"`
	Ranges      []DocumentRange      `json:"ranges" yaml:"ranges"`
	States      []DocumentState      `json:"states" yaml:"states"`
	Transitions []DocumentTransition `json:"transitions" yaml:"transitions"`
}

// DocumentRange is an elementary range in a document.
type DocumentRange struct {
	Kind string         `json:"kind" yaml:"kind"`
	From charset.Scalar `json:"from" yaml:"from"`
	To   charset.Scalar `json:"to" yaml:"to"`
}

// DocumentState is a labeled state in a document.
type DocumentState struct {
	ID     int    `json:"id" yaml:"id"`
	Accept string `json:"accept,omitempty" yaml:"accept,omitempty"`
}

// DocumentTransition refers to its range by position in Ranges.
type DocumentTransition struct {
	From  int `json:"from" yaml:"from"`
	Range int `json:"range" yaml:"range"`
	To    int `json:"to" yaml:"to"`
}

// Metadata describes where a document came from.
type Metadata struct {
	Grammar string
	Digest  string
}

// Document exports the table. Transitions are listed by state, then range.
func (t *Table) Document(meta Metadata) *Document {
	doc := &Document{
		ID:          uuid.NewString(),
		Grammar:     meta.Grammar,
		Digest:      meta.Digest,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
		Classes:     append([]string{}, t.Classes...),
		Ranges:      make([]DocumentRange, 0, len(t.Ranges)),
		States:      make([]DocumentState, 0, len(t.States)),
		Transitions: make([]DocumentTransition, 0, len(t.Transitions)),
	}

	position := make(map[ranges.Elementary]int, len(t.Ranges))
	for i, e := range t.Ranges {
		position[e] = i
		doc.Ranges = append(doc.Ranges, DocumentRange{Kind: e.Kind.String(), From: e.From, To: e.To})
	}
	for _, s := range t.States {
		doc.States = append(doc.States, DocumentState{ID: s.ID, Accept: s.Accept})
	}
	for key, to := range t.Transitions {
		doc.Transitions = append(doc.Transitions, DocumentTransition{
			From:  key.State,
			Range: position[key.Range],
			To:    to.ID,
		})
	}
	sort.Slice(doc.Transitions, func(i, j int) bool {
		a, b := doc.Transitions[i], doc.Transitions[j]
		if a.From != b.From {
			return a.From < b.From
		}
		return a.Range < b.Range
	})
	return doc
}

// Table rebuilds a table from the document, validating every reference.
func (d *Document) Table() (*Table, error) {
	parts := make([]ranges.Elementary, 0, len(d.Ranges))
	for i, r := range d.Ranges {
		switch r.Kind {
		case ranges.Single.String():
			if r.From != r.To {
				return nil, fmt.Errorf("range %d: single range with distinct bounds", i)
			}
			parts = append(parts, ranges.SingleOf(r.From))
		case ranges.Segment.String():
			parts = append(parts, ranges.Between(r.From, r.To))
		default:
			return nil, fmt.Errorf("range %d: unknown kind %q", i, r.Kind)
		}
	}
	if err := ranges.Verify(parts); err != nil {
		return nil, fmt.Errorf("document ranges: %w", err)
	}
	index, err := ranges.NewIndex(parts)
	if err != nil {
		return nil, fmt.Errorf("document ranges: %w", err)
	}

	if len(d.States) == 0 {
		return nil, fmt.Errorf("document has no states")
	}
	t := &Table{
		Index:       index,
		Ranges:      parts,
		States:      make([]LabeledState, len(d.States)),
		Transitions: make(map[TransitionKey]LabeledState, len(d.Transitions)),
		Classes:     append([]string{}, d.Classes...),
	}
	for i, s := range d.States {
		if s.ID != i {
			return nil, fmt.Errorf("state %d listed at position %d", s.ID, i)
		}
		t.States[i] = LabeledState{ID: s.ID, Accept: s.Accept}
	}
	for _, tr := range d.Transitions {
		if tr.From < 0 || tr.From >= len(t.States) || tr.To < 0 || tr.To >= len(t.States) {
			return nil, fmt.Errorf("transition %d -> %d refers to a missing state", tr.From, tr.To)
		}
		if tr.Range < 0 || tr.Range >= len(parts) {
			return nil, fmt.Errorf("transition from %d refers to missing range %d", tr.From, tr.Range)
		}
		t.Transitions[TransitionKey{State: tr.From, Range: parts[tr.Range]}] = t.States[tr.To]
	}
	return t, nil
}

// FormatFromPath picks "yaml" for .yaml and .yml files and "json" otherwise.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// Encode writes doc in the given format.
func Encode(w io.Writer, doc *Document, format string) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported document format %q", format)
	}
}

// Decode reads a document in the given format.
func Decode(r io.Reader, format string) (*Document, error) {
	doc := &Document{}
	switch format {
	case "json", "":
		if err := json.NewDecoder(r).Decode(doc); err != nil {
			return nil, fmt.Errorf("decoding json document: %w", err)
		}
	case "yaml":
		if err := yaml.NewDecoder(r).Decode(doc); err != nil {
			return nil, fmt.Errorf("decoding yaml document: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
	return doc, nil
}
