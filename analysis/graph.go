package analysis

import (
	"sort"

	"github.com/lexgen/lexgen/grammar"
)

// Edge represents a reference edge in the graph.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// CoverageReport summarizes fragment usage.
type CoverageReport struct {
	UsedFragments       []string `json:"used_fragments"`
	UnusedFragments     []string `json:"unused_fragments"`
	UndefinedReferences []string `json:"undefined_references"`
}

// DependencyGraph captures which definitions reference which.
type DependencyGraph struct {
	Tokens    []string       `json:"tokens"`
	Fragments []string       `json:"fragments"`
	Edges     []Edge         `json:"edges"`
	Coverage  CoverageReport `json:"coverage"`
}

// BuildDependencyGraph builds a dependency graph and coverage report. A
// fragment counts as used when some token reaches it, directly or through
// other fragments.
func BuildDependencyGraph(file *grammar.File) DependencyGraph {
	graph := DependencyGraph{}
	if file == nil {
		return graph
	}

	kinds := make(map[string]string)
	refs := make(map[string][]string)
	for _, def := range file.Definitions {
		if _, dup := kinds[def.Name]; dup {
			continue
		}
		if def.IsToken() {
			kinds[def.Name] = "token"
			graph.Tokens = append(graph.Tokens, def.Name)
		} else {
			kinds[def.Name] = "fragment"
			graph.Fragments = append(graph.Fragments, def.Name)
		}
		refs[def.Name] = def.References()
	}

	undefined := make(map[string]struct{})
	for _, def := range file.Definitions {
		for _, ref := range refs[def.Name] {
			kind, ok := kinds[ref]
			if !ok {
				undefined[ref] = struct{}{}
				kind = "undefined"
			}
			graph.Edges = append(graph.Edges, Edge{
				From: kinds[def.Name] + ":" + def.Name,
				To:   kind + ":" + ref,
				Kind: kind,
			})
		}
		// Later duplicates share the first definition's references.
		refs[def.Name] = nil
	}

	reached := make(map[string]struct{})
	var visit func(name string)
	visit = func(name string) {
		for _, ref := range referencesOf(file, name) {
			if kinds[ref] != "fragment" {
				continue
			}
			if _, ok := reached[ref]; ok {
				continue
			}
			reached[ref] = struct{}{}
			visit(ref)
		}
	}
	for _, token := range graph.Tokens {
		visit(token)
	}

	graph.Coverage = buildCoverageReport(graph.Fragments, reached, undefined)
	return graph
}

func referencesOf(file *grammar.File, name string) []string {
	def, ok := file.Lookup(name)
	if !ok {
		return nil
	}
	return def.References()
}

func buildCoverageReport(fragments []string, reached, undefined map[string]struct{}) CoverageReport {
	report := CoverageReport{}

	for _, fragment := range fragments {
		if _, ok := reached[fragment]; ok {
			report.UsedFragments = append(report.UsedFragments, fragment)
		} else {
			report.UnusedFragments = append(report.UnusedFragments, fragment)
		}
	}
	report.UndefinedReferences = sortedKeys(undefined)

	sort.Strings(report.UsedFragments)
	sort.Strings(report.UnusedFragments)
	return report
}

func sortedKeys(values map[string]struct{}) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
