package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lexgen/lexgen/analysis"
	"github.com/lexgen/lexgen/automaton"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <grammar>",
	Short: "Emit the definition dependency graph or the state graph",
	Long: `Emit the dependency graph between token and fragment definitions, or
with --states the transition graph of the built table.

Examples:
  lexgen graph tokens.lex --format dot | dot -Tsvg > deps.svg
  lexgen graph tokens.lex --states --format dot`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		states, _ := cmd.Flags().GetBool("states")

		if states {
			loaded, err := loadTable(cmd.Context(), newCompiler(), nil, args[0])
			if err != nil {
				return err
			}
			switch strings.ToLower(format) {
			case "dot":
				return outputBytes([]byte(renderTableDOT(loaded.Table)), output)
			case "json":
				payload, err := json.MarshalIndent(loaded.Document, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding table: %w", err)
				}
				return outputBytes(append(payload, '\n'), output)
			default:
				return fmt.Errorf("unsupported format: %s", format)
			}
		}

		parsed, err := newCompiler().ParseFile(args[0])
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}
		graph := analysis.BuildDependencyGraph(parsed)

		switch strings.ToLower(format) {
		case "json":
			payload, err := json.MarshalIndent(graph, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding graph: %w", err)
			}
			return outputBytes(append(payload, '\n'), output)
		case "dot":
			return outputBytes([]byte(renderDOT(graph)), output)
		default:
			return fmt.Errorf("unsupported format: %s", format)
		}
	},
}

func init() {
	graphCmd.Flags().String("format", "json", "Output format: json or dot")
	graphCmd.Flags().StringP("output", "o", "", "Output file (defaults to stdout)")
	graphCmd.Flags().Bool("states", false, "Emit the table's state graph instead of definition dependencies")
}

func renderDOT(graph analysis.DependencyGraph) string {
	var b strings.Builder
	b.WriteString("digraph grammar {\n")
	b.WriteString("  rankdir=LR;\n")

	for _, token := range graph.Tokens {
		b.WriteString(fmt.Sprintf("  %q [shape=box,label=%q];\n", "token:"+token, token))
	}
	for _, fragment := range graph.Fragments {
		b.WriteString(fmt.Sprintf("  %q [shape=ellipse,label=%q];\n", "fragment:"+fragment, fragment))
	}
	for _, name := range graph.Coverage.UndefinedReferences {
		b.WriteString(fmt.Sprintf("  %q [shape=ellipse,style=dashed,color=red,label=%q];\n", "undefined:"+name, name))
	}

	for _, edge := range graph.Edges {
		b.WriteString(fmt.Sprintf("  %q -> %q;\n", edge.From, edge.To))
	}

	b.WriteString("}\n")
	return b.String()
}

// renderTableDOT draws one edge per state pair, labeled with the ranges
// that lead from one to the other.
func renderTableDOT(table *automaton.Table) string {
	type pair struct{ from, to int }
	labels := make(map[pair][]string)
	for key, to := range table.Transitions {
		p := pair{key.State, to.ID}
		labels[p] = append(labels[p], key.Range.String())
	}
	pairs := make([]pair, 0, len(labels))
	for p := range labels {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].from != pairs[j].from {
			return pairs[i].from < pairs[j].from
		}
		return pairs[i].to < pairs[j].to
	})

	var b strings.Builder
	b.WriteString("digraph table {\n")
	b.WriteString("  rankdir=LR;\n")
	for _, s := range table.States {
		if s.Accepting() {
			b.WriteString(fmt.Sprintf("  s%d [shape=doublecircle,label=%q];\n", s.ID, fmt.Sprintf("%d\n%s", s.ID, s.Accept)))
			continue
		}
		b.WriteString(fmt.Sprintf("  s%d [shape=circle,label=%q];\n", s.ID, fmt.Sprint(s.ID)))
	}
	for _, p := range pairs {
		ranges := labels[p]
		sort.Strings(ranges)
		b.WriteString(fmt.Sprintf("  s%d -> s%d [label=%q];\n", p.from, p.to, strings.Join(ranges, " ")))
	}
	b.WriteString("}\n")
	return b.String()
}
