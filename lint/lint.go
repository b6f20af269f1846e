package lint

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/lexgen/lexgen/analysis"
	"github.com/lexgen/lexgen/automaton"
	"github.com/lexgen/lexgen/grammar"
	"github.com/lexgen/lexgen/regex"
)

const (
	SeverityWarning = "warning"
	SeverityError   = "error"

	CodeShadowedToken  = "shadowed-token"
	CodeNullableToken  = "nullable-token"
	CodeUnusedFragment = "unused-fragment"
	CodeEmptyClass     = "empty-class"
)

// ShadowMode controls how tokens that can never be emitted are reported.
type ShadowMode string

const (
	ShadowIgnore ShadowMode = "ignore"
	ShadowWarn   ShadowMode = "warn"
	ShadowError  ShadowMode = "error"
)

// LintOptions configures lint behavior.
type LintOptions struct {
	ShadowMode ShadowMode
}

// DefaultOptions returns the default lint options.
func DefaultOptions() LintOptions {
	return LintOptions{ShadowMode: ShadowWarn}
}

// ParseShadowMode parses a string into ShadowMode.
func ParseShadowMode(raw string) (ShadowMode, error) {
	trimmed := strings.TrimSpace(strings.ToLower(raw))
	switch trimmed {
	case "", "warn", "warning":
		return ShadowWarn, nil
	case "error", "err":
		return ShadowError, nil
	case "ignore", "off", "none":
		return ShadowIgnore, nil
	default:
		return ShadowWarn, fmt.Errorf("unknown shadow mode: %s", raw)
	}
}

// Issue represents a linter finding.
type Issue struct {
	File     string         `json:"file"`
	Pos      lexer.Position `json:"pos"`
	Severity string         `json:"severity"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
}

// LintFile runs lint checks on a resolved grammar and its table.
func LintFile(file *grammar.File, path string, defs []automaton.TokenDefinition, table *automaton.Table) []Issue {
	return LintFileWithOptions(file, path, defs, table, DefaultOptions())
}

// LintFileWithOptions runs lint checks with custom options. defs and table
// may be nil when resolution failed; only the syntactic checks run then.
func LintFileWithOptions(file *grammar.File, path string, defs []automaton.TokenDefinition, table *automaton.Table, options LintOptions) []Issue {
	if file == nil {
		return nil
	}

	issues := make([]Issue, 0)
	mode := normalizeShadowMode(options.ShadowMode)

	issues = append(issues, lintUnusedFragments(file, path)...)

	for _, def := range defs {
		pos := positionOf(file, def.Class)
		issues = append(issues, lintNullableToken(path, pos, def)...)
		issues = append(issues, lintEmptyClass(path, pos, def)...)
	}

	if table != nil {
		issues = append(issues, lintShadowedTokens(file, path, defs, table, mode)...)
	}

	return issues
}

func positionOf(file *grammar.File, name string) lexer.Position {
	if def, ok := file.Lookup(name); ok {
		return def.Pos
	}
	return file.Pos
}

func lintUnusedFragments(file *grammar.File, path string) []Issue {
	graph := analysis.BuildDependencyGraph(file)
	issues := make([]Issue, 0, len(graph.Coverage.UnusedFragments))
	for _, name := range graph.Coverage.UnusedFragments {
		issues = append(issues, Issue{
			File:     path,
			Pos:      positionOf(file, name),
			Severity: SeverityWarning,
			Code:     CodeUnusedFragment,
			Message:  fmt.Sprintf("fragment %q is not used by any token", name),
		})
	}
	return issues
}

func lintNullableToken(path string, pos lexer.Position, def automaton.TokenDefinition) []Issue {
	if !def.Regex.Nullable() {
		return nil
	}

	return []Issue{
		{
			File:     path,
			Pos:      pos,
			Severity: SeverityWarning,
			Code:     CodeNullableToken,
			Message:  fmt.Sprintf("token %q matches the empty string; empty tokens are never emitted", def.Class),
		},
	}
}

func lintEmptyClass(path string, pos lexer.Position, def automaton.TokenDefinition) []Issue {
	found := false
	def.Regex.Walk(func(n *regex.Node) bool {
		if n.Kind() == regex.Class && n.Set().IsEmpty() {
			found = true
		}
		return !found
	})
	if !found {
		return nil
	}

	return []Issue{
		{
			File:     path,
			Pos:      pos,
			Severity: SeverityWarning,
			Code:     CodeEmptyClass,
			Message:  fmt.Sprintf("token %q contains a character class that matches nothing", def.Class),
		},
	}
}

// lintShadowedTokens reports tokens that no reachable state accepts. The
// start state is skipped because the scanner never emits empty tokens.
func lintShadowedTokens(file *grammar.File, path string, defs []automaton.TokenDefinition, table *automaton.Table, mode ShadowMode) []Issue {
	if mode == ShadowIgnore {
		return nil
	}

	accepted := make(map[string]struct{})
	for _, state := range table.States[1:] {
		if state.Accepting() {
			accepted[state.Accept] = struct{}{}
		}
	}

	severity := SeverityWarning
	if mode == ShadowError {
		severity = SeverityError
	}

	var issues []Issue
	for _, def := range defs {
		if _, ok := accepted[def.Class]; ok {
			continue
		}
		issues = append(issues, Issue{
			File:     path,
			Pos:      positionOf(file, def.Class),
			Severity: severity,
			Code:     CodeShadowedToken,
			Message:  fmt.Sprintf("token %q can never be emitted; earlier tokens match everything it matches", def.Class),
		})
	}
	return issues
}

func normalizeShadowMode(mode ShadowMode) ShadowMode {
	switch mode {
	case ShadowIgnore, ShadowWarn, ShadowError:
		return mode
	default:
		return ShadowWarn
	}
}

// HasErrors reports whether issues should fail a check. With failOnWarn
// any issue counts.
func HasErrors(issues []Issue, failOnWarn bool) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError || failOnWarn {
			return true
		}
	}
	return false
}
