package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lexgen/lexgen/automaton"
	"github.com/lexgen/lexgen/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGrammar(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCheckCollectsIssues(t *testing.T) {
	good := writeGrammar(t, "good.lex", calcGrammar)
	shadowed := writeGrammar(t, "shadow.lex", "word => [a-z]+ ;\nkw => \"if\" ;\n")
	broken := writeGrammar(t, "broken.lex", "a => missing ;\nb => [a] ;\nb => [b] ;\n")

	issues := runCheck(context.Background(), newCompiler(), []string{good}, lint.DefaultOptions())
	assert.Empty(t, issues)

	issues = runCheck(context.Background(), newCompiler(), []string{shadowed}, lint.DefaultOptions())
	require.Len(t, issues, 1)
	assert.Equal(t, lint.CodeShadowedToken, issues[0].Code)
	assert.False(t, lint.HasErrors(issues, false))

	issues = runCheck(context.Background(), newCompiler(), []string{broken}, lint.DefaultOptions())
	codes := make([]string, 0, len(issues))
	for _, issue := range issues {
		codes = append(codes, issue.Code)
	}
	assert.Equal(t, []string{"resolve", "resolve"}, codes)
	assert.True(t, lint.HasErrors(issues, false))
}

func TestIssuesFromParseError(t *testing.T) {
	_, err := newCompiler().ParseBytes("bad.lex", []byte("a => ;"))
	require.Error(t, err)

	issues := issuesFromError("bad.lex", err)
	require.Len(t, issues, 1)
	assert.Equal(t, "parse", issues[0].Code)
	assert.Equal(t, 1, issues[0].Pos.Line)

	issues = issuesFromError("x.lex", errors.New("boom"))
	assert.Equal(t, 0, issues[0].Pos.Line)
}

func TestFormatIssuesText(t *testing.T) {
	text := formatIssuesText([]lint.Issue{
		{File: "b.lex", Severity: "warning", Code: "unused-fragment", Message: "later"},
		{File: "a.lex", Severity: "error", Code: "resolve", Message: "first"},
	})
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "a.lex:1:1 error [resolve] first", lines[0])
}

func TestLoadTableFromGrammarAndDocument(t *testing.T) {
	ctx := context.Background()
	store, err := openStore()
	require.NoError(t, err)
	defer store.Close()

	path := writeGrammar(t, "calc.lex", calcGrammar)
	first, err := loadTable(ctx, newCompiler(), store, path)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := loadTable(ctx, newCompiler(), store, path)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.True(t, first.Table.Equivalent(second.Table))

	var buf strings.Builder
	require.NoError(t, automaton.Encode(&buf, first.Document, "yaml"))
	exported := writeGrammar(t, "calc.yaml", buf.String())
	fromFile, err := loadTable(ctx, newCompiler(), nil, exported)
	require.NoError(t, err)
	assert.True(t, first.Table.Equivalent(fromFile.Table))
}

func TestRenderTableDOT(t *testing.T) {
	loaded, err := compileSource(context.Background(), newCompiler(), nil, "calc.lex", []byte(calcGrammar))
	require.NoError(t, err)

	dot := renderTableDOT(loaded.Table)
	assert.True(t, strings.HasPrefix(dot, "digraph table {"))
	assert.Contains(t, dot, "doublecircle")
	assert.Contains(t, dot, "s0 -> s")
}
