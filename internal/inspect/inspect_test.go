package inspect

import (
	"bytes"
	"context"
	"testing"

	"github.com/lexgen/lexgen/automaton"
	"github.com/lexgen/lexgen/charset"
	"github.com/lexgen/lexgen/regex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportedTable(t *testing.T) []byte {
	t.Helper()
	pool := regex.NewPool()
	table, err := automaton.Compile(context.Background(), []automaton.TokenDefinition{
		{Class: "kw", Order: 0, Regex: pool.Literal("if")},
		{Class: "ident", Order: 1, Regex: pool.OneOrMore(pool.Class(charset.Of(charset.MustRange('a', 'z'))))},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	doc := table.Document(automaton.Metadata{Grammar: "kw.lex"})
	require.NoError(t, automaton.Encode(&buf, doc, "json"))
	return buf.Bytes()
}

func TestSummarize(t *testing.T) {
	data := exportedTable(t)

	summary, err := Summarize(data)
	require.NoError(t, err)

	// States: start, "i", "if", and any other identifier prefix.
	assert.Equal(t, "kw.lex", summary.Grammar)
	assert.Equal(t, []string{"kw", "ident"}, summary.Classes)
	assert.Equal(t, 4, summary.States)
	assert.Equal(t, 3, summary.Accepting)
	assert.NotZero(t, summary.Ranges)
	assert.NotZero(t, summary.Transitions)
	assert.NotEmpty(t, summary.ID)
}

func TestQuery(t *testing.T) {
	data := exportedTable(t)

	value, ok, err := Query(data, "classes.1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ident", value)

	value, ok, err = Query(data, "states.0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"id": int64(0)}, value)

	_, ok, err = Query(data, "no.such.path")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidJSON(t *testing.T) {
	_, _, err := Query([]byte("{"), "id")
	assert.ErrorIs(t, err, ErrInvalidJSON)

	_, err = Summarize([]byte("nope"))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}
