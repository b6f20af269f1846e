package scanner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/lexgen/lexgen/automaton"
	"github.com/lexgen/lexgen/charset"
	"github.com/lexgen/lexgen/regex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, build func(p *regex.Pool) []automaton.TokenDefinition) *automaton.Table {
	t.Helper()
	table, err := automaton.Compile(context.Background(), build(regex.NewPool()))
	require.NoError(t, err)
	return table
}

func calculatorTable(t *testing.T) *automaton.Table {
	return compile(t, func(p *regex.Pool) []automaton.TokenDefinition {
		digit := p.Class(charset.Of(charset.MustRange('0', '9')))
		return []automaton.TokenDefinition{
			{Class: "Number", Order: 0, Regex: p.OneOrMore(digit)},
			{Class: "Plus", Order: 1, Regex: p.Literal("+")},
			{Class: "ws", Order: 2, Regex: p.OneOrMore(p.Class(charset.OfScalars(' ', '\n')))},
		}
	})
}

func classes(tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Class)
	}
	return out
}

func TestScanLongestMatch(t *testing.T) {
	table := compile(t, func(p *regex.Pool) []automaton.TokenDefinition {
		return []automaton.TokenDefinition{
			{Class: "identifier", Order: 0, Regex: p.OneOrMore(p.Class(charset.Of(charset.MustRange('a', 'z'))))},
			{Class: "keyword", Order: 1, Regex: p.Literal("if")},
		}
	})

	tokens := Scan(table, []rune("iffy"))
	require.Len(t, tokens, 1)
	assert.Equal(t, "identifier", tokens[0].Class)
	assert.Equal(t, "iffy", tokens[0].Text)
}

func TestScanPrefersKeywordDeclaredFirst(t *testing.T) {
	table := compile(t, func(p *regex.Pool) []automaton.TokenDefinition {
		return []automaton.TokenDefinition{
			{Class: "keyword", Order: 0, Regex: p.Literal("if")},
			{Class: "identifier", Order: 1, Regex: p.OneOrMore(p.Class(charset.Of(charset.MustRange('a', 'z'))))},
			{Class: "ws", Order: 2, Regex: p.Literal(" ")},
		}
	})

	tokens := ScanString(table, "", "if iffy")
	assert.Equal(t, []string{"keyword", "ws", "identifier"}, classes(tokens))
}

func TestScanPriorityTieBreak(t *testing.T) {
	table := compile(t, func(p *regex.Pool) []automaton.TokenDefinition {
		return []automaton.TokenDefinition{
			{Class: "a", Order: 0, Regex: p.Literal("foo")},
			{Class: "b", Order: 1, Regex: p.Literal("foo")},
		}
	})

	tokens := Scan(table, []rune("foo"))
	require.Len(t, tokens, 1)
	assert.Equal(t, "a", tokens[0].Class)
}

func TestScanErrorRecovery(t *testing.T) {
	table := compile(t, func(p *regex.Pool) []automaton.TokenDefinition {
		return []automaton.TokenDefinition{
			{Class: "word", Order: 0, Regex: p.OneOrMore(p.Class(charset.Of(charset.MustRange('a', 'z'))))},
		}
	})

	tokens := Scan(table, []rune("ab$cd"))
	require.Len(t, tokens, 3)
	assert.Equal(t, Token{Text: "ab", Class: "word", Pos: tokens[0].Pos}, tokens[0])
	assert.True(t, tokens[1].IsError())
	assert.Equal(t, "$", tokens[1].Text)
	assert.Equal(t, 2, tokens[1].Pos.Offset)
	assert.Equal(t, "cd", tokens[2].Text)
	assert.Len(t, Errors(tokens), 1)
}

func TestScanErrorSpansConsumedScalars(t *testing.T) {
	table := compile(t, func(p *regex.Pool) []automaton.TokenDefinition {
		return []automaton.TokenDefinition{{Class: "abc", Order: 0, Regex: p.Literal("abc")}}
	})

	tokens := Scan(table, []rune("abdabc"))
	require.Len(t, tokens, 3)
	assert.Equal(t, "ab", tokens[0].Text)
	assert.True(t, tokens[0].IsError())
	assert.Equal(t, "d", tokens[1].Text)
	assert.True(t, tokens[1].IsError())
	assert.Equal(t, "abc", tokens[2].Class)
}

func TestScanBacktracksToLastAccept(t *testing.T) {
	table := compile(t, func(p *regex.Pool) []automaton.TokenDefinition {
		digit := p.Class(charset.Of(charset.MustRange('0', '9')))
		return []automaton.TokenDefinition{
			{Class: "number", Order: 0, Regex: p.Concat(p.OneOrMore(digit), p.Optional(p.Concat(p.Literal("."), p.OneOrMore(digit))))},
		}
	})

	tokens := Scan(table, []rune("12.x"))
	assert.Equal(t, []string{"12", ".", "x"}, []string{tokens[0].Text, tokens[1].Text, tokens[2].Text})
	assert.Equal(t, []string{"number", "", ""}, classes(tokens))
}

func TestScanTotalConsumption(t *testing.T) {
	table := calculatorTable(t)
	inputs := []string{
		"",
		"1 + 2",
		"12+\n+ 3",
		"héllo wörld 42",
		"++ 7 ??? 8\n\n",
		"🙂1🙂",
	}
	for _, input := range inputs {
		tokens := Scan(table, []rune(input))
		assert.Equal(t, input, Text(tokens), "input %q", input)
	}
}

func TestScanPositions(t *testing.T) {
	table := calculatorTable(t)
	tokens := ScanString(table, "calc.txt", "1 +\n  22")

	require.Equal(t, []string{"Number", "ws", "Plus", "ws", "Number"}, classes(tokens))
	last := tokens[4]
	assert.Equal(t, "calc.txt", last.Pos.Filename)
	assert.Equal(t, 2, last.Pos.Line)
	assert.Equal(t, 3, last.Pos.Column)
	assert.Equal(t, 6, last.Pos.Offset)
}

func TestFilter(t *testing.T) {
	table := calculatorTable(t)
	tokens := Scan(table, []rune("1 + 2 ?"))

	filter, err := NewFilter(`class != "ws" && !error`)
	require.NoError(t, err)
	kept, err := filter.Apply(tokens)
	require.NoError(t, err)
	assert.Equal(t, []string{"Number", "Plus", "Number"}, classes(kept))

	onlyErrors, err := NewFilter(`error && column > 6`)
	require.NoError(t, err)
	kept, err = onlyErrors.Apply(tokens)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "?", kept[0].Text)

	var none *Filter
	kept, err = none.Apply(tokens)
	require.NoError(t, err)
	assert.Len(t, kept, len(tokens))
}

func TestFilterRejectsBadExpressions(t *testing.T) {
	_, err := NewFilter(`1 + 2`)
	assert.Error(t, err)

	_, err = NewFilter(`class ==`)
	assert.Error(t, err)
}

type sum struct {
	First string   `@Number`
	Rest  []string `( Plus @Number )*`
}

func TestDefinitionDrivesParticiple(t *testing.T) {
	def := NewDefinition(calculatorTable(t))
	parser, err := participle.Build[sum](participle.Lexer(def), participle.Elide("ws"))
	require.NoError(t, err)

	got, err := parser.ParseString("sum.txt", "1 + 22 +\n3")
	require.NoError(t, err)
	assert.Equal(t, "1", got.First)
	assert.Equal(t, []string{"22", "3"}, got.Rest)

	_, err = parser.ParseString("sum.txt", "1 + x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input")

	var perr participle.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, `invalid input "x"`, perr.Message())
	assert.Equal(t, "sum.txt", perr.Position().Filename)
	assert.Equal(t, 1, perr.Position().Line)
	assert.Equal(t, 5, perr.Position().Column)
}

func TestDefinitionReportsUnmatchedInput(t *testing.T) {
	def := NewDefinition(calculatorTable(t))
	lex, err := def.Lex("in.txt", strings.NewReader("12?"))
	require.NoError(t, err)

	tok, err := lex.Next()
	require.NoError(t, err)
	assert.Equal(t, "12", tok.Value)
	assert.Equal(t, def.Symbols()["Number"], tok.Type)

	_, err = lex.Next()
	var lerr *lexer.Error
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, 3, lerr.Pos.Column)
	assert.Equal(t, 2, lerr.Pos.Offset)

	tok, err = lex.Next()
	require.NoError(t, err)
	assert.True(t, tok.EOF())
}

func TestScanStringKeepsInvalidUTF8(t *testing.T) {
	table := compile(t, func(p *regex.Pool) []automaton.TokenDefinition {
		return []automaton.TokenDefinition{
			{Class: "a", Order: 0, Regex: p.OneOrMore(p.Literal("a"))},
			{Class: "other", Order: 1, Regex: p.Literal("\uFFFD")},
		}
	})

	for _, input := range []string{"a\xffa", "\xff\xfe", "aa\xe2\x82", "\uFFFDa\xff"} {
		tokens := ScanString(table, "", input)
		assert.Equal(t, input, Text(tokens), "input %q", input)
	}

	tokens := ScanString(table, "", "a\xffa")
	require.Len(t, tokens, 3)
	assert.Equal(t, []string{"a", "", "a"}, classes(tokens))
	assert.Equal(t, "\xff", tokens[1].Text)
	assert.Equal(t, 1, tokens[1].Pos.Offset)
	assert.Equal(t, 2, tokens[2].Pos.Offset)
	assert.Equal(t, 3, tokens[2].Pos.Column)

	// A genuine U+FFFD is an ordinary scalar.
	tokens = ScanString(table, "", "\uFFFDa")
	assert.Equal(t, []string{"other", "a"}, classes(tokens))
}
