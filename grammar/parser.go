package grammar

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
)

// NewParser builds a participle parser for grammar files.
func NewParser() (*participle.Parser[File], error) {
	return participle.Build[File](
		participle.Lexer(Lexer),
		participle.UseLookahead(2),
		participle.Elide("Whitespace", "Comment"),
	)
}

var defaultParser = mustParser()

func mustParser() *participle.Parser[File] {
	parser, err := NewParser()
	if err != nil {
		panic(fmt.Errorf("failed to create grammar parser: %w", err))
	}
	return parser
}

// ParseBytes parses a grammar held in memory.
func ParseBytes(filename string, data []byte) (*File, error) {
	file, err := defaultParser.ParseBytes(filename, data)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return file, nil
}

// ParseString parses a grammar held in a string.
func ParseString(filename, source string) (*File, error) {
	return ParseBytes(filename, []byte(source))
}
