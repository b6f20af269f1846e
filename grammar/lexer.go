package grammar

import "github.com/alecthomas/participle/v2/lexer"

// Lexer defines the token rules for grammar files.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Comment", Pattern: `//[^\n]*|#[^\n]*`, Action: nil},
		{Name: "Whitespace", Pattern: `\s+`, Action: nil},
		{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`, Action: nil},
		{Name: "Class", Pattern: `\[(?:\\.|[^\]\\])*\]`, Action: nil},
		{Name: "Arrow", Pattern: `=>`, Action: nil},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`, Action: nil},
		{Name: "Minus", Pattern: `\\`, Action: nil},
		{Name: "Punct", Pattern: `[=;|*+?().^$]`, Action: nil},
	},
})
