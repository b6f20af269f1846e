package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lexgen/lexgen/scanner"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <grammar|table> [input]",
	Short: "Tokenize input with a grammar or an exported table",
	Long: `Tokenize input by longest match. Input is read from the named file, or
from stdin when omitted.

--where keeps only tokens for which an expression holds. The expression
sees class, text, line, column, offset and error.

Examples:
  lexgen scan tokens.lex program.txt
  lexgen scan tokens.json program.txt --where 'class != "ws"' --format json
  echo 'x = 1' | lexgen scan tokens.lex --where 'error'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		where, _ := cmd.Flags().GetString("where")
		format, _ := cmd.Flags().GetString("format")
		failOnError, _ := cmd.Flags().GetBool("fail-on-error")

		var filter *scanner.Filter
		if strings.TrimSpace(where) != "" {
			f, err := scanner.NewFilter(where)
			if err != nil {
				return err
			}
			filter = f
		}

		loaded, err := loadTable(cmd.Context(), newCompiler(), nil, args[0])
		if err != nil {
			return err
		}

		name := "<stdin>"
		var input []byte
		if len(args) == 2 {
			name = args[1]
			input, err = os.ReadFile(name)
		} else {
			input, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		tokens := scanner.ScanString(loaded.Table, name, string(input))
		errorCount := len(scanner.Errors(tokens))
		tokens, err = filter.Apply(tokens)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch strings.ToLower(format) {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(tokens); err != nil {
				return fmt.Errorf("encoding tokens: %w", err)
			}
		case "text":
			for _, tok := range tokens {
				fmt.Fprintln(out, tok.String())
			}
		default:
			return fmt.Errorf("unsupported format: %s", format)
		}

		if failOnError && errorCount > 0 {
			return fmt.Errorf("%d error token(s)", errorCount)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().String("where", "", "Keep only tokens matching this expression")
	scanCmd.Flags().String("format", "text", "Output format: text or json")
	scanCmd.Flags().Bool("fail-on-error", false, "Exit non-zero when any input could not be matched")
}
