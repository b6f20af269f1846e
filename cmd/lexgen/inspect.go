package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lexgen/lexgen/internal/inspect"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <table.json>",
	Short: "Summarize or query an exported JSON table",
	Long: `Summarize an exported JSON table, or with --query extract part of it
using a gjson path.

Examples:
  lexgen inspect tokens.json
  lexgen inspect tokens.json --query 'states.#(accept=="number")#.id'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		var payload interface{}
		if query != "" {
			value, ok, err := inspect.Query(data, query)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if !ok {
				return fmt.Errorf("%s: no match for %q", args[0], query)
			}
			payload = value
		} else {
			summary, err := inspect.Summarize(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			payload = summary
		}

		encoded, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return nil
	},
}

func init() {
	inspectCmd.Flags().String("query", "", "gjson path to extract")
}
