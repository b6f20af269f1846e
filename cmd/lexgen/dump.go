package main

import (
	"fmt"

	"github.com/lexgen/lexgen/grammar"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <grammar>",
	Short: "Print an outline of a parsed grammar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parsed, err := newCompiler().ParseFile(args[0])
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}
		grammar.NewDumper(cmd.OutOrStdout()).DumpFile(parsed)
		return nil
	},
}
