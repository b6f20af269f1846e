package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lexgen/lexgen/automaton"
	"github.com/lexgen/lexgen/compiler"
	"github.com/lexgen/lexgen/lint"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkCmd = &cobra.Command{
	Use:   "check <grammar>...",
	Short: "Parse, resolve, and lint grammar files",
	Long: `Parse, resolve, and lint grammar files.

Reported problems: tokens that can never be emitted because earlier tokens
match everything they match, tokens that match the empty string, unused
fragments, and character classes that match nothing.

Examples:
  lexgen check tokens.lex
  lexgen check *.lex --shadow error --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		failOnWarn, _ := cmd.Flags().GetBool("fail-on-warn")
		shadow, _ := cmd.Flags().GetString("shadow")

		mode, err := lint.ParseShadowMode(shadow)
		if err != nil {
			return err
		}

		issues := runCheck(cmd.Context(), newCompiler(), args, lint.LintOptions{ShadowMode: mode})

		switch strings.ToLower(format) {
		case "json":
			encoded, err := json.MarshalIndent(issues, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding issues: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		case "text":
			if len(issues) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatIssuesText(issues))
			}
		default:
			return fmt.Errorf("unsupported format: %s", format)
		}

		if lint.HasErrors(issues, failOnWarn) {
			return fmt.Errorf("check failed")
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().String("format", "text", "Output format: text or json")
	checkCmd.Flags().Bool("fail-on-warn", false, "Return non-zero exit code when warnings are present")
	checkCmd.Flags().String("shadow", "warn", "Shadowed token policy: warn, error, ignore")
}

func runCheck(ctx context.Context, comp *compiler.Compiler, files []string, options lint.LintOptions) []lint.Issue {
	issues := make([]lint.Issue, 0)

	for _, filename := range files {
		logger.Debug("checking grammar", zap.String("file", filename))

		parsed, err := comp.ParseFile(filename)
		if err != nil {
			issues = append(issues, issuesFromError(filename, err)...)
			continue
		}

		defs, err := comp.Resolve(parsed)
		if err != nil {
			issues = append(issues, issuesFromError(filename, err)...)
			issues = append(issues, lint.LintFileWithOptions(parsed, filename, nil, nil, options)...)
			continue
		}

		var table *automaton.Table
		if result, err := comp.Build(ctx, parsed, defs); err != nil {
			issues = append(issues, lint.Issue{
				File:     filename,
				Pos:      parsed.Pos,
				Severity: lint.SeverityError,
				Code:     "build",
				Message:  err.Error(),
			})
		} else {
			table = result.Table
		}

		issues = append(issues, lint.LintFileWithOptions(parsed, filename, defs, table, options)...)
	}

	return issues
}
