package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lexgen/lexgen/automaton"
	"github.com/lexgen/lexgen/compiler"
	"github.com/lexgen/lexgen/lint"
	"github.com/lexgen/lexgen/tablestore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const watchDebounce = 150 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <grammar>",
	Short: "Rebuild a table whenever its grammar changes",
	Long: `Watch a grammar file, lint it and rebuild its table on every change.

Examples:
  lexgen watch tokens.lex --output tokens.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		w := &grammarWatcher{
			path:   args[0],
			output: output,
			comp:   newCompiler(),
			store:  store,
			out:    cmd.OutOrStdout(),
		}
		return w.run(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().StringP("output", "o", "", "Table output file; the table is only checked when empty")
}

type grammarWatcher struct {
	path   string
	output string
	comp   *compiler.Compiler
	store  tablestore.Store
	out    io.Writer

	// onBuilt, when set, receives every successfully built table.
	onBuilt func(*loadedTable)
}

func (g *grammarWatcher) run(ctx context.Context) error {
	path, err := filepath.Abs(g.path)
	if err != nil {
		return err
	}
	g.path = path

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace files by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(g.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(g.path), err)
	}
	logger.Info("watching grammar", zap.String("path", g.path))

	g.rebuild(ctx)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != g.path {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			g.rebuild(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (g *grammarWatcher) rebuild(ctx context.Context) {
	issues := runCheck(ctx, g.comp, []string{g.path}, lint.DefaultOptions())
	if len(issues) > 0 {
		fmt.Fprintln(g.out, formatIssuesText(issues))
	}
	if lint.HasErrors(issues, false) {
		return
	}
	if g.output == "" && g.onBuilt == nil {
		fmt.Fprintf(g.out, "%s: ok\n", filepath.Base(g.path))
		return
	}

	loaded, err := loadTable(ctx, g.comp, g.store, g.path)
	if err != nil {
		logger.Error("rebuild failed", zap.String("path", g.path), zap.Error(err))
		return
	}
	if g.onBuilt != nil {
		g.onBuilt(loaded)
	}
	if g.output == "" {
		return
	}
	var buf bytes.Buffer
	if err := automaton.Encode(&buf, loaded.Document, automaton.FormatFromPath(g.output)); err != nil {
		logger.Error("encoding table failed", zap.Error(err))
		return
	}
	if err := outputBytes(buf.Bytes(), g.output); err != nil {
		logger.Error("writing table failed", zap.String("output", g.output), zap.Error(err))
		return
	}
	fmt.Fprintf(g.out, "%s: wrote %s (%d states)\n", filepath.Base(g.path), g.output, len(loaded.Table.States))
}
