package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve scanning and table compilation over HTTP",
	Long: `Serve scanning and table compilation over HTTP.

Endpoints:
  GET  /healthz                    liveness
  GET  /readyz                     ready once --grammar is loaded
  GET  /api/table                  the table built from --grammar
  POST /api/scan                   {"text": "...", "where": "..."} against that table
  POST /api/tables                 {"name": "...", "source": "..."} compiles and caches a grammar
  GET  /api/tables/:digest         a cached table
  POST /api/tables/:digest/scan    scan against a cached table
  GET  /metrics                    Prometheus metrics

Examples:
  lexgen serve --grammar tokens.lex --addr :8080 --watch
  lexgen serve --cache redis --redis-addr localhost:6379`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		ctx := cmd.Context()

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		state := newServerState(newCompiler(), store)

		if settings.Grammar != "" {
			loaded, err := loadTable(ctx, state.comp, store, settings.Grammar)
			if err != nil {
				return err
			}
			state.SetTable(loaded)
			logger.Info("table loaded",
				zap.String("grammar", settings.Grammar),
				zap.String("digest", loaded.Document.Digest),
				zap.Int("states", len(loaded.Table.States)))
		} else if watch {
			return fmt.Errorf("--watch needs --grammar")
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return startHTTPServer(ctx, settings.Addr, state)
		})
		if watch && !isTableFile(settings.Grammar) {
			w := &grammarWatcher{
				path:    settings.Grammar,
				comp:    state.comp,
				store:   store,
				out:     os.Stderr,
				onBuilt: state.SetTable,
			}
			g.Go(func() error {
				return w.run(ctx)
			})
		}
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&settings.Addr, "addr", settings.Addr, "HTTP listen address")
	serveCmd.Flags().StringVar(&settings.Grammar, "grammar", settings.Grammar, "Grammar or exported table to serve at /api/scan")
	serveCmd.Flags().Bool("watch", false, "Reload the grammar when it changes")
}
