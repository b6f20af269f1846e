package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lexgen/lexgen/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	configPath string
	settings   = config.Defaults()
	logger     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "lexgen",
	Short: "Generate longest-match lexers from token grammars",
	Long: `lexgen compiles a token grammar into a deterministic transition table
and scans input with it.

Examples:
  # Build a table and write it as JSON
  lexgen build tokens.lex --output tokens.json

  # Scan a file, dropping whitespace
  lexgen scan tokens.lex input.txt --where 'class != "ws"'

  # Lint a grammar
  lexgen check tokens.lex --fail-on-warn`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := config.Apply(cfg, &settings, changedFlags(cmd)); err != nil {
				return fmt.Errorf("config %s: %w", configPath, err)
			}
		}

		l, err := settings.Logger()
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	flags.BoolVarP(&settings.Verbose, "verbose", "v", false, "Show detailed output")
	flags.StringVar(&settings.LogLevel, "log-level", settings.LogLevel, "Log level: debug, info, warn, error")
	flags.IntVar(&settings.MaxStates, "max-states", settings.MaxStates, "Maximum number of states a table may have")
	flags.IntVar(&settings.Workers, "workers", settings.Workers, "Concurrent state expansions (0 uses GOMAXPROCS)")
	flags.StringVar(&settings.CacheBackend, "cache", settings.CacheBackend, "Table cache backend: memory, dir, redis")
	flags.StringVar(&settings.CacheDir, "cache-dir", settings.CacheDir, "Directory for the dir cache backend")
	flags.StringVar(&settings.RedisAddr, "redis-addr", settings.RedisAddr, "Address for the redis cache backend")
	flags.DurationVar(&settings.RedisTTL, "redis-ttl", settings.RedisTTL, "Expiry for cached tables in redis (0 keeps them)")
	flags.IntVar(&settings.CacheSize, "cache-size", settings.CacheSize, "Entries kept by the memory cache backend")

	rootCmd.AddCommand(buildCmd, scanCmd, checkCmd, graphCmd, dumpCmd, inspectCmd, watchCmd, serveCmd)
}

// changedFlags lists the flags set explicitly on the command line.
func changedFlags(cmd *cobra.Command) map[string]bool {
	set := make(map[string]bool)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		set[f.Name] = true
	})
	return set
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
