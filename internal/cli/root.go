// Package cli implements threadctl, the operator command line: catalog sync
// with checkpoints and watch mode, ad-hoc search and inventory inspection.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/threadress/internal/app"
	"github.com/kailas-cloud/threadress/internal/config"
	logpkg "github.com/kailas-cloud/threadress/internal/logger"
)

var (
	envName    string
	dotenvFile string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "threadctl",
	Short: "Operate a threadress inventory: sync catalogs, search, inspect items",
	Long: `threadctl talks to the same database and embedding backends as the
threadress API server, using the same config/<env>.yaml.

Example usage:
  threadctl sync 'catalog/**/*.json'        # Index catalog exports
  threadctl sync --watch 'catalog/**/*.json' # Re-index on every save
  threadctl search "black silk dress" -k 5  # Query the pipeline
  threadctl inventory list --limit 50       # Page through the index`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}

		if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenvFile, err)
		}
		if envName == "" {
			envName = config.GetEnv()
		}

		var err error
		cfg, err = config.Load(envName)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logpkg.NewLogger(envName, level)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs threadctl and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envName, "env", "e", "", "config environment: local, dev, prod (default is $ENV or local)")
	rootCmd.PersistentFlags().StringVar(&dotenvFile, "dotenv", ".env", "dotenv file with secrets, ignored when missing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// openApp wires the services from the loaded config.
func openApp(cmd *cobra.Command) (*app.App, error) {
	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return a, nil
}
