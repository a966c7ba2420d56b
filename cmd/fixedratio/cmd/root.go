package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/davincilabs/fixedratio/internal/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fixedratio",
	Short: "Fixed-ratio trading core host CLI",
	Long: `fixedratio hosts the fixed-ratio trading core outside the chain.

It provides commands for:
- Deriving program addresses (pools, vaults, LP mints, treasury)
- Replaying instruction scenarios against an in-memory ledger
- Inspecting contract and schema versions`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fixedratio.yaml)")
}

// loadConfig loads the effective configuration for a subcommand.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger builds a slog logger matching the configured level and format.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
