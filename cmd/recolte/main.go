// Command recolte harvests social platform listings into an SQLite record
// store, scores them, and serves the result over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/recolte/collect"
	"github.com/hazyhaar/recolte/record"
)

var (
	flagConfig   string
	flagDB       string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "recolte",
	Short: "Harvest, score, and browse social content records",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(flagLogLevel)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "recolte.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "record database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "debug, info, warn, or error")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}

// loadConfig reads the config file and applies the --db override.
func loadConfig() (*collect.Config, error) {
	cfg, err := collect.LoadConfig(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	return cfg, nil
}

// openStore loads the config and opens the record store at its DB path.
func openStore() (*record.Store, *collect.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := record.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}
