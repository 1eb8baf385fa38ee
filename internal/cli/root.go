// Package cli implements the tabsift command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tsawler/tabsift/config"
)

// settings holds what the persistent flags resolved to. It is filled in
// before any subcommand runs.
var settings struct {
	cfg    config.Config
	logger *slog.Logger
}

var rootCmd = &cobra.Command{
	Use:   "tabsift",
	Short: "Validate, classify and clean extracted tables",
	Long: `tabsift filters table grids pulled out of documents, keeps the ones
that look like real tables, classifies their columns and rows, and cleans
numeric columns into typed values.

Examples:
  tabsift classify report.xlsx
  tabsift classify page.html tables.json --format json --summary
  tabsift serve --addr :8080 --db tables.db`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML config file (default: built-in thresholds)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// Execute runs the command line with the process arguments.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	levelName, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return fmt.Errorf("invalid log level %q", levelName)
	}
	settings.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	settings.cfg = config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		settings.cfg = cfg
		settings.logger.Debug("config loaded", "path", path)
	}
	return nil
}
