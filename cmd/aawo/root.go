package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aawohq/aawo/pkg/config"
	"github.com/aawohq/aawo/pkg/observability"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "aawo",
	Short: "aawo - personal work orchestrator",
	Long: `aawo keeps one person's tasks, calendar blocks and meetings in a
single local-first system: it extracts action items from meeting
notes, proposes schedules, mirrors committed blocks to Outlook and
answers chat commands in Korean.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the environment and builds the process logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logCfg := observability.DefaultLogConfig()
	if cfg.IsProduction() {
		logCfg = observability.ProductionLogConfig()
	}
	logCfg.Level = observability.LogLevel(cfg.LogLevel)
	if verbose {
		logCfg.Level = observability.LogLevelDebug
	}
	return cfg, observability.NewLogger(logCfg), nil
}
