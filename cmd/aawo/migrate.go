package main

import (
	"github.com/spf13/cobra"

	"github.com/aawohq/aawo/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		return app.Migrate(cmd.Context(), cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
