package main

import (
	"fmt"

	"github.com/godfrey-tankan/document-insight-view/internal/config"
	"github.com/godfrey-tankan/document-insight-view/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.DatabaseURL == memoryDatabaseURL {
			cmd.Println("In-memory store needs no migrations.")
			return nil
		}

		database, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		if err := db.RunMigrations(database); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		cmd.Printf("Migrations applied (%s)\n", db.DriverFor(cfg.DatabaseURL))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
