package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/efarm/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the storefront tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		user, pass := cfg.AdminCredentials()
		db, err := database.Open(user, pass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		fmt.Println("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
