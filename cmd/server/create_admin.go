package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/efarm/internal/database"
	"github.com/iliyamo/efarm/internal/model"
	"github.com/iliyamo/efarm/internal/repository"
	"github.com/iliyamo/efarm/internal/utils"
)

// Registration only ever creates user-role profiles, so the first admin
// has to be bootstrapped from the command line.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin profile, or promote an existing one",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		name, _ := cmd.Flags().GetString("name")
		if email == "" {
			return errors.New("--email is required")
		}

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

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		users := repository.NewUserRepo(db)

		existing, err := users.GetByEmail(ctx, email)
		switch {
		case err == nil:
			if err := users.UpdateRole(ctx, existing.ID, model.RoleAdmin); err != nil {
				return err
			}
			fmt.Printf("promoted %s to admin\n", existing.Email)
			return nil
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		if password == "" {
			return errors.New("--password is required for a new profile")
		}
		hash, err := utils.HashPassword(password, cfg.BcryptCost)
		if err != nil {
			return fmt.Errorf("--password: %w", err)
		}
		p := &model.Profile{Email: email, Role: model.RoleAdmin, PasswordHash: hash}
		if name != "" {
			p.FullName = &name
		}
		if err := users.Create(ctx, p); err != nil {
			return err
		}
		fmt.Printf("created admin %s (%s)\n", p.Email, p.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().String("email", "", "admin email")
	createAdminCmd.Flags().String("password", "", "password for a new profile")
	createAdminCmd.Flags().String("name", "", "full name")
	rootCmd.AddCommand(createAdminCmd)
}
