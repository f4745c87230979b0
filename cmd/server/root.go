package main

import (
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iliyamo/efarm/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "efarm",
	Short: "eFarm storefront server",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Overload(); err != nil {
			log.Println("Error loading .env file, skipping")
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalln(err.Error())
	}
}

// loadConfig reads the configuration and installs the default slog
// logger: JSON in production, text elsewhere.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Production() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h).With("env", cfg.Env))
	return cfg, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
