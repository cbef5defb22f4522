package commands

import (
	"context"
	"fmt"
	"os"

	"soldera/internal/config"
	"soldera/internal/repo"
	"soldera/internal/services"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const defaultConfigPath = "secrets.json"

var configPath *string

func init() {
	fallback := os.Getenv("CONFIG_PATH")
	if fallback == "" {
		fallback = defaultConfigPath
	}
	configPath = rootCmd.PersistentFlags().String("config", fallback, "Path to the JSON config file.")
}

var rootCmd = &cobra.Command{
	Use:           "soldera-cli",
	Short:         "soldera-cli imports and fetches EEX auction results outside the API server.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type environment struct {
	cfg     config.Config
	db      *gorm.DB
	logs    *services.LogService
	results *services.ResultService
}

func (e *environment) Close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// openEnvironment loads the config and opens a migrated database.
func openEnvironment() (*environment, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	db, err := repo.Connect(cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	env := &environment{cfg: cfg, db: db}
	if err := repo.Migrate(db); err != nil {
		env.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	if env.logs, err = services.NewLogService(db); err != nil {
		env.Close()
		return nil, err
	}
	if env.results, err = services.NewResultService(db); err != nil {
		env.Close()
		return nil, err
	}

	return env, nil
}
