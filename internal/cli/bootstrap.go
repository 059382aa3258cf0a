package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/UserUpload/internal/config"
	"github.com/JonMunkholm/UserUpload/internal/core"
	"github.com/JonMunkholm/UserUpload/internal/database"
	"github.com/JonMunkholm/UserUpload/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// loadConfig reads .env, the config file and the environment, then sets up logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			// Overload overwrites existing env vars
			if err := godotenv.Overload(envFile); err != nil {
				return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidConfig, envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	level := cfg.Logging.Level
	if getVerboseFlag(cmd) {
		level = "debug"
	}
	logging.Setup(level, cfg.Logging.Format, cmd.ErrOrStderr())

	slog.Debug("configuration loaded", "config", cfg.String())
	return cfg, nil
}

// openPool creates the process-wide connection pool.
func openPool(ctx context.Context, cfg *config.Config) (*database.Pool, error) {
	pool, err := database.NewPool(ctx, database.PoolConfig{
		Name:           cfg.Database.PoolName,
		DSN:            cfg.Database.DSN(),
		MaxSize:        cfg.Database.PoolSize,
		AcquireTimeout: cfg.Database.AcquireTimeout,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("connected to database",
		"name", cfg.Database.DatabaseName(),
		"pool", cfg.Database.PoolName,
		"pool_size", cfg.Database.PoolSize,
	)
	return pool, nil
}

// newIngestor wires the ingestion pipeline from configuration.
func newIngestor(cfg *config.Config, inserter core.BatchInserter, opts ...core.IngestorOption) *core.Ingestor {
	validator := core.NewValidator(
		core.WithMaxFieldLength(cfg.Validation.MaxFieldLength),
		core.WithAgeRange(cfg.Validation.MinAge, cfg.Validation.MaxAge),
	)
	archiver := core.NewArchiver(cfg.Upload.ArchiveDir, cfg.Upload.MaxFileSize)
	return core.NewIngestor(archiver, validator, inserter, opts...)
}

// withPool loads config, opens the pool, runs fn and closes the pool.
func withPool(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, pool *database.Pool) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
