package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/spotme/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file when missing, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.Path, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)

	if err := r.config.Validate(); err != nil {
		r.writePlain("Fill in the missing settings in %s or the environment:\n%v\n", configPath, err)
	}
	return nil
}

// RollbackDatabase reverts the newest --steps migrations. Stored history is lost with its table.
func (r *Runner) RollbackDatabase(ctx context.Context, cmd *cli.Command) error {
	steps := cmd.Int("steps")
	if steps < 1 {
		return fmt.Errorf("%w: --steps must be at least 1", shared.ErrInvalidArgument)
	}

	db := r.db
	if db == nil {
		opened, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer opened.Close()
		shared.ConfigureDatabase(opened, r.config.Database.Path, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		db = opened
	}

	rolledBack := 0
	for range steps {
		if err := shared.RollbackMigration(db); err != nil {
			if errors.Is(err, shared.ErrNoMigrations) && rolledBack > 0 {
				break
			}
			return err
		}
		rolledBack++
	}

	r.logger.Info("rolled back migrations", "count", rolledBack, "path", r.config.Database.Path)
	return r.writePlain("✓ Rolled back %d migration(s)\n", rolledBack)
}
