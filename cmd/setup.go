package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/vtx/internal/shared"
	"github.com/urfave/cli/v3"
)

// setupConfig loads the config named by --config, writing the template first when the file is missing.
func (r *Runner) setupConfig(path string) *shared.Config {
	config, err := shared.LoadConfig(path)
	if errors.Is(err, shared.ErrMissingConfig) {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err = shared.CreateConfigFile(path); err == nil {
			config, err = shared.LoadConfig(path)
		}
	}
	if err != nil {
		r.logger.Warn("using current config", "path", path, "error", err)
		return r.config
	}
	return config
}

// SetupDatabase creates the client store and applies pending migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.setupConfig(cmd.String("config"))
	if config.Storage.Driver != "sqlite" {
		r.logger.Warn("storage driver does not use this database", "driver", config.Storage.Driver)
	}

	dbc := config.Database
	r.logger.Info("initializing database", "path", dbc.Path)

	db, err := shared.OpenMigrated(dbc)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrStorage, err)
	}
	defer db.Close()

	version, err := shared.SchemaVersion(db)
	if err != nil {
		return err
	}
	r.logger.Debug("schema up to date", "version", version)
	return r.writePlain("✓ Database ready at %s (schema v%d)\n", dbc.Path, version)
}

// SetupConfig writes the embedded example config to the given path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Config written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set api.base_url (or %s) to your backend\n", shared.EnvAPIURL)
	r.writePlain("2. Run 'vtx setup database' and 'vtx auth login --email you@example.com'\n")
	return nil
}
