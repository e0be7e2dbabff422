package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/tiendamoda/reclass/internal/common"
	"github.com/tiendamoda/reclass/internal/config"
	"github.com/tiendamoda/reclass/internal/service"
	"github.com/tiendamoda/reclass/internal/storage"
	"github.com/tiendamoda/reclass/internal/taxonomy"
)

// initStorage opens the catalog database and applies migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/reclass/reclass.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("could not open database at %s", dbPath), err)
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadIndex builds the keyword index from taxonomy.path, or from the built-in
// taxonomy when no file is configured.
func loadIndex() (*taxonomy.Index, error) {
	path := viper.GetString("taxonomy.path")

	tax := taxonomy.Default()
	if path != "" {
		loaded, err := taxonomy.LoadFile(config.ExpandPath(path))
		if err != nil {
			return nil, fmt.Errorf("failed to load taxonomy from %s: %w", path, err)
		}
		tax = loaded
	}

	return taxonomy.NewIndex(tax)
}

// loadSettings reads the reseed settings from the active viper instance.
func loadSettings() (config.Settings, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Settings{}, fmt.Errorf("invalid reseed configuration: %w", err)
	}
	return settings, nil
}
