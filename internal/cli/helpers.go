package cli

import (
	"fmt"

	"github.com/paywall-split/paywall-split/internal/config"
	"github.com/paywall-split/paywall-split/internal/store"
)

// withStore opens the database, executes the function, and handles cleanup.
func withStore(fn func(*store.SQLiteStore) error) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// loadConfig reads the environment and applies command line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}

	cfg.DBPath = dbPath
	if port != 0 {
		cfg.Port = port
	}
	if distribution != "" {
		cfg.Distribution = distribution
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
