// Package factory constructs backend adapters from configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cinephiles/cinebot/internal/config"
	storepkg "github.com/cinephiles/cinebot/internal/store"
	storepg "github.com/cinephiles/cinebot/internal/store/postgres"
	storesqlite "github.com/cinephiles/cinebot/internal/store/sqlite"
)

// NewStore returns the store selected by cfg.DBDriver.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		st, err := storesqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		log.Info().Str("driver", "sqlite").Str("path", cfg.SQLitePath).Msg("store ready")
		return st, nil

	case "postgres":
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		if err := storepg.Bootstrap(ctx, db); err != nil {
			return nil, fmt.Errorf("postgres bootstrap: %w", err)
		}
		log.Info().Str("driver", "postgres").Msg("store ready")
		return storepg.NewWithDB(db), nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
