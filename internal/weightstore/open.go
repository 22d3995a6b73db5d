package weightstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"troskovnik-service/internal/config"
)

// Open builds the store with the writer selected in cfg and, when the writer can read,
// bootstraps the table from it. A failed bootstrap is logged; the store starts empty.
func Open(ctx context.Context, cfg config.WeightConfig, logger zerolog.Logger) (*Store, error) {
	var w Writer
	switch strings.ToLower(cfg.Store) {
	case "", "none":
		w = NopWriter{}
	case "sqlite":
		db, err := OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if w, err = NewDBWriter(db); err != nil {
			return nil, err
		}
	case "postgres":
		db, err := OpenPostgres(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if w, err = NewDBWriter(db); err != nil {
			return nil, err
		}
	case "sheets":
		sw, err := NewSheetsWriter(ctx, cfg.SheetsID, cfg.SheetsRange, cfg.Credentials)
		if err != nil {
			return nil, err
		}
		w = sw
	case "redis":
		rw, err := NewRedisWriter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		w = rw
	default:
		return nil, fmt.Errorf("unknown weight store %q", cfg.Store)
	}

	s := New(w, cfg.PushTimeout, logger)
	if l, ok := w.(Loader); ok {
		if err := s.Bootstrap(ctx, l); err != nil {
			s.logger.Error().Err(err).Msg("weight table bootstrap failed")
		}
	}
	return s, nil
}
