// Package storage persists the high score between games.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Store is a small keyed float store. A missing key reads as 0.
type Store interface {
	Get(ctx context.Context, key string) (float64, error)
	Set(ctx context.Context, key string, value float64) error
	Close() error
}

// Drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a backend
type Options struct {
	Driver string
	DSN    string
}

// Open creates a store for the configured driver
func Open(opts Options, log zerolog.Logger) (Store, error) {
	switch opts.Driver {
	case DriverMemory, "":
		log.Info().Msg("Using in-memory high score store")
		return NewMemory(), nil
	case DriverSQLite, DriverPostgres:
		g, err := OpenGorm(opts, log)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", opts.Driver)
	}
}
