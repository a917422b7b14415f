// Package store persists per-user villa preferences, the configurator step and
// the archive of delivered images.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dream-villa-bot/internal/villa"
)

var (
	ErrUnknownField  = errors.New("unknown preference field")
	ErrUnknownStep   = errors.New("unknown configurator step")
	ErrImageNotFound = errors.New("image not found")
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Image is an archived, delivered villa picture.
type Image struct {
	ID          int64
	MessageID   int
	PhotoFileID string
	Legend      string
	Likes       int
	CreatedAt   time.Time
}

// Store is implemented by the SQL engines and the in-memory store.
type Store interface {
	// GetPreferences returns the defaults for users without a record and never creates one.
	GetPreferences(ctx context.Context, userID int64) (villa.Preferences, error)
	SetPreference(ctx context.Context, userID int64, field villa.Field, value string) error
	// GetStep returns villa.StepNone when nothing has been stored yet.
	GetStep(ctx context.Context, userID int64) (villa.Step, error)
	SetStep(ctx context.Context, userID int64, step villa.Step) error

	SaveImage(ctx context.Context, img Image) (int64, error)
	GetImage(ctx context.Context, id int64) (Image, error)
	LikeImage(ctx context.Context, id int64) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

type Options struct {
	Driver string
	DSN    string
}

// Open returns the store selected by opts.Driver with its schema in place.
// The returned value is a *SQLStore or a *MemoryStore.
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	switch driver {
	case "":
		driver = DriverSQLite
	case DriverSQLite, DriverPostgres:
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q: only sqlite, postgres and memory are supported", opts.Driver)
	}

	s, err := OpenSQL(ctx, driver, opts.DSN)
	if err != nil {
		return nil, err
	}
	return s, nil
}
