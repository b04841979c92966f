package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Preference model related methods.
	CreatePreference(ctx context.Context, create *Preference) (*Preference, error)
	ListPreferences(ctx context.Context, find *FindPreference) ([]*Preference, error)
	// UpdatePreference returns the record as stored after the update, or
	// nil when no record has the given id.
	UpdatePreference(ctx context.Context, update *UpdatePreference) (*Preference, error)
	DeletePreference(ctx context.Context, delete *DeletePreference) (bool, error)
}
