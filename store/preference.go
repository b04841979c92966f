package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrPreferenceExists is returned by CreatePreference when the user already
// owns a preference record.
var ErrPreferenceExists = errors.New("preference already exists for user")

// Preference is the stored housing preference of a single user.
type Preference struct {
	ID        string
	UserID    string
	MaxBudget *int32
	MinSize   *int32
	Rooms     *int32
	CreatedTs int64
	UpdatedTs int64
}

// FindPreference is the find condition for preferences. An empty condition
// matches every record.
type FindPreference struct {
	ID     *string
	UserID *string
}

// UpdatePreference is a sparse update. A nil field is left untouched; a
// non-nil field is written, and an invalid sql.NullInt32 clears the column.
type UpdatePreference struct {
	ID        string
	MaxBudget *sql.NullInt32
	MinSize   *sql.NullInt32
	Rooms     *sql.NullInt32
	UpdatedTs *int64
}

// DeletePreference is the delete condition for preferences.
type DeletePreference struct {
	UserID string
}

// CreatePreference assigns a new id and the creation timestamps, then
// inserts the record.
func (s *Store) CreatePreference(ctx context.Context, create *Preference) (*Preference, error) {
	now := s.now().Unix()
	create.ID = uuid.NewString()
	create.CreatedTs = now
	create.UpdatedTs = now
	return s.driver.CreatePreference(ctx, create)
}

// ListPreferences lists preferences matching the condition, in no particular order.
func (s *Store) ListPreferences(ctx context.Context, find *FindPreference) ([]*Preference, error) {
	return s.driver.ListPreferences(ctx, find)
}

// GetPreference returns the first preference matching the condition, or nil
// when there is none.
func (s *Store) GetPreference(ctx context.Context, find *FindPreference) (*Preference, error) {
	list, err := s.driver.ListPreferences(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdatePreference applies the sparse update and refreshes updated_ts. When
// the caller supplies UpdatedTs it is used as is.
func (s *Store) UpdatePreference(ctx context.Context, update *UpdatePreference) (*Preference, error) {
	if update.UpdatedTs == nil {
		now := s.now().Unix()
		update.UpdatedTs = &now
	}
	return s.driver.UpdatePreference(ctx, update)
}

// DeletePreference removes the user's preference and reports whether a row
// was removed.
func (s *Store) DeletePreference(ctx context.Context, delete *DeletePreference) (bool, error) {
	return s.driver.DeletePreference(ctx, delete)
}

// CreatedAt returns the creation time in UTC.
func (p *Preference) CreatedAt() time.Time {
	return time.Unix(p.CreatedTs, 0).UTC()
}

// UpdatedAt returns the last update time in UTC.
func (p *Preference) UpdatedAt() time.Time {
	return time.Unix(p.UpdatedTs, 0).UTC()
}
