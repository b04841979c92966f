package preference

import (
	"database/sql"

	"github.com/hrygo/homepref/internal/optional"
	"github.com/hrygo/homepref/store"
)

// Project converts a stored record into its wire form. LocationArea is
// always nil.
func Project(p *store.Preference) *Preference {
	if p == nil {
		return nil
	}
	return &Preference{
		ID:           p.ID,
		UserID:       p.UserID,
		MaxBudget:    copyInt32(p.MaxBudget),
		MinSize:      copyInt32(p.MinSize),
		LocationArea: nil,
		Rooms:        copyInt32(p.Rooms),
		CreatedAt:    p.CreatedAt(),
		UpdatedAt:    p.UpdatedAt(),
	}
}

// replaceValue maps a create-or-replace field to a column write. A missing
// value still writes NULL.
func replaceValue(v *int32) *sql.NullInt32 {
	if v == nil {
		return &sql.NullInt32{}
	}
	return &sql.NullInt32{Int32: *v, Valid: true}
}

// patchValue maps a PATCH field to a column write, or nil when the key was
// absent.
func patchValue(f optional.Field[int32]) *sql.NullInt32 {
	if !f.Set {
		return nil
	}
	if f.Null {
		return &sql.NullInt32{}
	}
	return &sql.NullInt32{Int32: f.Value, Valid: true}
}

func copyInt32(v *int32) *int32 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
