package preference

import (
	"context"
	"time"

	"github.com/hrygo/homepref/internal/optional"
)

// Service defines the housing preference operations exposed over HTTP.
type Service interface {
	// CreateOrReplace stores the preference for req.UserID. An existing
	// record keeps its id and created_at, and every numeric field is
	// replaced, so fields missing from req become null.
	CreateOrReplace(ctx context.Context, req *CreatePreferenceRequest) (*Preference, error)

	// GetByUser returns the user's preference or a NOT_FOUND error.
	GetByUser(ctx context.Context, userID string) (*Preference, error)

	// PartialUpdate writes only the fields present in req. An explicit null
	// clears the field. Returns NOT_FOUND when the user has no record.
	PartialUpdate(ctx context.Context, userID string, req *UpdatePreferenceRequest) (*Preference, error)

	// ListAll returns every stored preference.
	ListAll(ctx context.Context) ([]*Preference, error)

	// Delete removes the user's preference. Deleting a missing record is
	// not an error.
	Delete(ctx context.Context, userID string) error
}

// Preference is the wire representation of a stored preference.
//
// LocationArea is accepted on input but never persisted, so it is always
// null here.
type Preference struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	MaxBudget    *int32    `json:"max_budget"`
	MinSize      *int32    `json:"min_size"`
	LocationArea []string  `json:"location_area"`
	Rooms        *int32    `json:"rooms"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreatePreferenceRequest is the body of POST /.
type CreatePreferenceRequest struct {
	UserID       string   `json:"user_id" validate:"required,max=36,printascii"`
	MaxBudget    *int32   `json:"max_budget" validate:"omitempty,min=0"`
	MinSize      *int32   `json:"min_size" validate:"omitempty,min=0"`
	LocationArea []string `json:"location_area"`
	Rooms        *int32   `json:"rooms" validate:"omitempty,min=0"`
}

// UpdatePreferenceRequest is the body of PATCH /{userId}. Each field tells
// apart a missing key from an explicit null.
type UpdatePreferenceRequest struct {
	MaxBudget    optional.Field[int32]    `json:"max_budget" validate:"omitempty,min=0"`
	MinSize      optional.Field[int32]    `json:"min_size" validate:"omitempty,min=0"`
	LocationArea optional.Field[[]string] `json:"location_area"`
	Rooms        optional.Field[int32]    `json:"rooms" validate:"omitempty,min=0"`
}
