// Package preference reconciles housing preference requests with the stored
// records: create-or-replace, sparse partial update, lookup, listing and
// idempotent delete, plus the projection from storage to wire form.
package preference

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	serviceerrors "github.com/hrygo/homepref/server/internal/errors"
	"github.com/hrygo/homepref/server/internal/observability"
	"github.com/hrygo/homepref/store"
)

// maxUpsertAttempts bounds the read-then-write loop of CreateOrReplace when
// concurrent writers keep inserting or deleting the same user's record.
const maxUpsertAttempts = 3

// Store is the interface for store operations needed by the preference service.
type Store interface {
	CreatePreference(ctx context.Context, create *store.Preference) (*store.Preference, error)
	ListPreferences(ctx context.Context, find *store.FindPreference) ([]*store.Preference, error)
	GetPreference(ctx context.Context, find *store.FindPreference) (*store.Preference, error)
	UpdatePreference(ctx context.Context, update *store.UpdatePreference) (*store.Preference, error)
	DeletePreference(ctx context.Context, delete *store.DeletePreference) (bool, error)
}

type service struct {
	store    Store
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new preference service.
func NewService(store Store, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		store:    store,
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *service) CreateOrReplace(ctx context.Context, req *CreatePreferenceRequest) (*Preference, error) {
	if req == nil {
		return nil, serviceerrors.InvalidArgument("request body is required")
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	reqCtx := observability.ForOperation(ctx, s.logger, "create_or_replace", req.UserID)

	for attempt := 1; attempt <= maxUpsertAttempts; attempt++ {
		existing, err := s.store.GetPreference(ctx, &store.FindPreference{UserID: &req.UserID})
		if err != nil {
			return nil, s.storageError(ctx, reqCtx, "failed to look up preference", err)
		}

		if existing == nil {
			created, err := s.store.CreatePreference(ctx, &store.Preference{
				UserID:    req.UserID,
				MaxBudget: copyInt32(req.MaxBudget),
				MinSize:   copyInt32(req.MinSize),
				Rooms:     copyInt32(req.Rooms),
			})
			if err == nil {
				reqCtx.Info(ctx, "preference created", slog.String(observability.LogFieldPreferenceID, created.ID))
				return Project(created), nil
			}
			if !errors.Is(err, store.ErrPreferenceExists) {
				return nil, s.storageError(ctx, reqCtx, "failed to create preference", err)
			}
			reqCtx.Debug(ctx, "concurrent insert detected, replacing instead", slog.Int("attempt", attempt))
			continue
		}

		replaced, err := s.store.UpdatePreference(ctx, &store.UpdatePreference{
			ID:        existing.ID,
			MaxBudget: replaceValue(req.MaxBudget),
			MinSize:   replaceValue(req.MinSize),
			Rooms:     replaceValue(req.Rooms),
			UpdatedTs: s.nextUpdatedTs(existing),
		})
		if err != nil {
			return nil, s.storageError(ctx, reqCtx, "failed to replace preference", err)
		}
		if replaced != nil {
			reqCtx.Info(ctx, "preference replaced", slog.String(observability.LogFieldPreferenceID, replaced.ID))
			return Project(replaced), nil
		}
		// Deleted between the read and the write.
		reqCtx.Debug(ctx, "preference removed during replace, retrying", slog.Int("attempt", attempt))
	}

	err := serviceerrors.Internal("preference changed concurrently during create-or-replace", nil)
	reqCtx.Error(ctx, "create-or-replace gave up", err)
	return nil, err
}

func (s *service) GetByUser(ctx context.Context, userID string) (*Preference, error) {
	if err := s.validateUserID(userID); err != nil {
		return nil, err
	}
	reqCtx := observability.ForOperation(ctx, s.logger, "get_by_user", userID)

	existing, err := s.store.GetPreference(ctx, &store.FindPreference{UserID: &userID})
	if err != nil {
		return nil, s.storageError(ctx, reqCtx, "failed to get preference", err)
	}
	if existing == nil {
		return nil, serviceerrors.NotFound(userID)
	}
	return Project(existing), nil
}

func (s *service) PartialUpdate(ctx context.Context, userID string, req *UpdatePreferenceRequest) (*Preference, error) {
	if err := s.validateUserID(userID); err != nil {
		return nil, err
	}
	if req == nil {
		req = &UpdatePreferenceRequest{}
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	reqCtx := observability.ForOperation(ctx, s.logger, "partial_update", userID)

	existing, err := s.store.GetPreference(ctx, &store.FindPreference{UserID: &userID})
	if err != nil {
		return nil, s.storageError(ctx, reqCtx, "failed to look up preference", err)
	}
	if existing == nil {
		return nil, serviceerrors.NotFound(userID)
	}

	// location_area is accepted and dropped; updated_ts moves even when it
	// was the only key sent.
	updated, err := s.store.UpdatePreference(ctx, &store.UpdatePreference{
		ID:        existing.ID,
		MaxBudget: patchValue(req.MaxBudget),
		MinSize:   patchValue(req.MinSize),
		Rooms:     patchValue(req.Rooms),
		UpdatedTs: s.nextUpdatedTs(existing),
	})
	if err != nil {
		return nil, s.storageError(ctx, reqCtx, "failed to update preference", err)
	}
	if updated == nil {
		return nil, serviceerrors.NotFound(userID)
	}
	reqCtx.Debug(ctx, "preference updated", slog.String(observability.LogFieldPreferenceID, updated.ID))
	return Project(updated), nil
}

func (s *service) ListAll(ctx context.Context) ([]*Preference, error) {
	list, err := s.store.ListPreferences(ctx, &store.FindPreference{})
	if err != nil {
		return nil, s.storageError(ctx, observability.ForOperation(ctx, s.logger, "list_all", ""), "failed to list preferences", err)
	}
	result := make([]*Preference, 0, len(list))
	for _, p := range list {
		result = append(result, Project(p))
	}
	return result, nil
}

func (s *service) Delete(ctx context.Context, userID string) error {
	if err := s.validateUserID(userID); err != nil {
		return err
	}
	reqCtx := observability.ForOperation(ctx, s.logger, "delete", userID)

	removed, err := s.store.DeletePreference(ctx, &store.DeletePreference{UserID: userID})
	if err != nil {
		return s.storageError(ctx, reqCtx, "failed to delete preference", err)
	}
	reqCtx.Info(ctx, "preference deleted", slog.Bool("removed", removed))
	return nil
}

// nextUpdatedTs never moves updated_ts backwards, even if the wall clock does.
func (s *service) nextUpdatedTs(existing *store.Preference) *int64 {
	ts := max(s.now().Unix(), existing.UpdatedTs, existing.CreatedTs)
	return &ts
}

func (s *service) storageError(ctx context.Context, reqCtx *observability.RequestContext, msg string, err error) error {
	reqCtx.Error(ctx, msg, err)
	return serviceerrors.StorageUnavailable(msg, err)
}
