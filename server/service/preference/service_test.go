package preference

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/homepref/internal/optional"
	serviceerrors "github.com/hrygo/homepref/server/internal/errors"
	"github.com/hrygo/homepref/store"
)

// MockStoreForPreference is an in-memory implementation of the Store interface for testing.
type MockStoreForPreference struct {
	mu          sync.Mutex
	preferences map[string]*store.Preference // keyed by user id
	now         int64

	// Hooks for failure and race injection.
	failWith     error
	beforeCreate func(m *MockStoreForPreference, create *store.Preference)
	beforeUpdate func(m *MockStoreForPreference, update *store.UpdatePreference)

	updates []*store.UpdatePreference
}

func newMockStore() *MockStoreForPreference {
	return &MockStoreForPreference{
		preferences: map[string]*store.Preference{},
		now:         1_700_000_000,
	}
}

func (m *MockStoreForPreference) put(p *store.Preference) {
	m.preferences[p.UserID] = p
}

func (m *MockStoreForPreference) CreatePreference(_ context.Context, create *store.Preference) (*store.Preference, error) {
	if m.beforeCreate != nil {
		hook := m.beforeCreate
		m.beforeCreate = nil
		hook(m, create)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if _, ok := m.preferences[create.UserID]; ok {
		return nil, store.ErrPreferenceExists
	}
	create.ID = uuid.NewString()
	create.CreatedTs = m.now
	create.UpdatedTs = m.now
	stored := *create
	m.preferences[create.UserID] = &stored
	return create, nil
}

func (m *MockStoreForPreference) ListPreferences(_ context.Context, find *store.FindPreference) ([]*store.Preference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	result := make([]*store.Preference, 0)
	for _, p := range m.preferences {
		if find.UserID != nil && p.UserID != *find.UserID {
			continue
		}
		if find.ID != nil && p.ID != *find.ID {
			continue
		}
		c := *p
		result = append(result, &c)
	}
	return result, nil
}

func (m *MockStoreForPreference) GetPreference(ctx context.Context, find *store.FindPreference) (*store.Preference, error) {
	list, err := m.ListPreferences(ctx, find)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (m *MockStoreForPreference) UpdatePreference(_ context.Context, update *store.UpdatePreference) (*store.Preference, error) {
	if m.beforeUpdate != nil {
		hook := m.beforeUpdate
		m.beforeUpdate = nil
		hook(m, update)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.updates = append(m.updates, update)
	for _, p := range m.preferences {
		if p.ID != update.ID {
			continue
		}
		apply := func(dst **int32, v *sql.NullInt32) {
			if v == nil {
				return
			}
			if !v.Valid {
				*dst = nil
				return
			}
			n := v.Int32
			*dst = &n
		}
		apply(&p.MaxBudget, update.MaxBudget)
		apply(&p.MinSize, update.MinSize)
		apply(&p.Rooms, update.Rooms)
		if update.UpdatedTs != nil {
			p.UpdatedTs = *update.UpdatedTs
		}
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (m *MockStoreForPreference) DeletePreference(_ context.Context, find *store.DeletePreference) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	_, ok := m.preferences[find.UserID]
	delete(m.preferences, find.UserID)
	return ok, nil
}

func newTestService(t *testing.T, mock *MockStoreForPreference, now time.Time) *service {
	t.Helper()
	svc := NewService(mock, slog.New(slog.NewTextHandler(io.Discard, nil))).(*service)
	svc.now = func() time.Time { return now }
	return svc
}

func int32Ptr(v int32) *int32 {
	return &v
}

func seeded(userID string) *store.Preference {
	return &store.Preference{
		ID:        uuid.NewString(),
		UserID:    userID,
		MaxBudget: int32Ptr(4000),
		MinSize:   int32Ptr(900),
		Rooms:     int32Ptr(2),
		CreatedTs: 1_600_000_000,
		UpdatedTs: 1_600_000_100,
	}
}

func decodeUpdate(t *testing.T, body string) *UpdatePreferenceRequest {
	t.Helper()
	var req UpdatePreferenceRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return &req
}

func TestCreateOrReplace_CreatesNewRecord(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore()
	svc := newTestService(t, mock, time.Unix(1_700_000_000, 0))

	got, err := svc.CreateOrReplace(ctx, &CreatePreferenceRequest{
		UserID:       "U1",
		MaxBudget:    int32Ptr(4000),
		MinSize:      int32Ptr(900),
		LocationArea: []string{"Williamsburg"},
		Rooms:        int32Ptr(2),
	})
	require.NoError(t, err)

	_, err = uuid.Parse(got.ID)
	require.NoError(t, err)
	assert.Equal(t, "U1", got.UserID)
	assert.Equal(t, int32(4000), *got.MaxBudget)
	assert.Equal(t, int32(900), *got.MinSize)
	assert.Equal(t, int32(2), *got.Rooms)
	assert.Nil(t, got.LocationArea)
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
	assert.Len(t, mock.preferences, 1)
}

func TestCreateOrReplace_FullReplace(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore()
	existing := seeded("U1")
	mock.put(existing)
	svc := newTestService(t, mock, time.Unix(1_700_000_000, 0))

	got, err := svc.CreateOrReplace(ctx, &CreatePreferenceRequest{UserID: "U1", MaxBudget: int32Ptr(5000)})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, got.ID)
	assert.Equal(t, int32(5000), *got.MaxBudget)
	assert.Nil(t, got.MinSize, "fields missing from a replace become null")
	assert.Nil(t, got.Rooms)
	assert.Equal(t, time.Unix(existing.CreatedTs, 0).UTC(), got.CreatedAt)
	assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), got.UpdatedAt)
	assert.Len(t, mock.preferences, 1)
}

func TestCreateOrReplace_InsertRaceFallsBackToReplace(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore()
	winner := seeded("U1")
	mock.beforeCreate = func(m *MockStoreForPreference, _ *store.Preference) {
		m.put(winner)
	}
	svc := newTestService(t, mock, time.Unix(1_700_000_000, 0))

	got, err := svc.CreateOrReplace(ctx, &CreatePreferenceRequest{UserID: "U1", Rooms: int32Ptr(5)})
	require.NoError(t, err)

	assert.Equal(t, winner.ID, got.ID, "the concurrent insert keeps its id")
	assert.Equal(t, int32(5), *got.Rooms)
	assert.Nil(t, got.MaxBudget)
	assert.Len(t, mock.preferences, 1)
}

func TestCreateOrReplace_RecordDeletedDuringReplace(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore()
	existing := seeded("U1")
	mock.put(existing)
	mock.beforeUpdate = func(m *MockStoreForPreference, _ *store.UpdatePreference) {
		delete(m.preferences, "U1")
	}
	svc := newTestService(t, mock, time.Unix(1_700_000_000, 0))

	got, err := svc.CreateOrReplace(ctx, &CreatePreferenceRequest{UserID: "U1", MinSize: int32Ptr(50)})
	require.NoError(t, err)

	assert.NotEqual(t, existing.ID, got.ID)
	assert.Equal(t, int32(50), *got.MinSize)
	assert.Len(t, mock.preferences, 1)
}

func TestGetByUser(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore()
	existing := seeded("b01fbc13-12d2-4f4f-9c9b-7d00e233b3ae")
	mock.put(existing)
	svc := newTestService(t, mock, time.Unix(1_700_000_000, 0))

	got, err := svc.GetByUser(ctx, existing.UserID)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
	assert.Nil(t, got.LocationArea)

	_, err = svc.GetByUser(ctx, "nobody")
	require.Error(t, err)
	assert.True(t, serviceerrors.IsCode(err, serviceerrors.ErrCodeNotFound))
}

func TestPartialUpdate_SparseMerge(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore()
	existing := seeded("U1")
	mock.put(existing)
	svc := newTestService(t, mock, time.Unix(1_700_000_000, 0))

	got, err := svc.PartialUpdate(ctx, "U1", decodeUpdate(t, `{"rooms": 3}`))
	require.NoError(t, err)

	assert.Equal(t, int32(4000), *got.MaxBudget)
	assert.Equal(t, int32(900), *got.MinSize)
	assert.Equal(t, int32(3), *got.Rooms)

	require.Len(t, mock.updates, 1)
	assert.Nil(t, mock.updates[0].MaxBudget, "absent keys are not written")
	assert.Nil(t, mock.updates[0].MinSize)
	require.NotNil(t, mock.updates[0].Rooms)
}

func TestPartialUpdate_ExplicitNullClears(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore()
	mock.put(seeded("U1"))
	svc := newTestService(t, mock, time.Unix(1_700_000_000, 0))

	got, err := svc.PartialUpdate(ctx, "U1", decodeUpdate(t, `{"min_size": null, "location_area": ["Astoria"]}`))
	require.NoError(t, err)

	assert.Nil(t, got.MinSize)
	assert.Equal(t, int32(4000), *got.MaxBudget)
	assert.Equal(t, int32(2), *got.Rooms)
	assert.Nil(t, got.LocationArea)
}

func TestPartialUpdate_EmptyBodyRefreshesTimestamp(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore()
	existing := seeded("U1")
	mock.put(existing)
	svc := newTestService(t, mock, time.Unix(1_700_000_000, 0))

	for _, body := range []string{`{}`, `{"location_area": ["Bushwick"]}`} {
		got, err := svc.PartialUpdate(ctx, "U1", decodeUpdate(t, body))
		require.NoError(t, err)
		assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), got.UpdatedAt, body)
		assert.Equal(t, int32(4000), *got.MaxBudget, body)
	}
}

func TestPartialUpdate_NotFound(t *testing.T) {
	svc := newTestService(t, newMockStore(), time.Now())

	_, err := svc.PartialUpdate(context.Background(), "U1", decodeUpdate(t, `{"rooms": 3}`))
	require.Error(t, err)
	assert.True(t, serviceerrors.IsCode(err, serviceerrors.ErrCodeNotFound))
}

func TestUpdatedTimestampIsMonotonic(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore()
	existing := seeded("U1")
	mock.put(existing)
	// Wall clock behind the stored updated_ts.
	svc := newTestService(t, mock, time.Unix(existing.UpdatedTs-3600, 0))

	got, err := svc.PartialUpdate(ctx, "U1", decodeUpdate(t, `{"rooms": 1}`))
	require.NoError(t, err)
	assert.Equal(t, existing.UpdatedTs, got.UpdatedAt.Unix())
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	got, err = svc.CreateOrReplace(ctx, &CreatePreferenceRequest{UserID: "U1"})
	require.NoError(t, err)
	assert.Equal(t, existing.UpdatedTs, got.UpdatedAt.Unix())
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore()
	mock.put(seeded("U1"))
	svc := newTestService(t, mock, time.Now())

	require.NoError(t, svc.Delete(ctx, "U1"))
	require.NoError(t, svc.Delete(ctx, "U1"))
	require.NoError(t, svc.Delete(ctx, "never-existed"))
	assert.Empty(t, mock.preferences)

	_, err := svc.GetByUser(ctx, "U1")
	assert.True(t, serviceerrors.IsCode(err, serviceerrors.ErrCodeNotFound))
}

func TestListAll(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore()
	svc := newTestService(t, mock, time.Now())

	list, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	mock.put(seeded("U1"))
	mock.put(seeded("U2"))
	list, err = svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, p := range list {
		assert.Nil(t, p.LocationArea)
	}
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	mock := newMockStore()
	// Any storage access would surface as STORAGE_UNAVAILABLE.
	mock.failWith = errors.New("storage must not be reached")
	svc := newTestService(t, mock, time.Now())

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{
			name: "missing user id",
			call: func() error {
				_, err := svc.CreateOrReplace(ctx, &CreatePreferenceRequest{MaxBudget: int32Ptr(1)})
				return err
			},
			want: "user_id: field required",
		},
		{
			name: "negative budget",
			call: func() error {
				_, err := svc.CreateOrReplace(ctx, &CreatePreferenceRequest{UserID: "U1", MaxBudget: int32Ptr(-1)})
				return err
			},
			want: "max_budget: must be greater than or equal to 0",
		},
		{
			name: "user id too long",
			call: func() error {
				_, err := svc.GetByUser(ctx, "0123456789012345678901234567890123456789")
				return err
			},
			want: "user_id: must be at most 36 characters",
		},
		{
			name: "non ascii user id",
			call: func() error {
				return svc.Delete(ctx, "usér")
			},
			want: "user_id: must contain printable ASCII characters only",
		},
		{
			name: "negative rooms in patch",
			call: func() error {
				_, err := svc.PartialUpdate(ctx, "U1", decodeUpdate(t, `{"rooms": -2}`))
				return err
			},
			want: "rooms: must be greater than or equal to 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, serviceerrors.IsCode(err, serviceerrors.ErrCodeInvalidArgument), err.Error())
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidation_NullAndZeroAreAllowed(t *testing.T) {
	mock := newMockStore()
	mock.put(seeded("U1"))
	svc := newTestService(t, mock, time.Now())

	got, err := svc.PartialUpdate(context.Background(), "U1", decodeUpdate(t, `{"max_budget": 0, "rooms": null}`))
	require.NoError(t, err)
	assert.Equal(t, int32(0), *got.MaxBudget)
	assert.Nil(t, got.Rooms)
}

func TestStorageErrors(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connection refused")
	mock := newMockStore()
	mock.failWith = cause
	svc := newTestService(t, mock, time.Now())

	_, err := svc.ListAll(ctx)
	assert.True(t, serviceerrors.IsCode(err, serviceerrors.ErrCodeStorageUnavailable))
	assert.ErrorIs(t, err, cause)

	_, err = svc.CreateOrReplace(ctx, &CreatePreferenceRequest{UserID: "U1"})
	assert.True(t, serviceerrors.IsCode(err, serviceerrors.ErrCodeStorageUnavailable))

	_, err = svc.GetByUser(ctx, "U1")
	assert.True(t, serviceerrors.IsCode(err, serviceerrors.ErrCodeStorageUnavailable))

	err = svc.Delete(ctx, "U1")
	assert.True(t, serviceerrors.IsCode(err, serviceerrors.ErrCodeStorageUnavailable))
}

func TestProject(t *testing.T) {
	assert.Nil(t, Project(nil))

	record := seeded("U1")
	got := Project(record)
	*got.MaxBudget = 1
	assert.Equal(t, int32(4000), *record.MaxBudget, "projection copies values")

	data, err := json.Marshal(got)
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Contains(t, wire, "location_area")
	assert.Nil(t, wire["location_area"])
	assert.Equal(t, "2020-09-13T12:26:40Z", wire["created_at"])
}

func TestPatchValue(t *testing.T) {
	assert.Nil(t, patchValue(optional.Field[int32]{}))
	assert.Equal(t, &sql.NullInt32{}, patchValue(optional.Null[int32]()))
	assert.Equal(t, &sql.NullInt32{Int32: 7, Valid: true}, patchValue(optional.Of[int32](7)))
	assert.Equal(t, &sql.NullInt32{}, replaceValue(nil))
}
