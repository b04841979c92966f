package test

import (
	"context"
	"os"
	"testing"

	"github.com/hrygo/homepref/internal/profile"
	"github.com/hrygo/homepref/store"
	"github.com/hrygo/homepref/store/db"
)

// NewTestingStore creates a migrated store for the driver named by DRIVER
// (sqlite when unset). SQLite databases live in a per-test temp dir.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()
	return newTestingStoreWithMode(ctx, t, "dev")
}

func newTestingStoreWithMode(ctx context.Context, t *testing.T, mode string) *store.Store {
	t.Helper()
	instanceProfile := getTestingProfile(t, getDriverFromEnv(), mode)
	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		t.Fatalf("failed to create db driver, error: %+v", err)
	}

	ts := store.New(dbDriver, instanceProfile)
	t.Cleanup(func() {
		ts.Close()
	})
	if err := ts.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db, error: %+v", err)
	}
	return ts
}

func getTestingProfile(t *testing.T, driver, mode string) *profile.Profile {
	t.Helper()
	instanceProfile := &profile.Profile{
		Mode:   mode,
		Port:   8080,
		Driver: driver,
		Data:   t.TempDir(),
	}

	switch driver {
	case "postgres":
		instanceProfile.DSN = GetPostgresDSN(t)
	case "mysql":
		instanceProfile.DSN = os.Getenv("MYSQL_TEST_DSN")
		if instanceProfile.DSN == "" {
			t.Skip("MYSQL_TEST_DSN is not set")
		}
	}

	if err := instanceProfile.Validate(); err != nil {
		t.Fatalf("failed to validate profile, error: %+v", err)
	}
	return instanceProfile
}

func getDriverFromEnv() string {
	driver := os.Getenv("DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}
