package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/homepref/internal/profile"
	"github.com/hrygo/homepref/store"
	"github.com/hrygo/homepref/store/db/mysql"
	"github.com/hrygo/homepref/store/db/postgres"
	"github.com/hrygo/homepref/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
//
// All three drivers carry the same preference schema. SQLite is the default
// for local runs and tests; Postgres and MySQL are the hosted targets.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	case "mysql":
		driver, err = mysql.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: expected sqlite, postgres or mysql", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
