// Package db selects the database driver named by the profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/adspilot/internal/profile"
	"github.com/hrygo/adspilot/store"
	"github.com/hrygo/adspilot/store/db/postgres"
	"github.com/hrygo/adspilot/store/db/sqlite"
)

// NewDBDriver creates the driver for the configured database.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	}
	return nil, errors.Errorf("unsupported database driver %q", profile.Driver)
}
