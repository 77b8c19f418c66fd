package db

import (
	"github.com/pkg/errors"

	"github.com/vendora/vendora/internal/profile"
	"github.com/vendora/vendora/store"
	"github.com/vendora/vendora/store/db/postgres"
	"github.com/vendora/vendora/store/db/sqlite"
)

// NewDBDriver creates a new db driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q", profile.Driver)
	}
}
