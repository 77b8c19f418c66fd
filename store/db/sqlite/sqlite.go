package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	// Import the pure Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/vendora/vendora/internal/profile"
	"github.com/vendora/vendora/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database at profile.DSN and ensures the schema.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// busy_timeout keeps concurrent writers from failing immediately;
	// WAL lets readers proceed during a write.
	db, err := sql.Open("sqlite", profile.DSN+"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	driver := &DB{db: db, profile: profile}
	if err := driver.migrate(context.Background()); err != nil {
		return nil, errors.Wrap(err, "failed to migrate db")
	}
	return driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS user (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	row_status TEXT NOT NULL CHECK (row_status IN ('NORMAL', 'ARCHIVED')) DEFAULT 'NORMAL',
	created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
	updated_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL DEFAULT '',
	nickname TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS product (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	row_status TEXT NOT NULL CHECK (row_status IN ('NORMAL', 'ARCHIVED')) DEFAULT 'NORMAL',
	created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
	updated_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
	vendor_id INTEGER NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price_cents BIGINT NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT 'USD',
	stock INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_product_vendor_id ON product (vendor_id);
CREATE INDEX IF NOT EXISTS idx_product_category ON product (category);
`

func (d *DB) migrate(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, schema)
	return err
}
