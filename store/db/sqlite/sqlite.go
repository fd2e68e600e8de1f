// Package sqlite is the SQLite driver, intended for demo and
// single-user deployments.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/adspilot/internal/profile"
	"github.com/hrygo/adspilot/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database named by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// With the modernc.org/sqlite driver each pragma must be prefixed
	// with _pragma=. WAL avoids writer lock contention; the busy timeout
	// covers the remaining cases.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// Single connection is optimal for SQLite with WAL.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)

	return &DB{db: sqliteDB, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			message_index INTEGER NOT NULL DEFAULT 0,
			rating INTEGER NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			evaluator TEXT NOT NULL DEFAULT 'anonymous',
			status TEXT NOT NULL DEFAULT 'pending',
			created_ts BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_feedback_session ON feedback (session_id);
	`)
	if err != nil {
		return errors.Wrap(err, "failed to migrate feedback schema")
	}
	return nil
}

func (d *DB) FeedbackStore() store.FeedbackStore {
	return &sqliteFeedbackStore{db: d.db}
}
