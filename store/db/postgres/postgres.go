// Package postgres is the Postgres driver for shared deployments.
package postgres

import (
	"context"
	"database/sql"

	// Import the Postgres driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/adspilot/internal/profile"
	"github.com/hrygo/adspilot/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the Postgres database named by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}
	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres db")
	}
	pgDB.SetMaxOpenConns(10)
	pgDB.SetMaxIdleConns(5)

	return &DB{db: pgDB, profile: profile}, nil
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
	return &pgFeedbackStore{db: d.db}
}
