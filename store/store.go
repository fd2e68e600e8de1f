// Package store provides database access to the persisted objects:
// answer feedback and its aggregate statistics. Drivers live under
// store/db.
package store

import (
	"context"
	"database/sql"

	"github.com/hrygo/adspilot/internal/profile"
)

// Driver is the database abstraction the SQLite and Postgres backends
// implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the schema when it does not exist yet.
	Migrate(ctx context.Context) error

	FeedbackStore() FeedbackStore
}

// FeedbackStore persists answer feedback.
type FeedbackStore interface {
	CreateFeedback(ctx context.Context, create *CreateFeedback) (*Feedback, error)
	ListFeedback(ctx context.Context, find *FindFeedback) ([]*Feedback, error)
	GetFeedback(ctx context.Context, id string) (*Feedback, error)
	UpdateFeedback(ctx context.Context, update *UpdateFeedback) (*Feedback, error)
	DeleteFeedback(ctx context.Context, id string) error
	FeedbackStats(ctx context.Context) (*FeedbackStats, error)
}

// Store provides access to all persisted objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	Feedback FeedbackStore
}

// New creates a Store on top of a driver.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		profile:  profile,
		driver:   driver,
		Feedback: driver.FeedbackStore(),
	}
}

// Migrate runs the driver's schema migration.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.driver.Close()
}
