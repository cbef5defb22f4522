package services

import (
	"context"
	"testing"

	"soldera/internal/repo"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type loggedEntry struct {
	eventID *string
	action  string
	outcome string
	message *string
}

type stubLogWriter struct {
	entries []loggedEntry
}

func (s *stubLogWriter) CreateLog(ctx context.Context, eventID *string, action string, outcome string, message *string) error {
	var copied *string
	if message != nil {
		value := *message
		copied = &value
	}

	s.entries = append(s.entries, loggedEntry{
		eventID: eventID,
		action:  action,
		outcome: outcome,
		message: copied,
	})
	return nil
}

func (s *stubLogWriter) actions() []string {
	actions := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		actions = append(actions, entry.action+":"+entry.outcome)
	}
	return actions
}

// openTestDB returns a migrated in-memory database. SQLite gives every
// connection its own :memory: database, so the pool is pinned to one.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := repo.Open(sqlite.Open(":memory:"))
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := repo.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}
