package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"infocollect/internal/db"
	"infocollect/internal/model"
	"infocollect/internal/snowflake"
)

// NewTestDB opens an in-memory SQLite database with the full schema applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	if err := snowflake.Init(1); err != nil {
		t.Fatalf("init snowflake: %v", err)
	}

	database, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return database
}

// SeedSubmission inserts a submission row directly and returns its ID.
func SeedSubmission(t *testing.T, database *sql.DB, sub model.Submission) int64 {
	t.Helper()

	id := snowflake.NextID()
	submittedAt := sub.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	_, err := database.ExecContext(
		context.Background(),
		`INSERT INTO submissions (id, full_name, telephone, email, description, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, sub.FullName, sub.Telephone, sub.Email, sub.Description,
		submittedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("seed submission: %v", err)
	}

	return id
}
