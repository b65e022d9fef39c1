package repo_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/proplens/proplens/internal/config"
	"github.com/proplens/proplens/internal/db"
)

func openTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "proplens",
		Password: "proplens_pass",
		DBName:   "proplens_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn, 1536); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	for _, table := range []string{"project_tasks", "regulatory_rules", "documents", "embedding_cache"} {
		if _, err := conn.ExecContext(context.Background(), "DELETE FROM "+table); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
	return conn, func() {
		_ = conn.Close()
	}
}
