package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/zornyy/photoCloud/internal/config"
	"github.com/zornyy/photoCloud/internal/db"
)

// OpenTestDB connects to the test postgres named by TEST_DB_HOST and applies
// migrations, or skips the test when the variable is unset.
func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "photocloud",
		Password: "photocloud_pass",
		DBName:   "photocloud_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}
