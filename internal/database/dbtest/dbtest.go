// Package dbtest provides throwaway migrated databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/tradehub/internal/config"
	"github.com/tradehub/internal/database"
	"gorm.io/gorm"
)

// New opens a fresh sqlite database in a temp dir and migrates it.
// The connection is closed when the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "tradehub_test.db"),
	}, "test")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
