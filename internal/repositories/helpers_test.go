package repositories

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jobmesh/jobmesh/internal/db"
)

// mustOpenGormDB opens a fresh migrated sqlite database backed by a file
// under t.TempDir(), for repository tests that need real gorm behavior
// (autoincrement, Updates RowsAffected) rather than a hand-rolled fake.
func mustOpenGormDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.sqlite")
	gormDB, err := db.New(db.Config{DSN: dsn, Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	return gormDB
}
