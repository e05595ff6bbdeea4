// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a migrated in-memory SQLite database closed at test cleanup.
// The pool is pinned to one connection so every query sees the same memory
// database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db, logger.Nop()))

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}
