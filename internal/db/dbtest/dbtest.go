// Package dbtest opens throwaway in-memory stores for tests.
package dbtest

import (
	"testing"

	"github.com/mjhajdugaNext/messenger/internal/db"

	"gorm.io/gorm"
)

// New returns a migrated in-memory sqlite database closed at test cleanup.
func New(tb testing.TB) *gorm.DB {
	tb.Helper()
	gdb, err := db.Connect("sqlite", ":memory:")
	if err != nil {
		tb.Fatalf("dbtest: connect: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		tb.Fatalf("dbtest: migrate: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
