package pdfbatch_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jdziat/pdfbatch"
	"github.com/jdziat/pdfbatch/pkg/batch"
)

func acceptAll() pdfbatch.Validator {
	return batch.ValidatorFunc(func(string) error { return nil })
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// openStore creates a migrated SQLite history database in a temp dir.
func openStore(t *testing.T) (*gorm.DB, *pdfbatch.GormStorage) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := pdfbatch.OpenDB(pdfbatch.DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store := pdfbatch.NewGormStorage(db)
	require.NoError(t, store.Migrate(context.Background()))
	return db, store
}
