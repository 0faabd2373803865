package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteFile(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "state.db")

	db, err := Open("sqlite", dsn, false)
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, NewGormStorage(db).Migrate(context.Background()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "dsn", false)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestOpen_PostgresRequiresDSN(t *testing.T) {
	_, err := Open("postgres", "", false)
	assert.Error(t, err)
}
