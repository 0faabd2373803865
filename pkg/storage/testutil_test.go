package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// openTestDB returns a migrated, empty state database. TEST_DATABASE_URL
// selects PostgreSQL; the default is a private in-memory SQLite database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	driver, dsn := DriverSQLite, ":memory:"
	var opts []PoolOption
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		driver, dsn = DriverPostgres, url
		opts = append(opts, MaxOpenConns(2), MaxIdleConns(1))
	}

	db, err := Open(driver, dsn, false, opts...)
	require.NoError(t, err, "open %s test db", driver)
	require.NoError(t, NewGormStorage(db).Migrate(context.Background()))

	truncate := func() {
		if driver == DriverPostgres {
			db.Exec("DELETE FROM jobs")
			db.Exec("DELETE FROM runs")
		}
	}
	truncate()
	t.Cleanup(func() {
		truncate()
		_ = Close(db)
	})
	return db
}
