package storage

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// PoolConfig sizes the connection pool behind a state database. Zero
// durations mean no limit.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// PoolFor returns the pool used for driver.
//
// SQLite gets a single connection: it allows one writer, and ":memory:"
// databases are only shared within one connection. A batch run is one
// worker plus the submitting side, so a server database needs few
// connections either.
func PoolFor(driver string) PoolConfig {
	switch strings.ToLower(driver) {
	case DriverPostgres, "postgresql", "pg":
		return PoolConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		}
	default:
		return PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1}
	}
}

// PoolOption overrides one pool setting.
type PoolOption func(*PoolConfig)

// MaxOpenConns caps open connections.
func MaxOpenConns(n int) PoolOption {
	return func(c *PoolConfig) { c.MaxOpenConns = n }
}

// MaxIdleConns caps idle connections. Keep it at or below MaxOpenConns.
func MaxIdleConns(n int) PoolOption {
	return func(c *PoolConfig) { c.MaxIdleConns = n }
}

// ConnMaxLifetime retires connections older than d.
func ConnMaxLifetime(d time.Duration) PoolOption {
	return func(c *PoolConfig) { c.ConnMaxLifetime = d }
}

// ConnMaxIdleTime closes connections idle for longer than d.
func ConnMaxIdleTime(d time.Duration) PoolOption {
	return func(c *PoolConfig) { c.ConnMaxIdleTime = d }
}

// With returns a copy of c with opts applied.
func (c PoolConfig) With(opts ...PoolOption) PoolConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply sets the pool limits on db's underlying *sql.DB.
func (c PoolConfig) Apply(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("storage: pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(c.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(c.ConnMaxIdleTime)
	return nil
}
