// Package sqlite manages the embedded SQLite store: connection setup, schema
// migration, and the repository implementations under repositories/.
//
// The store is single-writer: one process, one background poller. No locking
// is layered on top of SQLite's own transaction semantics.
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/uspto-tools/pairwatch/internal/config"
	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
	"github.com/uspto-tools/pairwatch/pkg/errors"
)

// Open connects to the SQLite database at cfg.Path, creating the parent
// directory and the schema on first use.
//
// SQLite ships with foreign-key enforcement off; the cascade-delete invariant
// depends on it, so it is switched on per connection via the DSN pragma, not
// globally, which SQLite does not support.
func Open(cfg config.DatabaseConfig, log logging.Logger) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to create database directory")
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to open database")
	}

	// One writer at a time keeps SQLITE_BUSY off the hot path entirely.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to access connection pool")
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("connected to SQLite store", logging.String("path", cfg.Path))
	return db, nil
}

// OpenInMemory returns a migrated in-memory database for tests.
func OpenInMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to open in-memory database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to access connection pool")
	}
	// A second connection would see a different empty :memory: database.
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or evolves the schema for every tracked entity.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&tracking.Patent{},
		&tracking.Event{},
		&tracking.Continuity{},
		&tracking.Document{},
		&tracking.Assignment{},
		&tracking.Setting{},
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "schema migration failed")
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to access connection pool")
	}
	return sqlDB.Close()
}
