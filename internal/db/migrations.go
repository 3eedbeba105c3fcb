package db

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/httpfs"
)

const (
	// CacheSchemaVersion is the newest cache schema this binary knows.
	// A cache file written by a newer booksum is refused rather than
	// migrated down.
	CacheSchemaVersion uint = 1
)

// MigrationTarget moves the cache schema to some version. fromVersion is the
// schema version found in the file, -1 when it has none yet.
type MigrationTarget func(mig *migrate.Migrate, fromVersion int,
	newest uint) error

var (
	// TargetLatest applies every pending migration.
	TargetLatest = func(mig *migrate.Migrate, _ int, _ uint) error {
		return mig.Up()
	}

	// TargetVersion moves the schema to exactly version.
	TargetVersion = func(version uint) MigrationTarget {
		return func(mig *migrate.Migrate, _ int, _ uint) error {
			return mig.Migrate(version)
		}
	}
)

// ErrMigrationDowngrade means the cache file was written by a newer schema.
var ErrMigrationDowngrade = errors.New("cache schema is newer than binary")

type migrateOptions struct {
	newest uint
}

// MigrateOpt adjusts a migration run.
type MigrateOpt func(*migrateOptions)

// WithLatestVersion overrides the newest known schema version.
func WithLatestVersion(version uint) MigrateOpt {
	return func(o *migrateOptions) {
		o.newest = version
	}
}

// slogMigrateLogger routes migrate's progress output to debug logs.
type slogMigrateLogger struct {
	log *slog.Logger
}

func (l *slogMigrateLogger) Printf(format string, v ...any) {
	l.log.Debug(strings.TrimRight(fmt.Sprintf(format, v...), "\n"))
}

func (l *slogMigrateLogger) Verbose() bool {
	return true
}

// runCacheMigrations brings the cache schema served from fsys to target.
// Dirty files and files from a newer schema are rejected untouched.
func runCacheMigrations(fsys fs.FS, driver database.Driver,
	target MigrationTarget, opts migrateOptions, log *slog.Logger) error {

	src, err := httpfs.New(http.FS(fsys), "migrations")
	if err != nil {
		return fmt.Errorf("open cache migrations: %w", err)
	}

	mig, err := migrate.NewWithInstance("cache", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("init cache migrator: %w", err)
	}

	version, dirty, err := mig.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		// Fresh file.

	case err != nil:
		return fmt.Errorf("read cache schema version: %w", err)

	case dirty:
		return fmt.Errorf("cache schema %d is dirty, delete the cache "+
			"file to rebuild it", version)

	case version > opts.newest:
		return fmt.Errorf("%w: file has schema %d, binary knows %d",
			ErrMigrationDowngrade, version, opts.newest)
	}

	from, _, err := driver.Version()
	if err != nil {
		return fmt.Errorf("read cache schema version: %w", err)
	}

	mig.Log = &slogMigrateLogger{log: log}
	err = target(mig, from, opts.newest)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate cache schema: %w", err)
	}

	to, _, err := driver.Version()
	if err != nil {
		return fmt.Errorf("read cache schema version: %w", err)
	}
	log.Debug("Cache schema ready", "from_version", from,
		"to_version", to)

	return nil
}

// Migrate applies every pending embedded migration to db.
func Migrate(db *sql.DB, log *slog.Logger, opts ...MigrateOpt) error {
	return MigrateTo(db, TargetLatest, log, opts...)
}

// MigrateTo migrates db to the given target using the embedded migrations.
func MigrateTo(db *sql.DB, target MigrationTarget, log *slog.Logger,
	opts ...MigrateOpt) error {

	if log == nil {
		log = slog.Default()
	}

	migOpts := migrateOptions{newest: CacheSchemaVersion}
	for _, opt := range opts {
		opt(&migOpts)
	}

	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("unable to create migration driver: %w", err)
	}

	return runCacheMigrations(cacheSchemas, driver, target, migOpts, log)
}
