// Package store owns the ledger's relational schema and transaction
// boundaries. It runs on sqlite for single-user books and tests, and on
// postgres for shared books.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/cleared-dev/registru/internal/logging"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and tunes the database.
type Options struct {
	Driver string
	DSN    string
	Debug  bool // log SQL statements
	Logger *slog.Logger
}

// DB wraps a gorm handle with the ledger's transaction helpers.
type DB struct {
	gorm   *gorm.DB
	driver string
	log    *slog.Logger
}

// Open connects, configures the pool and migrates the schema.
func Open(opts Options) (*DB, error) {
	driver := strings.ToLower(opts.Driver)
	if driver == "" {
		driver = DriverSQLite
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		if opts.DSN == "" {
			return nil, errors.New("sqlite database path is empty")
		}
		dialector = sqlite.Open(sqliteDSN(opts.DSN))
	case DriverPostgres:
		dsn := NormalizeDSN(opts.DSN)
		if dsn == "" {
			return nil, errors.New("postgres DSN is empty, set database.dsn or DATABASE_DSN")
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	logLevel := logger.Silent
	if opts.Debug {
		logLevel = logger.Info
	}
	g, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	sqlDB, err := g.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql handle: %w", err)
	}
	if driver == DriverSQLite {
		// One connection: sqlite has a single writer, and ":memory:"
		// databases exist per connection.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	db := &DB{gorm: g, driver: driver, log: logging.OrDiscard(opts.Logger)}
	if err := db.Migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	db.log.Debug("database ready", "driver", driver)
	return db, nil
}

// sqliteDSN enables foreign keys and starts every transaction with
// BEGIN IMMEDIATE, so a second process writing the same file waits on the
// busy timeout instead of failing a shared-to-reserved lock upgrade.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}

// Driver returns "sqlite" or "postgres".
func (d *DB) Driver() string { return d.driver }

// Gorm returns the underlying handle for non-transactional reads.
func (d *DB) Gorm() *gorm.DB { return d.gorm }

// Close releases the connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Update runs fn in a read-write transaction. Returning an error rolls
// back everything fn wrote, including allocated entry numbers.
func (d *DB) Update(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.gorm.WithContext(ctx).Transaction(fn)
}

// View runs fn in a transaction that sees one consistent snapshot of the
// ledger: no posting that commits meanwhile is partially visible.
func (d *DB) View(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if d.driver == DriverPostgres {
		return d.gorm.WithContext(ctx).Transaction(fn, &sql.TxOptions{
			Isolation: sql.LevelRepeatableRead,
			ReadOnly:  true,
		})
	}
	return d.gorm.WithContext(ctx).Transaction(fn)
}

// ForUpdate locks selected rows until the transaction ends. sqlite already
// serialises writers, so only postgres gets a locking clause.
func (d *DB) ForUpdate(tx *gorm.DB) *gorm.DB {
	if d.driver == DriverPostgres {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// ForShare takes a shared lock on selected rows (postgres only).
func (d *DB) ForShare(tx *gorm.DB) *gorm.DB {
	if d.driver == DriverPostgres {
		return tx.Clauses(clause.Locking{Strength: "SHARE"})
	}
	return tx
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsNotFound reports whether err is gorm's record-not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
