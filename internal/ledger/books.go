// Package ledger assembles the accounting engine for one set of books.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/registru/internal/accounts"
	"github.com/cleared-dev/registru/internal/balance"
	"github.com/cleared-dev/registru/internal/config"
	"github.com/cleared-dev/registru/internal/events"
	"github.com/cleared-dev/registru/internal/journal"
	"github.com/cleared-dev/registru/internal/ledgererr"
	"github.com/cleared-dev/registru/internal/logging"
	"github.com/cleared-dev/registru/internal/metrics"
	"github.com/cleared-dev/registru/internal/model"
	"github.com/cleared-dev/registru/internal/statements"
	"github.com/cleared-dev/registru/internal/store"
)

// Books is one business's ledger: chart of accounts, journal, balances and
// reports over a single database.
type Books struct {
	Accounts *accounts.Registry
	Journal  *journal.Ledger
	Balances *balance.Engine
	Reports  *statements.Builder
	Metrics  *metrics.Metrics

	db        *store.DB
	publisher events.Publisher
	log       *slog.Logger
}

// Options are the optional collaborators of New.
type Options struct {
	Metrics   *metrics.Metrics
	Publisher events.Publisher
	Logger    *slog.Logger
}

// New wires the engine over an open database. Books takes ownership of db
// and opts.Publisher: Close closes both.
func New(db *store.DB, opts Options) *Books {
	log := logging.OrDiscard(opts.Logger)
	pub := opts.Publisher
	if pub == nil {
		pub = events.NopPublisher{}
	}
	notifier := events.NewNotifier(pub, opts.Metrics, log)
	engine := balance.NewEngine(db)

	return &Books{
		Accounts: accounts.NewRegistry(db,
			accounts.WithNotifier(notifier),
			accounts.WithMetrics(opts.Metrics),
			accounts.WithLogger(log),
		),
		Journal: journal.NewLedger(db,
			journal.WithNotifier(notifier),
			journal.WithMetrics(opts.Metrics),
			journal.WithLogger(log),
		),
		Balances: engine,
		Reports: statements.NewBuilder(engine,
			statements.WithMetrics(opts.Metrics),
			statements.WithLogger(log),
		),
		Metrics:   opts.Metrics,
		db:        db,
		publisher: pub,
		log:       log,
	}
}

// Open connects to the database configured in cfg and wires the engine.
// A relative sqlite path is resolved against dir.
func Open(cfg *config.Config, dir string, log *slog.Logger) (*Books, error) {
	log = logging.OrDiscard(log)
	dsn := ResolveDSN(cfg.Database.Driver, cfg.Database.DSN, dir)

	db, err := store.Open(store.Options{
		Driver: cfg.Database.Driver,
		DSN:    dsn,
		Debug:  strings.EqualFold(cfg.Log.Level, "debug"),
		Logger: log,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("opened books", "driver", db.Driver(), "dsn", store.MaskDSN(dsn))

	var pub events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info("publishing ledger events", "brokers", strings.Join(cfg.Kafka.Brokers, ","), "topic", cfg.Kafka.Topic)
	}

	return New(db, Options{Metrics: metrics.New(), Publisher: pub, Logger: log}), nil
}

// ResolveDSN joins a relative sqlite path with dir. Other DSNs are returned
// unchanged.
func ResolveDSN(driver, dsn, dir string) string {
	if driver != "" && !strings.EqualFold(driver, store.DriverSQLite) {
		return dsn
	}
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") || filepath.IsAbs(dsn) {
		return dsn
	}
	return filepath.Join(dir, dsn)
}

// SeedDefaultChart imports the default chart for entityType into empty
// books. It returns how many accounts were created; books that already
// have accounts are left alone.
func (b *Books) SeedDefaultChart(ctx context.Context, entityType string) (int, error) {
	existing, err := b.Accounts.List(ctx, true)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	created, err := b.Accounts.Import(ctx, accounts.DefaultChart(entityType))
	if err != nil {
		return 0, fmt.Errorf("seeding default chart: %w", err)
	}
	return len(created), nil
}

// Ping checks the database connection.
func (b *Books) Ping(ctx context.Context) error {
	sqlDB, err := b.db.Gorm().DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ResolveAccount finds an account by code or, when no code matches, by id.
func (b *Books) ResolveAccount(ctx context.Context, ref string) (model.Account, error) {
	a, err := b.Accounts.GetByCode(ctx, ref)
	if !errors.Is(err, ledgererr.ErrNotFound) {
		return a, err
	}
	return b.Accounts.Get(ctx, ref)
}

// Close flushes the event publisher and closes the database.
func (b *Books) Close() error {
	return errors.Join(b.publisher.Close(), b.db.Close())
}
