package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cleared-dev/registru/internal/events"
	"github.com/cleared-dev/registru/internal/id"
	"github.com/cleared-dev/registru/internal/ledgererr"
	"github.com/cleared-dev/registru/internal/logging"
	"github.com/cleared-dev/registru/internal/metrics"
	"github.com/cleared-dev/registru/internal/model"
	"github.com/cleared-dev/registru/internal/store"
)

// Ledger posts and reads journal entries.
type Ledger struct {
	db      *store.DB
	notify  *events.Notifier
	metrics *metrics.Metrics
	log     *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithNotifier publishes entry.posted after each committed entry.
func WithNotifier(n *events.Notifier) Option { return func(l *Ledger) { l.notify = n } }

// WithMetrics counts postings and rejections.
func WithMetrics(m *metrics.Metrics) Option { return func(l *Ledger) { l.metrics = m } }

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option { return func(l *Ledger) { l.log = log } }

// NewLedger creates a Ledger over db.
func NewLedger(db *store.DB, opts ...Option) *Ledger {
	l := &Ledger{db: db}
	for _, opt := range opts {
		opt(l)
	}
	l.log = logging.OrDiscard(l.log)
	return l
}

// Post validates p and persists it as one entry with the next number of
// its year. Nothing is written when validation fails.
func (l *Ledger) Post(ctx context.Context, p PostParams) (model.JournalEntry, error) {
	var entry model.JournalEntry
	err := l.db.Update(ctx, func(tx *gorm.DB) error {
		var err error
		entry, err = l.insert(tx, p, "")
		return err
	})
	if err != nil {
		return model.JournalEntry{}, l.rejected(err)
	}
	l.posted(ctx, entry)
	return entry, nil
}

// ReverseParams describes a reversing entry. A zero Date reuses the
// reversed entry's date; an empty Description is generated.
type ReverseParams struct {
	Date        time.Time
	Description string
}

// Reverse posts a new entry with the debit and credit sides of number
// swapped. An entry can be reversed once.
func (l *Ledger) Reverse(ctx context.Context, number string, p ReverseParams) (model.JournalEntry, error) {
	number = strings.TrimSpace(number)
	var entry model.JournalEntry
	err := l.db.Update(ctx, func(tx *gorm.DB) error {
		orig, err := loadEntry(tx, number)
		if err != nil {
			return err
		}

		var existing store.EntryRow
		err = tx.Select("number").Take(&existing, "reverses = ?", number).Error
		if err == nil {
			return &AlreadyReversedError{Number: number, ReversedBy: existing.Number}
		}
		if !store.IsNotFound(err) {
			return fmt.Errorf("checking reversals of %s: %w", number, err)
		}

		params := PostParams{
			Date:        p.Date,
			Description: p.Description,
			Reference:   orig.Reference,
			Lines:       make([]LineInput, len(orig.Lines)),
		}
		if params.Date.IsZero() {
			params.Date = orig.Date
		}
		if strings.TrimSpace(params.Description) == "" {
			params.Description = "Stornare " + number
			if orig.Description != "" {
				params.Description += ": " + orig.Description
			}
		}
		for i, line := range orig.Lines {
			params.Lines[i] = LineInput{
				AccountID:   line.AccountID,
				Description: line.Description,
				Debit:       line.Credit,
				Credit:      line.Debit,
			}
		}

		entry, err = l.insert(tx, params, number)
		return err
	})
	if err != nil {
		return model.JournalEntry{}, l.rejected(err)
	}
	l.posted(ctx, entry)
	return entry, nil
}

func (l *Ledger) insert(tx *gorm.DB, p PostParams, reverses string) (model.JournalEntry, error) {
	lines, err := Validate(p, &txAccounts{db: l.db, tx: tx, cache: make(map[string]model.Account)})
	if err != nil {
		return model.JournalEntry{}, err
	}

	date := model.Date(p.Date)
	year := date.Year()
	seq, err := store.NextEntrySeq(tx, year)
	if err != nil {
		return model.JournalEntry{}, err
	}

	entry := model.JournalEntry{
		ID:          id.New(),
		Number:      id.FormatEntryNumber(year, seq),
		Date:        date,
		Description: strings.TrimSpace(p.Description),
		Reference:   strings.TrimSpace(p.Reference),
		Reverses:    reverses,
		Lines:       lines,
		PostedAt:    time.Now().UTC(),
	}

	row := store.EntryRow{
		ID:          entry.ID,
		Number:      entry.Number,
		FiscalYear:  year,
		Seq:         seq,
		EntryDate:   model.FormatDate(date),
		Description: entry.Description,
		Reference:   entry.Reference,
		PostedAt:    entry.PostedAt,
		Lines:       make([]store.LineRow, len(lines)),
	}
	if reverses != "" {
		row.Reverses = &reverses
	}
	for i, line := range lines {
		row.Lines[i] = store.LineRow{
			AccountID:   line.AccountID,
			LineOrder:   line.Order,
			Description: line.Description,
			Debit:       int64(line.Debit),
			Credit:      int64(line.Credit),
		}
	}

	if err := tx.Create(&row).Error; err != nil {
		if reverses != "" && store.IsDuplicateKey(err) {
			return model.JournalEntry{}, &AlreadyReversedError{Number: reverses}
		}
		return model.JournalEntry{}, fmt.Errorf("inserting entry %s: %w", entry.Number, err)
	}
	return entry, nil
}

func (l *Ledger) rejected(err error) error {
	if errors.Is(err, ledgererr.ErrValidation) {
		reason := rejectReason(err)
		l.metrics.RecordPostingRejected(reason)
		l.log.Info("posting rejected", "reason", reason, "error", err)
	}
	return err
}

func (l *Ledger) posted(ctx context.Context, e model.JournalEntry) {
	l.log.Info("entry posted",
		"entry_number", e.Number,
		"date", model.FormatDate(e.Date),
		"lines", len(e.Lines),
		"total", e.TotalDebit().String(),
		"reverses", e.Reverses,
	)
	l.metrics.RecordEntryPosted(e.Reverses != "")
	l.notify.Notify(ctx, events.EntryPosted(e))
}

// Get returns the entry with the given number.
func (l *Ledger) Get(ctx context.Context, number string) (model.JournalEntry, error) {
	var entry model.JournalEntry
	err := l.db.View(ctx, func(tx *gorm.DB) error {
		var err error
		entry, err = loadEntry(tx, strings.TrimSpace(number))
		return err
	})
	return entry, err
}

// List returns the entries dated within r, ordered by entry number.
func (l *Ledger) List(ctx context.Context, r model.DateRange) ([]model.JournalEntry, error) {
	var rows []store.EntryRow
	err := l.db.View(ctx, func(tx *gorm.DB) error {
		q := withLines(tx).Order("fiscal_year").Order("seq")
		if !r.From.IsZero() {
			q = q.Where("entry_date >= ?", model.FormatDate(r.From))
		}
		if !r.To.IsZero() {
			q = q.Where("entry_date <= ?", model.FormatDate(r.To))
		}
		return q.Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}

	out := make([]model.JournalEntry, 0, len(rows))
	for _, row := range rows {
		e, err := row.Model()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func withLines(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_order") }).
		Preload("Lines.Account")
}

func loadEntry(tx *gorm.DB, number string) (model.JournalEntry, error) {
	var row store.EntryRow
	err := withLines(tx).Take(&row, "number = ?", number).Error
	if store.IsNotFound(err) {
		return model.JournalEntry{}, &ledgererr.NotFoundError{Entity: "entry", Key: number}
	}
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("loading entry %s: %w", number, err)
	}
	return row.Model()
}

// txAccounts resolves accounts inside the posting transaction. On postgres
// the rows are share-locked so a concurrent deactivation waits for the
// posting to finish.
type txAccounts struct {
	db    *store.DB
	tx    *gorm.DB
	cache map[string]model.Account
}

func (a *txAccounts) LookupAccount(accountID, code string) (model.Account, bool, error) {
	key := "id:" + accountID
	column, value := "id", accountID
	if accountID == "" {
		key = "code:" + code
		column, value = "code", code
	}
	if acct, ok := a.cache[key]; ok {
		return acct, true, nil
	}

	var row store.AccountRow
	err := a.db.ForShare(a.tx).Take(&row, column+" = ?", value).Error
	if store.IsNotFound(err) {
		return model.Account{}, false, nil
	}
	if err != nil {
		return model.Account{}, false, fmt.Errorf("resolving account %s: %w", value, err)
	}
	acct := row.Model()
	a.cache[key] = acct
	return acct, true, nil
}
