package store

import (
	"fmt"
	"time"

	"github.com/cleared-dev/registru/internal/model"
	"github.com/cleared-dev/registru/internal/money"
)

// AccountRow is a chart-of-accounts row. Accounts are never deleted.
type AccountRow struct {
	ID          string  `gorm:"primaryKey;size:36"`
	Code        string  `gorm:"size:32;not null;uniqueIndex"`
	Name        string  `gorm:"size:255;not null"`
	Type        string  `gorm:"size:16;not null"`
	ParentID    *string `gorm:"size:36;index"`
	Description string  `gorm:"size:1024"`
	Active      bool    `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (AccountRow) TableName() string { return "accounts" }

// EntryRow is a journal entry header.
type EntryRow struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Number      string    `gorm:"size:16;not null;uniqueIndex"`
	FiscalYear  int       `gorm:"not null;uniqueIndex:idx_entry_year_seq,priority:1"`
	Seq         int       `gorm:"not null;uniqueIndex:idx_entry_year_seq,priority:2"`
	EntryDate   string    `gorm:"size:10;not null;index"` // YYYY-MM-DD
	Description string    `gorm:"size:1024"`
	Reference   string    `gorm:"size:255"`
	Reverses    *string   `gorm:"size:16;uniqueIndex"`
	PostedAt    time.Time `gorm:"not null"`
	Lines       []LineRow `gorm:"foreignKey:EntryID;constraint:OnDelete:RESTRICT"`
}

func (EntryRow) TableName() string { return "journal_entries" }

// LineRow is one debit or credit line.
type LineRow struct {
	ID          uint        `gorm:"primaryKey"`
	EntryID     string      `gorm:"size:36;not null;index"`
	AccountID   string      `gorm:"size:36;not null;index"`
	Account     *AccountRow `gorm:"foreignKey:AccountID;references:ID;constraint:OnDelete:RESTRICT"`
	LineOrder   int         `gorm:"not null"`
	Description string      `gorm:"size:1024"`
	Debit       int64       `gorm:"not null"`
	Credit      int64       `gorm:"not null"`
}

func (LineRow) TableName() string { return "journal_lines" }

// SequenceRow holds the last entry number issued for a fiscal year.
type SequenceRow struct {
	FiscalYear int `gorm:"primaryKey;autoIncrement:false"`
	LastValue  int `gorm:"not null"`
}

func (SequenceRow) TableName() string { return "entry_sequences" }

// Migrate creates or updates the schema.
func (d *DB) Migrate() error {
	for _, m := range []any{&AccountRow{}, &EntryRow{}, &LineRow{}, &SequenceRow{}} {
		if err := d.gorm.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// AccountRowFrom converts a model account to its row.
func AccountRowFrom(a model.Account) AccountRow {
	row := AccountRow{
		ID:          a.ID,
		Code:        a.Code,
		Name:        a.Name,
		Type:        string(a.Type),
		Description: a.Description,
		Active:      a.Active,
		CreatedAt:   a.CreatedAt,
	}
	if a.ParentID != "" {
		parent := a.ParentID
		row.ParentID = &parent
	}
	return row
}

// Model converts the row to a model account.
func (r AccountRow) Model() model.Account {
	a := model.Account{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Type:        model.AccountType(r.Type),
		Description: r.Description,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt,
	}
	if r.ParentID != nil {
		a.ParentID = *r.ParentID
	}
	return a
}

// Model converts the row and its preloaded lines to a model entry.
func (r EntryRow) Model() (model.JournalEntry, error) {
	date, err := model.ParseDate(r.EntryDate)
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("entry %s: %w", r.Number, err)
	}
	e := model.JournalEntry{
		ID:          r.ID,
		Number:      r.Number,
		Date:        date,
		Description: r.Description,
		Reference:   r.Reference,
		PostedAt:    r.PostedAt,
		Lines:       make([]model.JournalLine, 0, len(r.Lines)),
	}
	if r.Reverses != nil {
		e.Reverses = *r.Reverses
	}
	for _, l := range r.Lines {
		line := model.JournalLine{
			AccountID:   l.AccountID,
			Description: l.Description,
			Debit:       money.Amount(l.Debit),
			Credit:      money.Amount(l.Credit),
			Order:       l.LineOrder,
		}
		if l.Account != nil {
			line.AccountCode = l.Account.Code
		}
		e.Lines = append(e.Lines, line)
	}
	return e, nil
}
