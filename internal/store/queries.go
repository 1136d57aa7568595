package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cleared-dev/registru/internal/model"
	"github.com/cleared-dev/registru/internal/money"
)

// NextEntrySeq allocates the next sequence number for a fiscal year inside
// tx. The increment holds the sequence row until tx ends, so concurrent
// postings queue behind each other and a rolled-back posting releases its
// number: numbering is gapless.
func NextEntrySeq(tx *gorm.DB, year int) (int, error) {
	seed := SequenceRow{FiscalYear: year}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, fmt.Errorf("seeding entry sequence %d: %w", year, err)
	}

	res := tx.Model(&SequenceRow{}).
		Where("fiscal_year = ?", year).
		UpdateColumn("last_value", gorm.Expr("last_value + 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("advancing entry sequence %d: %w", year, res.Error)
	}
	if res.RowsAffected != 1 {
		return 0, fmt.Errorf("advancing entry sequence %d: %d rows updated", year, res.RowsAffected)
	}

	var row SequenceRow
	if err := tx.Where("fiscal_year = ?", year).Take(&row).Error; err != nil {
		return 0, fmt.Errorf("reading entry sequence %d: %w", year, err)
	}
	return row.LastValue, nil
}

// AccountTotals is the debit and credit sum of one account's lines.
type AccountTotals struct {
	AccountID string
	Debit     money.Amount
	Credit    money.Amount
	LineCount int
}

type totalsRow struct {
	AccountID string
	Debit     int64
	Credit    int64
	LineCount int64
}

// SumByAccount aggregates lines of entries dated on or before asOf, per
// account. A zero asOf aggregates the whole history. With accountIDs the
// result is restricted to those accounts. Accounts without lines are absent.
func SumByAccount(tx *gorm.DB, asOf time.Time, accountIDs ...string) (map[string]AccountTotals, error) {
	q := tx.Table("journal_lines AS l").
		Select("l.account_id AS account_id, " +
			"CAST(COALESCE(SUM(l.debit), 0) AS BIGINT) AS debit, " +
			"CAST(COALESCE(SUM(l.credit), 0) AS BIGINT) AS credit, " +
			"COUNT(*) AS line_count").
		Joins("JOIN journal_entries AS e ON e.id = l.entry_id")
	if !asOf.IsZero() {
		q = q.Where("e.entry_date <= ?", model.FormatDate(asOf))
	}
	if len(accountIDs) > 0 {
		q = q.Where("l.account_id IN ?", accountIDs)
	}

	var rows []totalsRow
	if err := q.Group("l.account_id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("summing lines: %w", err)
	}

	out := make(map[string]AccountTotals, len(rows))
	for _, r := range rows {
		out[r.AccountID] = AccountTotals{
			AccountID: r.AccountID,
			Debit:     money.Amount(r.Debit),
			Credit:    money.Amount(r.Credit),
			LineCount: int(r.LineCount),
		}
	}
	return out, nil
}

// CountLines returns how many lines reference an account.
func CountLines(tx *gorm.DB, accountID string) (int64, error) {
	var n int64
	if err := tx.Model(&LineRow{}).Where("account_id = ?", accountID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting lines for account %s: %w", accountID, err)
	}
	return n, nil
}
