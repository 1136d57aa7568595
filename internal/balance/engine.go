// Package balance aggregates journal lines into account balances as of a
// date. Every result is computed from one consistent read of the ledger.
package balance

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cleared-dev/registru/internal/ledgererr"
	"github.com/cleared-dev/registru/internal/model"
	"github.com/cleared-dev/registru/internal/store"
)

// Snapshots maps account id to its balance.
type Snapshots map[string]model.BalanceSnapshot

// Engine computes balances. It holds no state besides the database.
type Engine struct {
	db *store.DB
}

// NewEngine creates an Engine over db.
func NewEngine(db *store.DB) *Engine {
	return &Engine{db: db}
}

// BalanceAsOf returns one account's balance over entries dated on or
// before asOf. Inactive accounts keep their history.
func (e *Engine) BalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (model.BalanceSnapshot, error) {
	asOf = model.Date(asOf)
	var snap model.BalanceSnapshot
	err := e.db.View(ctx, func(tx *gorm.DB) error {
		var row store.AccountRow
		err := tx.Take(&row, "id = ?", accountID).Error
		if store.IsNotFound(err) {
			return &ledgererr.NotFoundError{Entity: "account", Key: accountID}
		}
		if err != nil {
			return fmt.Errorf("loading account %s: %w", accountID, err)
		}

		totals, err := store.SumByAccount(tx, asOf, accountID)
		if err != nil {
			return err
		}
		snap = Snapshot(row.Model(), asOf, totals[accountID])
		return nil
	})
	return snap, err
}

// BalanceAsOfAll returns the balance of every account, including accounts
// without lines, as of asOf.
func (e *Engine) BalanceAsOfAll(ctx context.Context, asOf time.Time) (Snapshots, error) {
	all, err := e.BalancesAt(ctx, asOf)
	if err != nil {
		return nil, err
	}
	return all[0], nil
}

// BalancesAt computes the balances of every account at each date from the
// same read snapshot, so differences between dates are exact.
func (e *Engine) BalancesAt(ctx context.Context, dates ...time.Time) ([]Snapshots, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	out := make([]Snapshots, len(dates))
	err := e.db.View(ctx, func(tx *gorm.DB) error {
		var rows []store.AccountRow
		if err := tx.Order("code").Find(&rows).Error; err != nil {
			return fmt.Errorf("loading accounts: %w", err)
		}
		accts := make([]model.Account, len(rows))
		for i, row := range rows {
			accts[i] = row.Model()
		}

		for i, d := range dates {
			d = model.Date(d)
			totals, err := store.SumByAccount(tx, d)
			if err != nil {
				return err
			}
			snaps := make(Snapshots, len(accts))
			for _, a := range accts {
				snaps[a.ID] = Snapshot(a, d, totals[a.ID])
			}
			out[i] = snaps
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Snapshot applies the account's sign convention to its totals.
func Snapshot(a model.Account, asOf time.Time, t store.AccountTotals) model.BalanceSnapshot {
	return model.BalanceSnapshot{
		AccountID:   a.ID,
		Code:        a.Code,
		Name:        a.Name,
		Type:        a.Type,
		Active:      a.Active,
		AsOf:        asOf,
		DebitTotal:  t.Debit,
		CreditTotal: t.Credit,
		NetBalance:  a.Type.NetBalance(t.Debit, t.Credit),
		Lines:       t.LineCount,
	}
}

// Sorted returns the snapshots ordered by account code.
func (s Snapshots) Sorted() []model.BalanceSnapshot {
	out := make([]model.BalanceSnapshot, 0, len(s))
	for _, snap := range s {
		out = append(out, snap)
	}
	slices.SortFunc(out, func(a, b model.BalanceSnapshot) int { return strings.Compare(a.Code, b.Code) })
	return out
}
