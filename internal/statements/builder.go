// Package statements shapes account balances into the trial balance, the
// income statement and the balance sheet. Integrity problems are reported
// in the result, never returned as errors.
package statements

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cleared-dev/registru/internal/balance"
	"github.com/cleared-dev/registru/internal/ledgererr"
	"github.com/cleared-dev/registru/internal/logging"
	"github.com/cleared-dev/registru/internal/metrics"
	"github.com/cleared-dev/registru/internal/model"
	"github.com/cleared-dev/registru/internal/money"
)

// InvalidPeriodError rejects a period that ends before it starts.
type InvalidPeriodError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("period start %s is after end %s", model.FormatDate(e.Start), model.FormatDate(e.End))
}

func (e *InvalidPeriodError) Unwrap() error { return ledgererr.ErrValidation }

// Builder produces financial statements.
type Builder struct {
	balances *balance.Engine
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithMetrics records report timings and integrity failures.
func WithMetrics(m *metrics.Metrics) Option { return func(b *Builder) { b.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(b *Builder) { b.log = l } }

// NewBuilder creates a Builder reading balances from engine.
func NewBuilder(engine *balance.Engine, opts ...Option) *Builder {
	b := &Builder{balances: engine}
	for _, opt := range opts {
		opt(b)
	}
	b.log = logging.OrDiscard(b.log)
	return b
}

// TrialBalance lists active accounts and accounts with postings up to
// asOf, ordered by code. Each row puts the account's excess on the side
// where it lies.
func (b *Builder) TrialBalance(ctx context.Context, asOf time.Time) (model.TrialBalance, error) {
	defer b.observe("trial_balance", time.Now())
	asOf = model.Date(asOf)

	snaps, err := b.balances.BalanceAsOfAll(ctx, asOf)
	if err != nil {
		return model.TrialBalance{}, err
	}

	tb := model.TrialBalance{AsOf: asOf}
	for _, s := range snaps.Sorted() {
		if !s.Active && s.Lines == 0 {
			continue
		}
		row := model.TrialBalanceRow{
			AccountID:  s.AccountID,
			Code:       s.Code,
			Name:       s.Name,
			Type:       s.Type,
			Active:     s.Active,
			NetBalance: s.NetBalance,
		}
		if excess := s.DebitTotal - s.CreditTotal; excess > 0 {
			row.DebitBalance = excess
		} else {
			row.CreditBalance = -excess
		}
		tb.TotalDebit += row.DebitBalance
		tb.TotalCredit += row.CreditBalance
		tb.Rows = append(tb.Rows, row)
	}
	tb.Balanced = tb.TotalDebit == tb.TotalCredit

	if !tb.Balanced {
		b.integrityFailure("trial_balance", tb.Err())
	}
	return tb, nil
}

// IncomeStatement reports revenue and expense movement within
// [start, end], both inclusive. Accounts without movement are omitted.
func (b *Builder) IncomeStatement(ctx context.Context, start, end time.Time) (model.IncomeStatement, error) {
	defer b.observe("income_statement", time.Now())
	start, end = model.Date(start), model.Date(end)
	if start.After(end) {
		return model.IncomeStatement{}, &InvalidPeriodError{Start: start, End: end}
	}

	at, err := b.balances.BalancesAt(ctx, start.AddDate(0, 0, -1), end)
	if err != nil {
		return model.IncomeStatement{}, err
	}
	before, after := at[0], at[1]

	is := model.IncomeStatement{PeriodStart: start, PeriodEnd: end}
	for _, s := range after.Sorted() {
		if !s.Type.IsFlow() {
			continue
		}
		movement := s.NetBalance - before[s.AccountID].NetBalance
		if movement.IsZero() {
			continue
		}
		line := model.StatementLine{AccountID: s.AccountID, Code: s.Code, Name: s.Name, Amount: movement}
		if s.Type == model.AccountTypeRevenue {
			is.Revenue = append(is.Revenue, line)
			is.TotalRevenue += movement
		} else {
			is.Expenses = append(is.Expenses, line)
			is.TotalExpenses += movement
		}
	}
	is.NetIncome = is.TotalRevenue - is.TotalExpenses
	return is, nil
}

// BalanceSheet reports cumulative stock balances at asOf. Revenue less
// expenses not yet closed into equity is carried as CurrentEarnings so a
// consistent ledger always balances; any remaining difference is flagged.
func (b *Builder) BalanceSheet(ctx context.Context, asOf time.Time) (model.BalanceSheet, error) {
	defer b.observe("balance_sheet", time.Now())
	asOf = model.Date(asOf)

	snaps, err := b.balances.BalanceAsOfAll(ctx, asOf)
	if err != nil {
		return model.BalanceSheet{}, err
	}

	bs := model.BalanceSheet{AsOf: asOf}
	var equity money.Amount
	for _, s := range snaps.Sorted() {
		if s.NetBalance.IsZero() {
			continue
		}
		line := model.StatementLine{AccountID: s.AccountID, Code: s.Code, Name: s.Name, Amount: s.NetBalance}
		switch s.Type {
		case model.AccountTypeAsset:
			bs.Assets = append(bs.Assets, line)
			bs.TotalAssets += s.NetBalance
		case model.AccountTypeLiability:
			bs.Liabilities = append(bs.Liabilities, line)
			bs.TotalLiabilities += s.NetBalance
		case model.AccountTypeEquity:
			bs.Equity = append(bs.Equity, line)
			equity += s.NetBalance
		case model.AccountTypeRevenue:
			bs.CurrentEarnings += s.NetBalance
		case model.AccountTypeExpense:
			bs.CurrentEarnings -= s.NetBalance
		}
	}
	bs.TotalEquity = equity + bs.CurrentEarnings
	bs.Discrepancy = bs.TotalAssets - (bs.TotalLiabilities + bs.TotalEquity)
	bs.Balanced = bs.Discrepancy.IsZero()

	if !bs.Balanced {
		b.integrityFailure("balance_sheet", bs.Err())
	}
	return bs, nil
}

func (b *Builder) observe(report string, start time.Time) {
	b.metrics.ObserveReport(report, time.Since(start))
}

func (b *Builder) integrityFailure(report string, err error) {
	b.metrics.RecordIntegrityFailure(report)
	b.log.Error("ledger integrity check failed", "report", report, "error", err)
}
