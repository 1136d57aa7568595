package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cleared-dev/registru/internal/ledgererr"
	"github.com/cleared-dev/registru/internal/money"
)

// BalanceSnapshot is an account's accumulated position as of a date. It is
// derived from postings and never stored.
type BalanceSnapshot struct {
	AccountID   string
	Code        string
	Name        string
	Type        AccountType
	Active      bool
	AsOf        time.Time
	DebitTotal  money.Amount
	CreditTotal money.Amount
	NetBalance  money.Amount // signed per the type's normal side
	Lines       int          // lines aggregated
}

// TrialBalanceRow is one account in a trial balance. At most one of
// DebitBalance and CreditBalance is non-zero.
type TrialBalanceRow struct {
	AccountID     string       `json:"account_id"`
	Code          string       `json:"code"`
	Name          string       `json:"name"`
	Type          AccountType  `json:"type"`
	Active        bool         `json:"is_active"`
	DebitBalance  money.Amount `json:"debit_balance"`
	CreditBalance money.Amount `json:"credit_balance"`
	NetBalance    money.Amount `json:"net_balance"`
}

// TrialBalance lists every account's balance at a point in time.
type TrialBalance struct {
	AsOf        time.Time
	Rows        []TrialBalanceRow
	TotalDebit  money.Amount
	TotalCredit money.Amount
	Balanced    bool
}

// StatementLine is one account's contribution to a statement.
type StatementLine struct {
	AccountID string       `json:"account_id"`
	Code      string       `json:"code"`
	Name      string       `json:"name"`
	Amount    money.Amount `json:"amount"`
}

// IncomeStatement reports revenue and expense movement within a period.
type IncomeStatement struct {
	PeriodStart   time.Time
	PeriodEnd     time.Time
	Revenue       []StatementLine
	Expenses      []StatementLine
	TotalRevenue  money.Amount
	TotalExpenses money.Amount
	NetIncome     money.Amount
}

// BalanceSheet reports cumulative asset, liability and equity balances.
// CurrentEarnings is revenue less expenses not yet closed into an equity
// account; it is part of TotalEquity.
type BalanceSheet struct {
	AsOf             time.Time
	Assets           []StatementLine
	Liabilities      []StatementLine
	Equity           []StatementLine
	CurrentEarnings  money.Amount
	TotalAssets      money.Amount
	TotalLiabilities money.Amount
	TotalEquity      money.Amount
	Balanced         bool
	Discrepancy      money.Amount // TotalAssets - (TotalLiabilities + TotalEquity)
}

// MarshalJSON writes AsOf as a calendar date.
func (s BalanceSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		AccountID   string       `json:"account_id"`
		Code        string       `json:"code"`
		Name        string       `json:"name"`
		Type        AccountType  `json:"type"`
		Active      bool         `json:"is_active"`
		AsOf        string       `json:"as_of_date"`
		DebitTotal  money.Amount `json:"debit_total"`
		CreditTotal money.Amount `json:"credit_total"`
		NetBalance  money.Amount `json:"net_balance"`
		Lines       int          `json:"lines"`
	}{s.AccountID, s.Code, s.Name, s.Type, s.Active, FormatDate(s.AsOf), s.DebitTotal, s.CreditTotal, s.NetBalance, s.Lines})
}

// MarshalJSON writes AsOf as a calendar date.
func (tb TrialBalance) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		AsOf        string            `json:"as_of_date"`
		Rows        []TrialBalanceRow `json:"rows"`
		TotalDebit  money.Amount      `json:"total_debit"`
		TotalCredit money.Amount      `json:"total_credit"`
		Balanced    bool              `json:"is_balanced"`
	}{FormatDate(tb.AsOf), nonNil(tb.Rows), tb.TotalDebit, tb.TotalCredit, tb.Balanced})
}

// MarshalJSON writes the period bounds as calendar dates.
func (is IncomeStatement) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		PeriodStart   string          `json:"period_start"`
		PeriodEnd     string          `json:"period_end"`
		Revenue       []StatementLine `json:"revenue_accounts"`
		Expenses      []StatementLine `json:"expense_accounts"`
		TotalRevenue  money.Amount    `json:"total_revenue"`
		TotalExpenses money.Amount    `json:"total_expenses"`
		NetIncome     money.Amount    `json:"net_income"`
	}{FormatDate(is.PeriodStart), FormatDate(is.PeriodEnd), nonNil(is.Revenue), nonNil(is.Expenses), is.TotalRevenue, is.TotalExpenses, is.NetIncome})
}

// MarshalJSON writes AsOf as a calendar date.
func (bs BalanceSheet) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		AsOf             string          `json:"as_of_date"`
		Assets           []StatementLine `json:"assets"`
		Liabilities      []StatementLine `json:"liabilities"`
		Equity           []StatementLine `json:"equity"`
		CurrentEarnings  money.Amount    `json:"current_earnings"`
		TotalAssets      money.Amount    `json:"total_assets"`
		TotalLiabilities money.Amount    `json:"total_liabilities"`
		TotalEquity      money.Amount    `json:"total_equity"`
		Balanced         bool            `json:"is_balanced"`
		Discrepancy      money.Amount    `json:"discrepancy"`
	}{FormatDate(bs.AsOf), nonNil(bs.Assets), nonNil(bs.Liabilities), nonNil(bs.Equity), bs.CurrentEarnings, bs.TotalAssets, bs.TotalLiabilities, bs.TotalEquity, bs.Balanced, bs.Discrepancy})
}

// Err returns an integrity error when debit and credit balances differ.
func (tb TrialBalance) Err() error {
	if tb.Balanced {
		return nil
	}
	return &ledgererr.IntegrityError{
		Report: "trial balance " + FormatDate(tb.AsOf),
		Detail: fmt.Sprintf("debit balances %s, credit balances %s", tb.TotalDebit, tb.TotalCredit),
	}
}

// Err returns an integrity error when assets differ from liabilities plus
// equity.
func (bs BalanceSheet) Err() error {
	if bs.Balanced {
		return nil
	}
	return &ledgererr.IntegrityError{
		Report: "balance sheet " + FormatDate(bs.AsOf),
		Detail: fmt.Sprintf("assets %s, liabilities and equity %s, discrepancy %s",
			bs.TotalAssets, bs.TotalLiabilities+bs.TotalEquity, bs.Discrepancy),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
