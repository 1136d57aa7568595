package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/registru/internal/money"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// AccountTypes lists every account type in statement order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// Side is the debit or credit side of an account.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// ParseAccountType validates s as an account type.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown account type %q, expected one of %s", s, AccountTypeNames())
	}
	return t, nil
}

// AccountTypeNames returns the account types comma-separated, for help
// text and error messages.
func AccountTypeNames() string {
	names := make([]string, len(AccountTypes))
	for i, t := range AccountTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalSide is the side on which the account type accumulates value.
func (t AccountType) NormalSide() Side {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// IsFlow reports whether the type is measured as movement within a period
// (revenue, expense) rather than as a cumulative stock.
func (t AccountType) IsFlow() bool {
	return t == AccountTypeRevenue || t == AccountTypeExpense
}

// NetBalance applies the type's sign convention to debit and credit totals.
func (t AccountType) NetBalance(debit, credit money.Amount) money.Amount {
	if t.NormalSide() == SideDebit {
		return debit - credit
	}
	return credit - debit
}

// Account is one entry of the chart of accounts.
type Account struct {
	ID          string      `json:"id"`
	Code        string      `json:"code"` // human-assigned, e.g. "411"
	Name        string      `json:"name"`
	Type        AccountType `json:"type"`
	ParentID    string      `json:"parent_id,omitempty"` // "" = top-level
	Description string      `json:"description,omitempty"`
	Active      bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
}
