package accounts

import (
	"fmt"

	"github.com/cleared-dev/registru/internal/ledgererr"
	"github.com/cleared-dev/registru/internal/money"
)

// ValidationError reports a malformed account field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("account %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ledgererr.ErrValidation }

// DuplicateCodeError reports a code already used by an active or inactive
// account.
type DuplicateCodeError struct {
	Code string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("account code %q already exists", e.Code)
}

func (e *DuplicateCodeError) Unwrap() error { return ledgererr.ErrValidation }

// CyclicHierarchyError reports a parent that does not exist or that would
// make the account its own ancestor.
type CyclicHierarchyError struct {
	AccountID string
	ParentID  string
	Missing   bool
}

func (e *CyclicHierarchyError) Error() string {
	if e.Missing {
		return fmt.Sprintf("parent account %q does not exist", e.ParentID)
	}
	return fmt.Sprintf("parent %q would make account %q its own ancestor", e.ParentID, e.AccountID)
}

func (e *CyclicHierarchyError) Unwrap() error { return ledgererr.ErrValidation }

// NonZeroBalanceError blocks deactivating an account with an open balance.
type NonZeroBalanceError struct {
	AccountID string
	Code      string
	Balance   money.Amount
}

func (e *NonZeroBalanceError) Error() string {
	return fmt.Sprintf("account %s has balance %s, it must be zero before deactivation", e.Code, e.Balance)
}

func (e *NonZeroBalanceError) Unwrap() error { return ledgererr.ErrValidation }

// TypeLockedError blocks changing the type of an account that has postings.
type TypeLockedError struct {
	AccountID string
	Code      string
	Lines     int64
}

func (e *TypeLockedError) Error() string {
	return fmt.Sprintf("account %s is referenced by %d journal lines, its type cannot change", e.Code, e.Lines)
}

func (e *TypeLockedError) Unwrap() error { return ledgererr.ErrValidation }
