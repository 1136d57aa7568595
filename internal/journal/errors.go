package journal

import (
	"errors"
	"fmt"

	"github.com/cleared-dev/registru/internal/ledgererr"
	"github.com/cleared-dev/registru/internal/money"
)

// InsufficientLinesError rejects an entry with fewer than two lines.
type InsufficientLinesError struct {
	Count int
}

func (e *InsufficientLinesError) Error() string {
	return fmt.Sprintf("entry needs at least 2 lines, got %d", e.Count)
}

func (e *InsufficientLinesError) Unwrap() error { return ledgererr.ErrValidation }

// InvalidAccountError rejects a line whose account is unknown or inactive.
// AccountID holds the reference as given: an id, or a code.
type InvalidAccountError struct {
	AccountID string
	Line      int
	Inactive  bool
}

func (e *InvalidAccountError) Error() string {
	if e.Inactive {
		return fmt.Sprintf("line %d: account %q is inactive", e.Line, e.AccountID)
	}
	return fmt.Sprintf("line %d: account %q does not exist", e.Line, e.AccountID)
}

func (e *InvalidAccountError) Unwrap() error { return ledgererr.ErrValidation }

// InvalidLineError rejects a line without exactly one positive side.
type InvalidLineError struct {
	Line   int
	Reason string
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *InvalidLineError) Unwrap() error { return ledgererr.ErrValidation }

// UnbalancedEntryError rejects an entry whose debits and credits differ.
type UnbalancedEntryError struct {
	DebitTotal  money.Amount
	CreditTotal money.Amount
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("entry does not balance: debit %s, credit %s", e.DebitTotal, e.CreditTotal)
}

func (e *UnbalancedEntryError) Unwrap() error { return ledgererr.ErrValidation }

// InvalidEntryError rejects a malformed entry header.
type InvalidEntryError struct {
	Field  string
	Reason string
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("entry %s %s", e.Field, e.Reason)
}

func (e *InvalidEntryError) Unwrap() error { return ledgererr.ErrValidation }

// AlreadyReversedError rejects a second reversal of the same entry.
type AlreadyReversedError struct {
	Number     string
	ReversedBy string
}

func (e *AlreadyReversedError) Error() string {
	if e.ReversedBy == "" {
		return fmt.Sprintf("entry %s is already reversed", e.Number)
	}
	return fmt.Sprintf("entry %s is already reversed by %s", e.Number, e.ReversedBy)
}

func (e *AlreadyReversedError) Unwrap() error { return ledgererr.ErrValidation }

// rejectReason labels a validation failure for metrics.
func rejectReason(err error) string {
	var (
		insufficient *InsufficientLinesError
		account      *InvalidAccountError
		line         *InvalidLineError
		unbalanced   *UnbalancedEntryError
		header       *InvalidEntryError
		reversed     *AlreadyReversedError
	)
	switch {
	case errors.As(err, &insufficient):
		return "insufficient_lines"
	case errors.As(err, &account):
		return "invalid_account"
	case errors.As(err, &line):
		return "invalid_line"
	case errors.As(err, &unbalanced):
		return "unbalanced"
	case errors.As(err, &header):
		return "invalid_entry"
	case errors.As(err, &reversed):
		return "already_reversed"
	case errors.Is(err, ledgererr.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
