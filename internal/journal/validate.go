package journal

import (
	"strings"
	"time"

	"github.com/cleared-dev/registru/internal/model"
	"github.com/cleared-dev/registru/internal/money"
)

// LineInput is one line of a posting. The account is named by AccountID,
// or by AccountCode when AccountID is empty.
type LineInput struct {
	AccountID   string       `json:"account_id,omitempty"`
	AccountCode string       `json:"account_code,omitempty"`
	Description string       `json:"description,omitempty"`
	Debit       money.Amount `json:"debit_amount"`
	Credit      money.Amount `json:"credit_amount"`
}

func (l LineInput) ref() string {
	if id := strings.TrimSpace(l.AccountID); id != "" {
		return id
	}
	return strings.TrimSpace(l.AccountCode)
}

// PostParams describes a journal entry to post.
type PostParams struct {
	Date        time.Time
	Description string
	Reference   string
	Lines       []LineInput
}

// AccountLookup resolves account references during validation.
type AccountLookup interface {
	// LookupAccount finds an account by id, or by code when id is empty.
	// ok is false when no account matches.
	LookupAccount(id, code string) (acct model.Account, ok bool, err error)
}

// Validate checks p and returns its lines resolved to accounts. Checks run
// in order: header, line count, account references, line sides, balance.
// The first failing check decides the error.
func Validate(p PostParams, accounts AccountLookup) ([]model.JournalLine, error) {
	if p.Date.IsZero() {
		return nil, &InvalidEntryError{Field: "date", Reason: "is required"}
	}
	if len(p.Lines) < 2 {
		return nil, &InsufficientLinesError{Count: len(p.Lines)}
	}

	lines := make([]model.JournalLine, len(p.Lines))
	for i, in := range p.Lines {
		ref := in.ref()
		if ref == "" {
			return nil, &InvalidAccountError{Line: i + 1}
		}
		acct, ok, err := accounts.LookupAccount(strings.TrimSpace(in.AccountID), strings.TrimSpace(in.AccountCode))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &InvalidAccountError{AccountID: ref, Line: i + 1}
		}
		if !acct.Active {
			return nil, &InvalidAccountError{AccountID: ref, Line: i + 1, Inactive: true}
		}
		lines[i] = model.JournalLine{
			AccountID:   acct.ID,
			AccountCode: acct.Code,
			Description: strings.TrimSpace(in.Description),
			Debit:       in.Debit,
			Credit:      in.Credit,
			Order:       i + 1,
		}
	}

	for i, in := range p.Lines {
		switch {
		case in.Debit.IsNegative() || in.Credit.IsNegative():
			return nil, &InvalidLineError{Line: i + 1, Reason: "amounts must not be negative"}
		case in.Debit.IsZero() && in.Credit.IsZero():
			return nil, &InvalidLineError{Line: i + 1, Reason: "debit or credit must be non-zero"}
		case !in.Debit.IsZero() && !in.Credit.IsZero():
			return nil, &InvalidLineError{Line: i + 1, Reason: "only one of debit or credit may be non-zero"}
		case in.Debit > money.Max || in.Credit > money.Max:
			return nil, &InvalidLineError{Line: i + 1, Reason: "amount exceeds " + money.Max.String()}
		}
	}

	var debit, credit money.Amount
	for _, l := range lines {
		var okD, okC bool
		debit, okD = money.Add(debit, l.Debit)
		credit, okC = money.Add(credit, l.Credit)
		if !okD || !okC {
			return nil, &InvalidEntryError{Field: "lines", Reason: "totals overflow"}
		}
	}
	if debit != credit {
		return nil, &UnbalancedEntryError{DebitTotal: debit, CreditTotal: credit}
	}
	return lines, nil
}
