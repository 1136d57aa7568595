package model

import (
	"encoding/json"
	"time"

	"github.com/cleared-dev/registru/internal/money"
)

// JournalEntry is a posted, balanced transaction. Entries are immutable;
// corrections are new entries that reference the entry they reverse.
type JournalEntry struct {
	ID          string        `json:"id"`
	Number      string        `json:"entry_number"` // "YYYY-NNNNNN"
	Date        time.Time     `json:"-"`
	Description string        `json:"description"`
	Reference   string        `json:"reference_document,omitempty"`
	Reverses    string        `json:"reverses,omitempty"` // entry number, reversing entries only
	Lines       []JournalLine `json:"lines"`
	PostedAt    time.Time     `json:"posted_at"`
}

// JournalLine is one debit or credit line of an entry.
type JournalLine struct {
	AccountID   string       `json:"account_id"`
	AccountCode string       `json:"account_code"`
	Description string       `json:"description,omitempty"`
	Debit       money.Amount `json:"debit_amount"`  // zero if credit side
	Credit      money.Amount `json:"credit_amount"` // zero if debit side
	Order       int          `json:"line_order"`
}

// TotalDebit sums the debit side of the entry. Validated entries never
// overflow; a sum that would is reported as zero.
func (e JournalEntry) TotalDebit() money.Amount {
	total, _ := e.sum(func(l JournalLine) money.Amount { return l.Debit })
	return total
}

// TotalCredit sums the credit side of the entry.
func (e JournalEntry) TotalCredit() money.Amount {
	total, _ := e.sum(func(l JournalLine) money.Amount { return l.Credit })
	return total
}

// IsBalanced reports whether debits equal credits exactly.
func (e JournalEntry) IsBalanced() bool {
	debit, okD := e.sum(func(l JournalLine) money.Amount { return l.Debit })
	credit, okC := e.sum(func(l JournalLine) money.Amount { return l.Credit })
	return okD && okC && debit == credit
}

func (e JournalEntry) sum(side func(JournalLine) money.Amount) (money.Amount, bool) {
	amounts := make([]money.Amount, len(e.Lines))
	for i, l := range e.Lines {
		amounts[i] = side(l)
	}
	return money.Sum(amounts...)
}

// MarshalJSON writes Date as a calendar date.
func (e JournalEntry) MarshalJSON() ([]byte, error) {
	type plain JournalEntry
	return json.Marshal(struct {
		plain
		Date        string       `json:"date"`
		TotalDebit  money.Amount `json:"total_debit"`
		TotalCredit money.Amount `json:"total_credit"`
		IsBalanced  bool         `json:"is_balanced"`
	}{
		plain:       plain(e),
		Date:        FormatDate(e.Date),
		TotalDebit:  e.TotalDebit(),
		TotalCredit: e.TotalCredit(),
		IsBalanced:  e.IsBalanced(),
	})
}
