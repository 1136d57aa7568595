package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/registru/internal/journal"
	"github.com/cleared-dev/registru/internal/model"
	"github.com/cleared-dev/registru/internal/money"
)

// readRecords reads a CSV file and checks its header. It returns the data
// rows only.
func readRecords(r io.Reader, header string) ([][]string, error) {
	want := strings.Split(header, ",")
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(want)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	got := records[0]
	got[0] = strings.TrimPrefix(got[0], "\ufeff")
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			return nil, fmt.Errorf("unexpected header %q, want %q", strings.Join(got, ","), header)
		}
	}
	return records[1:], nil
}

func parseAmount(s string) (money.Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return money.Zero, nil
	}
	return money.Parse(s)
}

// JournalParser reads the journal CSV written by "entries export". Rows
// with the same entry_number form one posting, described by the first
// row's entry_description. The reverses column is informational: imported
// entries get new numbers.
type JournalParser struct{}

const (
	jColNumber    = 0
	jColDate      = 1
	jColEntryDesc = 2
	jColCode      = 3
	jColLineDesc  = 4
	jColDebit     = 5
	jColCredit    = 6
	jColRef       = 7
)

// Format returns the parser name.
func (p *JournalParser) Format() string { return "journal" }

// Parse groups consecutive rows by entry number.
func (p *JournalParser) Parse(r io.Reader) ([]journal.PostParams, error) {
	records, err := readRecords(r, journal.Header)
	if err != nil {
		return nil, err
	}

	var (
		out     []journal.PostParams
		current string
	)
	for i, rec := range records {
		row := i + 2
		date, err := model.ParseDate(strings.TrimSpace(rec[jColDate]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		debit, err := parseAmount(rec[jColDebit])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing debit: %w", row, err)
		}
		credit, err := parseAmount(rec[jColCredit])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing credit: %w", row, err)
		}

		number := strings.TrimSpace(rec[jColNumber])
		if number == "" {
			return nil, fmt.Errorf("row %d: entry_number is empty", row)
		}
		if number != current || len(out) == 0 {
			current = number
			out = append(out, journal.PostParams{
				Date:        date,
				Description: rec[jColEntryDesc],
				Reference:   rec[jColRef],
			})
		}
		entry := &out[len(out)-1]
		if !entry.Date.Equal(date) {
			return nil, fmt.Errorf("row %d: entry %s has lines on %s and %s", row, number,
				model.FormatDate(entry.Date), model.FormatDate(date))
		}

		entry.Lines = append(entry.Lines, journal.LineInput{
			AccountCode: strings.TrimSpace(rec[jColCode]),
			Description: rec[jColLineDesc],
			Debit:       debit,
			Credit:      credit,
		})
	}
	return out, nil
}

// BankParser reads a bank statement with columns
// date,description,amount,reference. Money in debits BankAccount; money
// out credits it. The other side goes to SuspenseAccount until the
// transaction is identified.
type BankParser struct {
	BankAccount     string
	SuspenseAccount string
}

// BankHeader is the expected header of a bank statement CSV.
const BankHeader = "date,description,amount,reference"

const (
	bColDate   = 0
	bColDesc   = 1
	bColAmount = 2
	bColRef    = 3
)

// Format returns the parser name.
func (p *BankParser) Format() string { return "bank" }

// Parse returns one two-line posting per statement row.
func (p *BankParser) Parse(r io.Reader) ([]journal.PostParams, error) {
	records, err := readRecords(r, BankHeader)
	if err != nil {
		return nil, err
	}

	out := make([]journal.PostParams, 0, len(records))
	for i, rec := range records {
		e, err := p.parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (p *BankParser) parseRow(rec []string) (journal.PostParams, error) {
	date, err := model.ParseDate(strings.TrimSpace(rec[bColDate]))
	if err != nil {
		return journal.PostParams{}, err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(rec[bColAmount]))
	if err != nil {
		return journal.PostParams{}, fmt.Errorf("parsing amount %q: %w", rec[bColAmount], err)
	}
	amount, err := money.FromDecimal(d)
	if err != nil {
		return journal.PostParams{}, fmt.Errorf("parsing amount %q: %w", rec[bColAmount], err)
	}
	if amount.IsZero() {
		return journal.PostParams{}, fmt.Errorf("amount is zero")
	}

	desc := strings.TrimSpace(rec[bColDesc])
	ref := strings.TrimSpace(rec[bColRef])
	if ref == "" {
		ref = makeBankRef(date, desc)
	}

	bank := journal.LineInput{AccountCode: p.BankAccount}
	suspense := journal.LineInput{AccountCode: p.SuspenseAccount}
	if amount.IsNegative() {
		suspense.Debit, bank.Credit = amount.Abs(), amount.Abs()
		return journal.PostParams{Date: date, Description: desc, Reference: ref,
			Lines: []journal.LineInput{suspense, bank}}, nil
	}
	bank.Debit, suspense.Credit = amount, amount
	return journal.PostParams{Date: date, Description: desc, Reference: ref,
		Lines: []journal.LineInput{bank, suspense}}, nil
}

// makeBankRef creates a reference like bank_20250103_ORANGEROMA.
func makeBankRef(date time.Time, desc string) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("bank_%s_%s", date.Format("20060102"), prefix)
}
