package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/registru/internal/model"
)

// Header is the CSV header of a journal export, one row per line. The
// entry's description repeats on each of its rows; line_description is
// the line's own, often empty.
const Header = "entry_number,date,entry_description,account_code,line_description,debit,credit,reference,reverses"

const (
	numFields    = 9
	colNumber    = 0
	colDate      = 1
	colEntryDesc = 2
	colCode      = 3
	colLineDesc  = 4
	colDebit     = 5
	colCredit    = 6
	colRef       = 7
	colReverses  = 8
)

// WriteLines writes entries as CSV, one row per line, header included.
func WriteLines(w io.Writer, entries []model.JournalEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := 1
	for _, e := range entries {
		for _, line := range e.Lines {
			row++
			if err := cw.Write(MarshalLine(e, line)); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
		}
	}
	return cw.Error()
}

// MarshalLine converts one line of e to a CSV row.
func MarshalLine(e model.JournalEntry, line model.JournalLine) []string {
	row := make([]string, numFields)
	row[colNumber] = e.Number
	row[colDate] = model.FormatDate(e.Date)
	row[colEntryDesc] = e.Description
	row[colCode] = line.AccountCode
	row[colLineDesc] = line.Description

	if !line.Debit.IsZero() {
		row[colDebit] = line.Debit.String()
	}
	if !line.Credit.IsZero() {
		row[colCredit] = line.Credit.String()
	}

	row[colRef] = e.Reference
	row[colReverses] = e.Reverses
	return row
}
