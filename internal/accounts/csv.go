package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cleared-dev/registru/internal/model"
)

const (
	numFields = 6
	colCode   = 0
	colName   = 1
	colType   = 2
	colParent = 3
	colDesc   = 4
	colActive = 5
)

var csvHeader = []string{"code", "name", "type", "parent_code", "description", "active"}

// CSVAccount is one row of a chart-of-accounts file. Parents are referenced
// by code so files can move between books.
type CSVAccount struct {
	Code        string
	Name        string
	Type        model.AccountType
	ParentCode  string
	Description string
	Active      bool
}

// ReadAccounts reads a chart-of-accounts CSV with a header row.
func ReadAccounts(r io.Reader) ([]CSVAccount, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}
	if !strings.EqualFold(strings.TrimPrefix(records[0][colCode], "\ufeff"), csvHeader[colCode]) {
		return nil, fmt.Errorf("reading accounts CSV: header must start with %q", csvHeader[colCode])
	}

	var accounts []CSVAccount
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes accounts as CSV. Parent ids are resolved to codes
// from the same slice.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	codes := make(map[string]string, len(accounts))
	for _, a := range accounts {
		codes[a.ID] = a.Code
	}
	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct, codes[acct.ParentID])); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account, parentCode string) []string {
	row := make([]string, numFields)
	row[colCode] = acct.Code
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colParent] = parentCode
	row[colDesc] = acct.Description
	row[colActive] = strconv.FormatBool(acct.Active)
	return row
}

// UnmarshalAccount converts a CSV row to a CSVAccount. An empty active
// column means active.
func UnmarshalAccount(record []string) (CSVAccount, error) {
	if len(record) != numFields {
		return CSVAccount{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	typ, err := model.ParseAccountType(strings.TrimSpace(record[colType]))
	if err != nil {
		return CSVAccount{}, err
	}

	active := true
	if s := strings.TrimSpace(record[colActive]); s != "" {
		active, err = strconv.ParseBool(s)
		if err != nil {
			return CSVAccount{}, fmt.Errorf("parsing active %q: %w", s, err)
		}
	}

	return CSVAccount{
		Code:        strings.TrimSpace(record[colCode]),
		Name:        strings.TrimSpace(record[colName]),
		Type:        typ,
		ParentCode:  strings.TrimSpace(record[colParent]),
		Description: record[colDesc],
		Active:      active,
	}, nil
}
