package journal

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/registru/internal/model"
	"github.com/cleared-dev/registru/internal/money"
)

func TestWriteLines(t *testing.T) {
	entries := []model.JournalEntry{
		{
			Number:      "2024-000001",
			Date:        model.NewDate(2024, time.December, 20),
			Description: "Factura 17, transport",
			Reference:   "FCT-17",
			Lines: []model.JournalLine{
				{AccountCode: "411", Debit: money.MustParse("3332.00")},
				{AccountCode: "704", Credit: money.MustParse("3332.00"), Description: "Transport marfă"},
			},
		},
		{
			Number:   "2024-000002",
			Date:     model.NewDate(2024, time.December, 21),
			Reverses: "2024-000001",
			Lines: []model.JournalLine{
				{AccountCode: "704", Debit: money.MustParse("3332.00")},
				{AccountCode: "411", Credit: money.MustParse("3332.00")},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLines(&buf, entries))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, []string{"entry_number", "date", "entry_description", "account_code", "line_description", "debit", "credit", "reference", "reverses"}, records[0])
	assert.Equal(t, []string{"2024-000001", "2024-12-20", "Factura 17, transport", "411", "", "3332.00", "", "FCT-17", ""}, records[1])
	assert.Equal(t, "Factura 17, transport", records[2][colEntryDesc])
	assert.Equal(t, "Transport marfă", records[2][colLineDesc])
	assert.Equal(t, "3332.00", records[2][colCredit])
	assert.Equal(t, "2024-000001", records[3][colReverses])
}

func TestWriteLines_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLines(&buf, nil))
	assert.Equal(t, Header+"\n", buf.String())
}
