package statements

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cleared-dev/registru/internal/accounts"
	"github.com/cleared-dev/registru/internal/balance"
	"github.com/cleared-dev/registru/internal/journal"
	"github.com/cleared-dev/registru/internal/ledgererr"
	"github.com/cleared-dev/registru/internal/metrics"
	"github.com/cleared-dev/registru/internal/model"
	"github.com/cleared-dev/registru/internal/money"
	"github.com/cleared-dev/registru/internal/store"
	"github.com/cleared-dev/registru/internal/store/storetest"
)

type books struct {
	db       *store.DB
	builder  *Builder
	ledger   *journal.Ledger
	registry *accounts.Registry
	metrics  *metrics.Metrics
}

func newBooks(t *testing.T) *books {
	t.Helper()
	db := storetest.Open(t)
	m := metrics.New()
	return &books{
		db:       db,
		builder:  NewBuilder(balance.NewEngine(db), WithMetrics(m)),
		ledger:   journal.NewLedger(db),
		registry: accounts.NewRegistry(db),
		metrics:  m,
	}
}

func (b *books) account(t *testing.T, code, name string, typ model.AccountType) model.Account {
	t.Helper()
	a, err := b.registry.Create(context.Background(), accounts.CreateParams{Code: code, Name: name, Type: typ})
	require.NoError(t, err)
	return a
}

func (b *books) post(t *testing.T, date time.Time, debit, credit, amount string) model.JournalEntry {
	t.Helper()
	e, err := b.ledger.Post(context.Background(), journal.PostParams{
		Date: date,
		Lines: []journal.LineInput{
			{AccountCode: debit, Debit: money.MustParse(amount)},
			{AccountCode: credit, Credit: money.MustParse(amount)},
		},
	})
	require.NoError(t, err)
	return e
}

func amt(s string) money.Amount { return money.MustParse(s) }

func findRow(t *testing.T, tb model.TrialBalance, code string) model.TrialBalanceRow {
	t.Helper()
	for _, r := range tb.Rows {
		if r.Code == code {
			return r
		}
	}
	t.Fatalf("no trial balance row for %s", code)
	return model.TrialBalanceRow{}
}

func TestTransportInvoiceScenario(t *testing.T) {
	b := newBooks(t)
	ctx := context.Background()

	b.account(t, "411", "Clienți", model.AccountTypeAsset)
	b.account(t, "704", "Venituri transport", model.AccountTypeRevenue)
	b.post(t, model.NewDate(2024, time.December, 20), "411", "704", "3332.00")

	tb, err := b.builder.TrialBalance(ctx, model.NewDate(2024, time.December, 31))
	require.NoError(t, err)
	require.Len(t, tb.Rows, 2)
	assert.True(t, tb.Balanced)
	assert.NoError(t, tb.Err())

	clients := findRow(t, tb, "411")
	assert.Equal(t, amt("3332.00"), clients.DebitBalance)
	assert.True(t, clients.CreditBalance.IsZero())

	revenue := findRow(t, tb, "704")
	assert.Equal(t, amt("3332.00"), revenue.CreditBalance)
	assert.True(t, revenue.DebitBalance.IsZero())

	is, err := b.builder.IncomeStatement(ctx, model.NewDate(2024, time.December, 1), model.NewDate(2024, time.December, 31))
	require.NoError(t, err)
	assert.Equal(t, amt("3332.00"), is.TotalRevenue)
	assert.Equal(t, amt("3332.00"), is.NetIncome)
	require.Len(t, is.Revenue, 1)
	assert.Equal(t, "704", is.Revenue[0].Code)
}

func TestTrialBalance_Identity(t *testing.T) {
	b := newBooks(t)
	ctx := context.Background()

	b.account(t, "101", "Capital", model.AccountTypeEquity)
	b.account(t, "5121", "Bancă", model.AccountTypeAsset)
	b.account(t, "401", "Furnizori", model.AccountTypeLiability)
	b.account(t, "626", "Telecomunicații", model.AccountTypeExpense)
	b.account(t, "704", "Venituri", model.AccountTypeRevenue)

	b.post(t, model.NewDate(2024, time.January, 2), "5121", "101", "200.00")
	b.post(t, model.NewDate(2024, time.February, 5), "626", "401", "61.88")
	b.post(t, model.NewDate(2024, time.February, 20), "401", "5121", "61.88")
	b.post(t, model.NewDate(2024, time.March, 1), "5121", "704", "1500.10")

	for _, d := range []time.Time{
		model.NewDate(2023, time.December, 31),
		model.NewDate(2024, time.February, 10),
		model.NewDate(2024, time.December, 31),
	} {
		tb, err := b.builder.TrialBalance(ctx, d)
		require.NoError(t, err)
		assert.Equal(t, tb.TotalDebit, tb.TotalCredit, "as of %s", model.FormatDate(d))
		assert.True(t, tb.Balanced)
	}

	tb, err := b.builder.TrialBalance(ctx, model.NewDate(2024, time.December, 31))
	require.NoError(t, err)
	assert.Equal(t, amt("1700.10"), tb.TotalDebit)
	// Rows are ordered by code.
	codes := make([]string, len(tb.Rows))
	for i, r := range tb.Rows {
		codes[i] = r.Code
	}
	assert.Equal(t, []string{"101", "401", "5121", "626", "704"}, codes)
}

func TestTrialBalance_InactiveAccounts(t *testing.T) {
	b := newBooks(t)
	ctx := context.Background()

	cash := b.account(t, "5311", "Casa", model.AccountTypeAsset)
	unused := b.account(t, "6022", "Combustibili", model.AccountTypeExpense)
	b.account(t, "704", "Venituri", model.AccountTypeRevenue)
	b.account(t, "411", "Clienți", model.AccountTypeAsset)

	b.post(t, model.NewDate(2024, time.May, 1), "5311", "704", "10.00")
	b.post(t, model.NewDate(2024, time.May, 2), "411", "5311", "10.00")
	_, err := b.registry.Deactivate(ctx, cash.ID)
	require.NoError(t, err)
	_, err = b.registry.Deactivate(ctx, unused.ID)
	require.NoError(t, err)

	tb, err := b.builder.TrialBalance(ctx, model.NewDate(2024, time.December, 31))
	require.NoError(t, err)

	codes := make(map[string]bool)
	for _, r := range tb.Rows {
		codes[r.Code] = true
	}
	assert.True(t, codes["5311"], "inactive account with postings is listed")
	assert.False(t, codes["6022"], "inactive account without postings is not")
	assert.False(t, findRow(t, tb, "5311").Active)
}

func TestTrialBalance_ReportsCorruption(t *testing.T) {
	b := newBooks(t)
	ctx := context.Background()

	a := b.account(t, "411", "Clienți", model.AccountTypeAsset)
	// Bypass the ledger to simulate an unbalanced entry already on disk.
	err := b.db.Update(ctx, func(tx *gorm.DB) error {
		return tx.Create(&store.EntryRow{
			ID: "broken", Number: "2024-000001", FiscalYear: 2024, Seq: 1,
			EntryDate: "2024-06-01", PostedAt: time.Now(),
			Lines: []store.LineRow{{AccountID: a.ID, LineOrder: 1, Debit: 500}},
		}).Error
	})
	require.NoError(t, err)

	tb, err := b.builder.TrialBalance(ctx, model.NewDate(2024, time.December, 31))
	require.NoError(t, err, "integrity problems are flagged, not returned")
	assert.False(t, tb.Balanced)
	assert.ErrorIs(t, tb.Err(), ledgererr.ErrIntegrity)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.IntegrityFailures.WithLabelValues("trial_balance")))

	bs, err := b.builder.BalanceSheet(ctx, model.NewDate(2024, time.December, 31))
	require.NoError(t, err)
	assert.False(t, bs.Balanced)
	assert.Equal(t, amt("5.00"), bs.Discrepancy)
	assert.ErrorIs(t, bs.Err(), ledgererr.ErrIntegrity)
}

func TestIncomeStatement_MonthlyAdditivity(t *testing.T) {
	b := newBooks(t)
	ctx := context.Background()

	b.account(t, "5121", "Bancă", model.AccountTypeAsset)
	b.account(t, "704", "Venituri", model.AccountTypeRevenue)
	b.account(t, "766", "Dobânzi", model.AccountTypeRevenue)
	b.account(t, "624", "Transport", model.AccountTypeExpense)
	b.account(t, "6022", "Combustibili", model.AccountTypeExpense)

	b.post(t, model.NewDate(2023, time.December, 31), "5121", "704", "999.99")
	for m := time.January; m <= time.December; m++ {
		b.post(t, model.NewDate(2024, m, 1), "5121", "704", "1000.00")
		b.post(t, model.NewDate(2024, m, 15), "6022", "5121", "123.45")
		if m%3 == 0 {
			b.post(t, model.NewDate(2024, m, 28), "5121", "766", "3.21")
			b.post(t, model.NewDate(2024, m, 28), "624", "5121", "50.50")
		}
	}
	b.post(t, model.NewDate(2025, time.January, 1), "5121", "704", "42.00")

	year, err := b.builder.IncomeStatement(ctx, model.NewDate(2024, time.January, 1), model.NewDate(2024, time.December, 31))
	require.NoError(t, err)

	var sum money.Amount
	for m := time.January; m <= time.December; m++ {
		start := model.NewDate(2024, m, 1)
		month, err := b.builder.IncomeStatement(ctx, start, start.AddDate(0, 1, -1))
		require.NoError(t, err)
		sum += month.NetIncome
	}
	assert.Equal(t, year.NetIncome, sum)
	assert.Equal(t, amt("12012.84"), year.TotalRevenue)
	assert.Equal(t, amt("1683.40"), year.TotalExpenses)
}

func TestIncomeStatement_OmitsIdleAccountsAndStockAccounts(t *testing.T) {
	b := newBooks(t)
	ctx := context.Background()

	b.account(t, "5121", "Bancă", model.AccountTypeAsset)
	b.account(t, "704", "Venituri", model.AccountTypeRevenue)
	b.account(t, "626", "Telecom", model.AccountTypeExpense)
	b.post(t, model.NewDate(2024, time.March, 1), "5121", "704", "10.00")
	b.post(t, model.NewDate(2024, time.April, 1), "626", "5121", "4.00")

	is, err := b.builder.IncomeStatement(ctx, model.NewDate(2024, time.April, 1), model.NewDate(2024, time.April, 30))
	require.NoError(t, err)
	assert.Empty(t, is.Revenue, "704 had no movement in April")
	require.Len(t, is.Expenses, 1)
	assert.Equal(t, amt("4.00"), is.Expenses[0].Amount)
	assert.Equal(t, amt("-4.00"), is.NetIncome)
}

func TestIncomeStatement_InvalidPeriod(t *testing.T) {
	b := newBooks(t)
	_, err := b.builder.IncomeStatement(context.Background(), model.NewDate(2024, time.December, 31), model.NewDate(2024, time.December, 1))
	var ip *InvalidPeriodError
	require.ErrorAs(t, err, &ip)
	assert.ErrorIs(t, err, ledgererr.ErrValidation)

	// A single-day period is valid.
	_, err = b.builder.IncomeStatement(context.Background(), model.NewDate(2024, time.December, 1), model.NewDate(2024, time.December, 1))
	assert.NoError(t, err)
}

func TestBalanceSheet_BalancesWithCurrentEarnings(t *testing.T) {
	b := newBooks(t)
	ctx := context.Background()

	b.account(t, "101", "Capital", model.AccountTypeEquity)
	b.account(t, "5121", "Bancă", model.AccountTypeAsset)
	b.account(t, "401", "Furnizori", model.AccountTypeLiability)
	b.account(t, "704", "Venituri", model.AccountTypeRevenue)
	b.account(t, "624", "Transport", model.AccountTypeExpense)

	b.post(t, model.NewDate(2024, time.January, 2), "5121", "101", "200.00")
	b.post(t, model.NewDate(2024, time.February, 1), "5121", "704", "3332.00")
	b.post(t, model.NewDate(2024, time.February, 3), "624", "401", "500.00")

	bs, err := b.builder.BalanceSheet(ctx, model.NewDate(2024, time.December, 31))
	require.NoError(t, err)
	assert.True(t, bs.Balanced)
	assert.NoError(t, bs.Err())
	assert.Equal(t, amt("3532.00"), bs.TotalAssets)
	assert.Equal(t, amt("500.00"), bs.TotalLiabilities)
	assert.Equal(t, amt("2832.00"), bs.CurrentEarnings)
	assert.Equal(t, amt("3032.00"), bs.TotalEquity)
	assert.True(t, bs.Discrepancy.IsZero())
	require.Len(t, bs.Equity, 1)
	assert.Equal(t, "101", bs.Equity[0].Code)

	// Before any posting the sheet is empty and balanced.
	empty, err := b.builder.BalanceSheet(ctx, model.NewDate(2023, time.December, 31))
	require.NoError(t, err)
	assert.True(t, empty.Balanced)
	assert.Empty(t, empty.Assets)
}

func TestReversalNetsToZero(t *testing.T) {
	b := newBooks(t)
	ctx := context.Background()

	b.account(t, "411", "Clienți", model.AccountTypeAsset)
	b.account(t, "704", "Venituri", model.AccountTypeRevenue)
	orig := b.post(t, model.NewDate(2024, time.December, 20), "411", "704", "3332.00")
	_, err := b.ledger.Reverse(ctx, orig.Number, journal.ReverseParams{Date: model.NewDate(2024, time.December, 21)})
	require.NoError(t, err)

	tb, err := b.builder.TrialBalance(ctx, model.NewDate(2024, time.December, 31))
	require.NoError(t, err)
	for _, r := range tb.Rows {
		assert.True(t, r.NetBalance.IsZero(), "account %s", r.Code)
	}

	is, err := b.builder.IncomeStatement(ctx, model.NewDate(2024, time.December, 1), model.NewDate(2024, time.December, 31))
	require.NoError(t, err)
	assert.True(t, is.NetIncome.IsZero())
	assert.Empty(t, is.Revenue)
}
