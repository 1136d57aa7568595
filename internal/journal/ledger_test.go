package journal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/registru/internal/accounts"
	"github.com/cleared-dev/registru/internal/events"
	"github.com/cleared-dev/registru/internal/ledgererr"
	"github.com/cleared-dev/registru/internal/metrics"
	"github.com/cleared-dev/registru/internal/model"
	"github.com/cleared-dev/registru/internal/store/storetest"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evs ...events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evs...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	ledger   *Ledger
	registry *accounts.Registry
	metrics  *metrics.Metrics
	pub      *recordingPublisher
	ids      map[string]string // code -> id
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storetest.Open(t)
	m := metrics.New()
	pub := &recordingPublisher{}
	f := &fixture{
		ledger:   NewLedger(db, WithMetrics(m), WithNotifier(events.NewNotifier(pub, m, nil))),
		registry: accounts.NewRegistry(db),
		metrics:  m,
		pub:      pub,
		ids:      make(map[string]string),
	}
	for _, a := range []struct {
		code string
		typ  model.AccountType
	}{
		{"411", model.AccountTypeAsset},
		{"704", model.AccountTypeRevenue},
		{"5311", model.AccountTypeAsset},
		{"401", model.AccountTypeLiability},
	} {
		acct, err := f.registry.Create(context.Background(), accounts.CreateParams{Code: a.code, Name: "Cont " + a.code, Type: a.typ})
		require.NoError(t, err)
		f.ids[a.code] = acct.ID
	}
	return f
}

func (f *fixture) sale(date time.Time, amount string) PostParams {
	return PostParams{
		Date:        date,
		Description: "Factura transport",
		Lines: []LineInput{
			{AccountID: f.ids["411"], Debit: dec(amount)},
			{AccountID: f.ids["704"], Credit: dec(amount)},
		},
	}
}

func TestPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.ledger.Post(ctx, f.sale(model.NewDate(2024, time.December, 20), "3332.00"))
	require.NoError(t, err)
	assert.Equal(t, "2024-000001", entry.Number)
	assert.True(t, entry.IsBalanced())
	assert.Equal(t, dec("3332.00"), entry.TotalDebit())

	got, err := f.ledger.Get(ctx, "2024-000001")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, model.NewDate(2024, time.December, 20), got.Date)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "411", got.Lines[0].AccountCode)
	assert.Equal(t, "704", got.Lines[1].AccountCode)
	assert.Equal(t, dec("3332.00"), got.Lines[1].Credit)
	assert.True(t, got.IsBalanced())

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EntriesPosted.WithLabelValues("regular")))
	require.Len(t, f.pub.events, 1)
	assert.Equal(t, events.TypeEntryPosted, f.pub.events[0].Type)
	assert.Equal(t, "2024-000001", f.pub.events[0].Key)
}

func TestPost_ByAccountCode(t *testing.T) {
	f := newFixture(t)

	entry, err := f.ledger.Post(context.Background(), PostParams{
		Date: model.NewDate(2024, time.March, 1),
		Lines: []LineInput{
			{AccountCode: "5311", Debit: dec("50.00")},
			{AccountCode: "411", Credit: dec("50.00")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, f.ids["5311"], entry.Lines[0].AccountID)
}

func TestPost_NumbersPerYear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e1, err := f.ledger.Post(ctx, f.sale(model.NewDate(2024, time.December, 31), "1.00"))
	require.NoError(t, err)
	e2, err := f.ledger.Post(ctx, f.sale(model.NewDate(2025, time.January, 2), "1.00"))
	require.NoError(t, err)
	e3, err := f.ledger.Post(ctx, f.sale(model.NewDate(2024, time.November, 5), "1.00"))
	require.NoError(t, err)

	assert.Equal(t, "2024-000001", e1.Number)
	assert.Equal(t, "2025-000001", e2.Number)
	assert.Equal(t, "2024-000002", e3.Number)
}

func TestPost_UnbalancedLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Post(ctx, PostParams{
		Date: model.NewDate(2024, time.December, 20),
		Lines: []LineInput{
			{AccountID: f.ids["411"], Debit: dec("100")},
			{AccountID: f.ids["704"], Credit: dec("90")},
		},
	})
	var unbalanced *UnbalancedEntryError
	require.ErrorAs(t, err, &unbalanced)
	assert.Equal(t, dec("100"), unbalanced.DebitTotal)
	assert.Equal(t, dec("90"), unbalanced.CreditTotal)

	entries, err := f.ledger.List(ctx, model.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PostingsRejected.WithLabelValues("unbalanced")))
	assert.Empty(t, f.pub.events)

	// The failed posting did not consume a number.
	entry, err := f.ledger.Post(ctx, f.sale(model.NewDate(2024, time.December, 21), "10.00"))
	require.NoError(t, err)
	assert.Equal(t, "2024-000001", entry.Number)
}

func TestPost_InactiveAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.Deactivate(ctx, f.ids["5311"])
	require.NoError(t, err)

	_, err = f.ledger.Post(ctx, PostParams{
		Date: model.NewDate(2024, time.December, 20),
		Lines: []LineInput{
			{AccountID: f.ids["5311"], Debit: dec("1")},
			{AccountID: f.ids["704"], Credit: dec("1")},
		},
	})
	var inv *InvalidAccountError
	require.ErrorAs(t, err, &inv)
	assert.True(t, inv.Inactive)
	assert.Equal(t, f.ids["5311"], inv.AccountID)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Get(context.Background(), "2024-000042")
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)
}

func TestList_DateRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, d := range []time.Time{
		model.NewDate(2024, time.November, 30),
		model.NewDate(2024, time.December, 1),
		model.NewDate(2024, time.December, 31),
		model.NewDate(2025, time.January, 1),
	} {
		_, err := f.ledger.Post(ctx, f.sale(d, "1.00"))
		require.NoError(t, err)
	}

	dec2024, err := f.ledger.List(ctx, model.DateRange{
		From: model.NewDate(2024, time.December, 1),
		To:   model.NewDate(2024, time.December, 31),
	})
	require.NoError(t, err)
	require.Len(t, dec2024, 2)
	assert.Equal(t, "2024-000002", dec2024[0].Number)
	assert.Equal(t, "2024-000003", dec2024[1].Number)
	require.Len(t, dec2024[0].Lines, 2)

	from, err := f.ledger.List(ctx, model.DateRange{From: model.NewDate(2024, time.December, 31)})
	require.NoError(t, err)
	require.Len(t, from, 2)
	assert.Equal(t, "2025-000001", from[1].Number)

	all, err := f.ledger.List(ctx, model.DateRange{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestReverse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orig, err := f.ledger.Post(ctx, f.sale(model.NewDate(2024, time.December, 20), "3332.00"))
	require.NoError(t, err)

	rev, err := f.ledger.Reverse(ctx, orig.Number, ReverseParams{Date: model.NewDate(2024, time.December, 22)})
	require.NoError(t, err)
	assert.Equal(t, "2024-000002", rev.Number)
	assert.Equal(t, orig.Number, rev.Reverses)
	assert.Contains(t, rev.Description, orig.Number)
	require.Len(t, rev.Lines, 2)
	assert.Equal(t, f.ids["411"], rev.Lines[0].AccountID)
	assert.Equal(t, dec("3332.00"), rev.Lines[0].Credit)
	assert.Equal(t, dec("3332.00"), rev.Lines[1].Debit)

	_, err = f.ledger.Reverse(ctx, orig.Number, ReverseParams{})
	var again *AlreadyReversedError
	require.ErrorAs(t, err, &again)
	assert.Equal(t, rev.Number, again.ReversedBy)

	_, err = f.ledger.Reverse(ctx, "2024-000099", ReverseParams{})
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EntriesPosted.WithLabelValues("reversal")))
}

func TestReverse_DefaultsToOriginalDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orig, err := f.ledger.Post(ctx, f.sale(model.NewDate(2024, time.June, 3), "5.00"))
	require.NoError(t, err)
	rev, err := f.ledger.Reverse(ctx, orig.Number, ReverseParams{Description: "Anulare"})
	require.NoError(t, err)
	assert.Equal(t, orig.Date, rev.Date)
	assert.Equal(t, "Anulare", rev.Description)
}

func TestPost_ConcurrentNumbersAreGapless(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := f.ledger.Post(ctx, f.sale(model.NewDate(2024, time.December, 1+i%28), fmt.Sprintf("%d.00", i+1)))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers = append(numbers, e.Number)
		}(i)
	}
	wg.Wait()

	require.Empty(t, errs)
	sort.Strings(numbers)
	want := make([]string, n)
	for i := range want {
		want[i] = fmt.Sprintf("2024-%06d", i+1)
	}
	assert.Equal(t, want, numbers)
}
