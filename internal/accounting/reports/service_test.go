package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/balances"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

type mockSource struct {
	rows          []balances.AccountActivity
	movements     []balances.CashMovement
	activityCalls int
	cashCalls     int
	lastFilter    balances.ActivityFilter
}

func (m *mockSource) Activity(ctx context.Context, filter balances.ActivityFilter) ([]balances.AccountActivity, error) {
	m.activityCalls++
	m.lastFilter = filter
	return m.rows, nil
}

func (m *mockSource) CashMovements(ctx context.Context, filter balances.ActivityFilter) ([]balances.CashMovement, error) {
	m.cashCalls++
	m.lastFilter = filter
	return m.movements, nil
}

func newTestService(t *testing.T, src Source) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(src, NewCache(client, time.Minute), nil)
}

func january() Filter {
	return Filter{
		OrganizationID: 7,
		From:           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:             time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestProfitAndLossCachedUntilBump(t *testing.T) {
	src := &mockSource{rows: []balances.AccountActivity{
		activity("90", "Sales", accounts.AccountTypeRevenue, "0", "0", "0", "1000"),
		activity("26", "Overhead", accounts.AccountTypeExpense, "0", "0", "250", "0"),
	}}
	svc := newTestService(t, src)
	ctx := context.Background()

	first, err := svc.ProfitAndLoss(ctx, january())
	require.NoError(t, err)
	second, err := svc.ProfitAndLoss(ctx, january())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, src.activityCalls)
	require.True(t, first.NetIncome.Equal(d("750")))
	require.True(t, first.ProfitMargin.Equal(d("75")))
	require.Equal(t, "2026-01-01", first.Range.From)

	require.NoError(t, svc.Bump(ctx, 7))
	_, err = svc.ProfitAndLoss(ctx, january())
	require.NoError(t, err)
	require.Equal(t, 2, src.activityCalls)
}

func TestBumpIsScopedToOrganization(t *testing.T) {
	src := &mockSource{}
	svc := newTestService(t, src)
	ctx := context.Background()

	_, err := svc.TrialBalance(ctx, january())
	require.NoError(t, err)
	require.NoError(t, svc.Bump(ctx, 8))
	_, err = svc.TrialBalance(ctx, january())
	require.NoError(t, err)
	require.Equal(t, 1, src.activityCalls)
}

func TestReportRangeIsInclusive(t *testing.T) {
	src := &mockSource{}
	svc := NewService(src, nil, nil)

	_, err := svc.CashFlow(context.Background(), january())
	require.NoError(t, err)
	require.NotNil(t, src.lastFilter.From)
	require.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *src.lastFilter.From)
	require.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), src.lastFilter.To)
}

func TestBalanceSheetReadsEverythingBeforeNextDay(t *testing.T) {
	src := &mockSource{rows: []balances.AccountActivity{
		activity("51", "Bank", accounts.AccountTypeAsset, "0", "0", "1000", "0"),
		activity("62", "Receivables", accounts.AccountTypeAsset, "0", "0", "0", "1000"),
	}}
	svc := NewService(src, nil, nil)

	bs, err := svc.BalanceSheet(context.Background(), 7, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	require.Nil(t, src.lastFilter.From)
	require.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), src.lastFilter.To)
	require.True(t, bs.IsBalanced)
	require.Equal(t, "2026-03-15", bs.AsOf)
}

func TestInvertedRangeRejected(t *testing.T) {
	svc := NewService(&mockSource{}, nil, nil)
	f := january()
	f.From, f.To = f.To, f.From
	_, err := svc.ProfitAndLoss(context.Background(), f)
	require.True(t, errors.Is(err, core.ErrValidation))
}
