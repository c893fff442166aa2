package reports_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/ledgertest"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/reports"
)

const org int64 = 1

func amount(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func on(day int) time.Time { return time.Date(2024, time.June, day, 0, 0, 0, 0, time.UTC) }

func post(t *testing.T, h *ledgertest.Harness, typ journals.EntryType, day int, project *int64, debit, credit, value string) {
	t.Helper()
	_, err := h.Journals.CreateAndPost(context.Background(), journals.CreateEntryInput{
		OrganizationID: org,
		ProjectID:      project,
		Date:           on(day),
		Description:    string(typ),
		Type:           typ,
		CreatedBy:      3,
		Lines: []journals.LineInput{
			{AccountCode: debit, Debit: amount(value)},
			{AccountCode: credit, Credit: amount(value)},
		},
	})
	require.NoError(t, err)
}

func newLedger(t *testing.T) *ledgertest.Harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := ledgertest.New(t, ledgertest.WithRedis(client))
	_, err := h.Accounts.SeedStandardChart(context.Background(), org)
	require.NoError(t, err)

	project := int64(5)
	post(t, h, journals.EntryTypeAdjustment, 1, nil, "51", "80", "20000")
	post(t, h, journals.EntryTypeRevenue, 5, &project, "62", "90", "10000")
	post(t, h, journals.EntryTypePayment, 10, &project, "51", "62", "6000")
	post(t, h, journals.EntryTypeExpense, 12, &project, "20", "60", "3000")
	post(t, h, journals.EntryTypeTransfer, 15, nil, "08", "51", "5000")
	return h
}

func june(project *int64) reports.Filter {
	return reports.Filter{OrganizationID: org, ProjectID: project, From: on(1), To: on(30)}
}

func TestProfitAndLossOverLedger(t *testing.T) {
	h := newLedger(t)
	ctx := context.Background()

	pl, err := h.Reports.ProfitAndLoss(ctx, june(nil))
	require.NoError(t, err)
	require.True(t, pl.TotalRevenue.Equal(amount("10000")), pl.TotalRevenue.String())
	require.True(t, pl.TotalExpenses.Equal(amount("3000")), pl.TotalExpenses.String())
	require.True(t, pl.NetIncome.Equal(amount("7000")))
	require.True(t, pl.ProfitMargin.Equal(amount("70")), pl.ProfitMargin.String())

	again, err := h.Reports.ProfitAndLoss(ctx, june(nil))
	require.NoError(t, err)
	require.Equal(t, pl, again)

	other := int64(6)
	empty, err := h.Reports.ProfitAndLoss(ctx, june(&other))
	require.NoError(t, err)
	require.True(t, empty.NetIncome.IsZero())
	require.True(t, empty.ProfitMargin.IsZero())
}

func TestProfitAndLossSeesNewPostings(t *testing.T) {
	h := newLedger(t)
	ctx := context.Background()

	before, err := h.Reports.ProfitAndLoss(ctx, june(nil))
	require.NoError(t, err)

	post(t, h, journals.EntryTypeExpense, 20, nil, "26", "60", "500")

	after, err := h.Reports.ProfitAndLoss(ctx, june(nil))
	require.NoError(t, err)
	require.True(t, after.TotalExpenses.Equal(before.TotalExpenses.Add(amount("500"))), after.TotalExpenses.String())
}

func TestBalanceSheetOverLedger(t *testing.T) {
	h := newLedger(t)
	ctx := context.Background()

	bs, err := h.Reports.BalanceSheet(ctx, org, on(30), nil)
	require.NoError(t, err)
	require.Equal(t, "2024-06-30", bs.AsOf)
	require.True(t, bs.TotalAssets.Equal(amount("30000")), bs.TotalAssets.String())
	require.True(t, bs.TotalLiabilities.Equal(amount("3000")))
	require.True(t, bs.TotalEquity.Equal(amount("27000")), bs.TotalEquity.String())
	require.True(t, bs.IsBalanced)
	require.True(t, bs.Difference.IsZero())

	last := bs.Equity.Accounts[len(bs.Equity.Accounts)-1]
	require.Equal(t, reports.CurrentEarningsLabel, last.Name)
	require.True(t, last.Balance.Equal(amount("7000")))

	early, err := h.Reports.BalanceSheet(ctx, org, on(4), nil)
	require.NoError(t, err)
	require.True(t, early.TotalAssets.Equal(amount("20000")), early.TotalAssets.String())
	require.True(t, early.IsBalanced)
}

func TestCashFlowOverLedger(t *testing.T) {
	h := newLedger(t)

	cf, err := h.Reports.CashFlow(context.Background(), june(nil))
	require.NoError(t, err)
	require.True(t, cf.Operating.Total.Equal(amount("6000")), cf.Operating.Total.String())
	require.True(t, cf.Investing.Total.Equal(amount("-5000")), cf.Investing.Total.String())
	require.True(t, cf.Financing.Total.Equal(amount("20000")), cf.Financing.Total.String())
	require.True(t, cf.NetCashFlow.Equal(amount("21000")))
	require.Len(t, cf.Operating.Lines, 1)
	require.Equal(t, string(journals.EntryTypePayment), cf.Operating.Lines[0].EntryType)
}
