package overview_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/ledgertest"
	"github.com/nekorytaylor666/stroika-sub000/internal/expenses"
	"github.com/nekorytaylor666/stroika-sub000/internal/payments"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

const (
	org     int64 = 1
	project int64 = 77
)

var day = time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func payment(t *testing.T, h *ledgertest.Harness, dir payments.Direction, amount string, confirm bool) {
	t.Helper()
	ctx := context.Background()
	p := project
	created, err := h.Payments.CreatePayment(ctx, payments.CreateInput{
		OrganizationID: org, ProjectID: &p, Amount: d(amount), Direction: dir, PaymentDate: day, CreatedBy: 1,
	})
	require.NoError(t, err)
	if confirm {
		_, err = h.Payments.ConfirmPayment(ctx, payments.ConfirmInput{OrganizationID: org, PaymentID: created.ID, ActorID: 1})
		require.NoError(t, err)
	}
}

func TestOverviewUsesPaidExpensesWhenLarger(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	p := project

	payment(t, h, payments.DirectionIncoming, "10000", true)
	payment(t, h, payments.DirectionIncoming, "2000", false)
	payment(t, h, payments.DirectionOutgoing, "500", false)

	e, err := h.Expenses.CreateExpense(ctx, expenses.CreateInput{
		OrganizationID: org, ProjectID: &p, Amount: d("3000"), Category: "materials", ExpenseDate: day, CreatedBy: 1,
	})
	require.NoError(t, err)
	_, err = h.Expenses.MarkExpensePaid(ctx, expenses.MarkPaidInput{OrganizationID: org, ExpenseID: e.ID, ActorID: 1})
	require.NoError(t, err)

	got, err := h.Overview.GetProjectFinancialOverview(ctx, org, project)
	require.NoError(t, err)
	require.True(t, got.Expenses.Paid.Equal(d("3000")))
	require.True(t, got.Expenses.Journal.Equal(d("3000")))
	require.True(t, got.Expenses.Effective.Equal(d("3000")))
	require.True(t, got.Payments.ConfirmedIncoming.Equal(d("10000")))
	require.True(t, got.Payments.ConfirmedOutgoing.Equal(d("3000")))

	require.True(t, got.Balance.CurrentBalance.Equal(d("7000")))
	require.True(t, got.Balance.NetCashFlow.Equal(d("7000")))
	require.True(t, got.Balance.ProjectedBalance.Equal(d("8500")))
	require.True(t, got.Balance.ProfitMargin.Equal(d("70")))
	require.True(t, got.GeneratedAt.Equal(ledgertest.Now))
}

func TestOverviewUsesJournalExpensesWhenLarger(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	p := project

	payment(t, h, payments.DirectionIncoming, "1000", true)
	_, err := h.Journals.CreateAndPost(ctx, journals.CreateEntryInput{
		OrganizationID: org,
		ProjectID:      &p,
		Date:           day,
		Type:           journals.EntryTypeExpense,
		CreatedBy:      1,
		Lines: []journals.LineInput{
			{AccountCode: "26", Debit: d("400")},
			{AccountCode: "60", Credit: d("400")},
		},
	})
	require.NoError(t, err)

	got, err := h.Overview.GetProjectFinancialOverview(ctx, org, project)
	require.NoError(t, err)
	require.True(t, got.Expenses.Paid.IsZero())
	require.True(t, got.Expenses.Journal.Equal(d("400")))
	require.True(t, got.Expenses.Effective.Equal(d("400")))
	require.True(t, got.Balance.CurrentBalance.Equal(d("600")))
	require.True(t, got.Balance.ProfitMargin.Equal(d("60")))
}

func TestOverviewEmptyProject(t *testing.T) {
	h := ledgertest.Seeded(t, org)

	got, err := h.Overview.GetProjectFinancialOverview(context.Background(), org, project)
	require.NoError(t, err)
	require.True(t, got.Balance.CurrentBalance.IsZero())
	require.True(t, got.Balance.ProfitMargin.IsZero(), "no income means a zero margin")

	_, err = h.Overview.GetProjectFinancialOverview(context.Background(), org, 0)
	require.ErrorIs(t, err, core.ErrValidation)
}
