package budgets_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/ledgertest"
	"github.com/nekorytaylor666/stroika-sub000/internal/budgets"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

const (
	org     int64 = 1
	project int64 = 40
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func approvedBudget(t *testing.T, h *ledgertest.Harness, planned string, effective time.Time) budgets.Budget {
	t.Helper()
	ctx := context.Background()
	b, err := h.Budgets.CreateBudget(ctx, budgets.CreateInput{
		OrganizationID: org,
		ProjectID:      project,
		Name:           "Tower A",
		EffectiveDate:  effective,
		CreatedBy:      3,
		Lines:          []budgets.LineInput{{AccountCode: "20", PlannedAmount: d(planned)}},
	})
	require.NoError(t, err)
	require.Equal(t, budgets.StatusDraft, b.Status)
	b, err = h.Budgets.ApproveBudget(ctx, org, b.ID, 4)
	require.NoError(t, err)
	return b
}

func spend(t *testing.T, h *ledgertest.Harness, projectID int64, amount string) {
	t.Helper()
	p := projectID
	_, err := h.Journals.CreateAndPost(context.Background(), journals.CreateEntryInput{
		OrganizationID: org,
		ProjectID:      &p,
		Date:           time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
		Type:           journals.EntryTypeExpense,
		CreatedBy:      1,
		Lines: []journals.LineInput{
			{AccountCode: "20", Debit: d(amount)},
			{AccountCode: "60", Credit: d(amount)},
		},
	})
	require.NoError(t, err)
}

func TestBudgetComparison(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	approvedBudget(t, h, "5000", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	spend(t, h, project, "3000")
	spend(t, h, project+1, "999")

	cmp, err := h.Budgets.GetBudgetComparison(ctx, org, project, nil)
	require.NoError(t, err)
	require.Len(t, cmp.Lines, 1)
	require.True(t, cmp.Lines[0].ActualSpent.Equal(d("3000")))
	require.True(t, cmp.Lines[0].Variance.Equal(d("2000")))
	require.True(t, cmp.Lines[0].PercentUsed.Equal(d("60")))
	require.True(t, cmp.TotalPlanned.Equal(d("5000")))
	require.Equal(t, "production", cmp.Lines[0].Category)
}

func TestBudgetComparisonWithoutActiveBudget(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()

	_, err := h.Budgets.GetBudgetComparison(ctx, org, project, nil)
	require.ErrorIs(t, err, budgets.ErrNoActiveBudget)
	require.ErrorIs(t, err, core.ErrNotFound)

	draft, err := h.Budgets.CreateBudget(ctx, budgets.CreateInput{
		OrganizationID: org, ProjectID: project, Name: "Draft", CreatedBy: 1,
		Lines: []budgets.LineInput{{AccountCode: "20", PlannedAmount: d("10")}},
	})
	require.NoError(t, err)
	_, err = h.Budgets.GetBudgetComparison(ctx, org, project, nil)
	require.ErrorIs(t, err, budgets.ErrNoActiveBudget, "drafts are never active")

	cmp, err := h.Budgets.GetBudgetComparison(ctx, org, project, &draft.ID)
	require.NoError(t, err)
	require.Equal(t, draft.ID, cmp.BudgetID)

	_, err = h.Budgets.GetBudgetComparison(ctx, org, project+1, &draft.ID)
	require.ErrorIs(t, err, budgets.ErrBudgetNotFound)
}

func TestCreateBudgetValidation(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()

	_, err := h.Budgets.CreateBudget(ctx, budgets.CreateInput{OrganizationID: org, ProjectID: project, Name: "Empty"})
	require.ErrorIs(t, err, core.ErrValidation)
	_, err = h.Budgets.CreateBudget(ctx, budgets.CreateInput{
		OrganizationID: org, ProjectID: project, Name: "Negative",
		Lines: []budgets.LineInput{{AccountCode: "20", PlannedAmount: d("-1")}},
	})
	require.ErrorIs(t, err, core.ErrValidation)
	_, err = h.Budgets.CreateBudget(ctx, budgets.CreateInput{
		OrganizationID: org, ProjectID: project, Name: "Unknown",
		Lines: []budgets.LineInput{{AccountCode: "99", PlannedAmount: d("1")}},
	})
	require.ErrorIs(t, err, core.ErrNotFound)

	total := d("7000")
	b, err := h.Budgets.CreateBudget(ctx, budgets.CreateInput{
		OrganizationID: org, ProjectID: project, Name: "Explicit", TotalBudget: &total,
		Lines: []budgets.LineInput{{AccountCode: "20", PlannedAmount: d("5000")}},
	})
	require.NoError(t, err)
	require.True(t, b.TotalBudget.Equal(total))

	_, err = h.Budgets.ApproveBudget(ctx, org, b.ID, 1)
	require.NoError(t, err)
	_, err = h.Budgets.ApproveBudget(ctx, org, b.ID, 1)
	require.ErrorIs(t, err, budgets.ErrBudgetNotDraft)
}

func TestRevisionsAreAppendOnly(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	original := approvedBudget(t, h, "5000", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))

	_, _, err := h.Budgets.CreateRevision(ctx, budgets.RevisionInput{
		OrganizationID: org, OriginalBudgetID: original.ID, CreatedBy: 3,
		Lines: []budgets.LineInput{{AccountCode: "20", PlannedAmount: d("6000")}},
	})
	require.ErrorIs(t, err, budgets.ErrRevisionReasonRequired)

	revised, rev, err := h.Budgets.CreateRevision(ctx, budgets.RevisionInput{
		OrganizationID: org, OriginalBudgetID: original.ID, Reason: "scope change", CreatedBy: 3,
		EffectiveDate: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Lines:         []budgets.LineInput{{AccountCode: "20", PlannedAmount: d("6500")}},
	})
	require.NoError(t, err)
	require.Equal(t, budgets.StatusRevised, revised.Status)
	require.Equal(t, "Tower A", revised.Name)
	require.True(t, rev.ChangeAmount.Equal(d("1500")))
	require.Equal(t, original.ID, rev.OriginalBudgetID)
	require.Equal(t, revised.ID, rev.NewBudgetID)

	stored, err := h.Budgets.GetBudget(ctx, org, original.ID)
	require.NoError(t, err)
	require.Equal(t, budgets.StatusApproved, stored.Status)
	require.True(t, stored.TotalBudget.Equal(d("5000")), "the original is never edited")

	active, err := h.Budgets.ActiveBudget(ctx, org, project)
	require.NoError(t, err)
	require.Equal(t, revised.ID, active.ID)

	second, _, err := h.Budgets.CreateRevision(ctx, budgets.RevisionInput{
		OrganizationID: org, OriginalBudgetID: revised.ID, Reason: "value engineering", CreatedBy: 3,
		EffectiveDate: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		Lines:         []budgets.LineInput{{AccountCode: "20", PlannedAmount: d("6000")}},
	})
	require.NoError(t, err)

	chain, err := h.Budgets.ListRevisions(ctx, org, original.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	require.True(t, chain[1].ChangeAmount.Equal(d("-500")))
	require.Equal(t, second.ID, chain[1].NewBudgetID)

	list, err := h.Budgets.ListBudgets(ctx, org, project)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, second.ID, list[0].ID)

	draft, err := h.Budgets.CreateBudget(ctx, budgets.CreateInput{
		OrganizationID: org, ProjectID: project, Name: "Draft", CreatedBy: 1,
		Lines: []budgets.LineInput{{AccountCode: "20", PlannedAmount: d("1")}},
	})
	require.NoError(t, err)
	_, _, err = h.Budgets.CreateRevision(ctx, budgets.RevisionInput{
		OrganizationID: org, OriginalBudgetID: draft.ID, Reason: "nope", CreatedBy: 3,
		Lines: []budgets.LineInput{{AccountCode: "20", PlannedAmount: d("2")}},
	})
	require.ErrorIs(t, err, budgets.ErrBudgetNotApproved)
}
