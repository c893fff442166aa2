package budgets

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestCompareVarianceAndPercent(t *testing.T) {
	b := Budget{ID: 1, ProjectID: 9, Lines: []Line{
		{ID: 1, AccountID: 20, AccountCode: "20", PlannedAmount: dec("5000")},
		{ID: 2, AccountID: 26, AccountCode: "26", PlannedAmount: dec("0")},
	}}
	got := Compare(b, map[int64]decimal.Decimal{20: dec("3000"), 26: dec("120")})

	if !got.Lines[0].Variance.Equal(dec("2000")) {
		t.Fatalf("variance: got %s", got.Lines[0].Variance)
	}
	if !got.Lines[0].PercentUsed.Equal(dec("60")) {
		t.Fatalf("percent used: got %s", got.Lines[0].PercentUsed)
	}
	if !got.Lines[1].PercentUsed.IsZero() {
		t.Fatalf("zero planned must report 0%%, got %s", got.Lines[1].PercentUsed)
	}
	if !got.Lines[1].Variance.Equal(dec("-120")) {
		t.Fatalf("overspend variance: got %s", got.Lines[1].Variance)
	}
	if !got.TotalActual.Equal(dec("3120")) || !got.TotalVariance.Equal(dec("1880")) {
		t.Fatalf("totals: actual %s variance %s", got.TotalActual, got.TotalVariance)
	}
	if !got.PercentUsed.Equal(dec("62.4")) {
		t.Fatalf("total percent: got %s", got.PercentUsed)
	}
}

func TestCompareCountsSharedAccountOnce(t *testing.T) {
	b := Budget{Lines: []Line{
		{ID: 1, AccountID: 20, PlannedAmount: dec("100")},
		{ID: 2, AccountID: 20, PlannedAmount: dec("100")},
	}}
	got := Compare(b, map[int64]decimal.Decimal{20: dec("50")})
	if !got.TotalActual.Equal(dec("50")) {
		t.Fatalf("shared account counted twice: %s", got.TotalActual)
	}
	if !got.Lines[1].ActualSpent.Equal(dec("50")) {
		t.Fatalf("each line sees the account actual, got %s", got.Lines[1].ActualSpent)
	}
	if ids := accountIDs(b.Lines); len(ids) != 1 {
		t.Fatalf("expected one distinct account, got %v", ids)
	}
}

func TestChainOfFollowsBothDirections(t *testing.T) {
	all := []Revision{
		{ID: 1, OriginalBudgetID: 1, NewBudgetID: 2},
		{ID: 2, OriginalBudgetID: 2, NewBudgetID: 3},
		{ID: 3, OriginalBudgetID: 7, NewBudgetID: 8},
	}
	got := chainOf(3, all)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("unexpected chain: %+v", got)
	}
	if len(chainOf(5, all)) != 0 {
		t.Fatalf("unrelated budget must have no revisions")
	}
}
