package budgets

import (
	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
)

// Compare merges budget lines with posted debits per account. Lines sharing
// an account each see the account's full actual.
func Compare(b Budget, actuals map[int64]decimal.Decimal) Comparison {
	out := Comparison{
		BudgetID:      b.ID,
		ProjectID:     b.ProjectID,
		BudgetName:    b.Name,
		Status:        b.Status,
		EffectiveDate: b.EffectiveDate,
		Lines:         make([]ComparisonLine, 0, len(b.Lines)),
	}
	seen := make(map[int64]bool, len(b.Lines))
	for _, line := range b.Lines {
		actual := actuals[line.AccountID]
		row := ComparisonLine{
			LineID:        line.ID,
			AccountID:     line.AccountID,
			AccountCode:   line.AccountCode,
			Category:      line.Category,
			Description:   line.Description,
			PlannedAmount: line.PlannedAmount,
			ActualSpent:   actual,
			Variance:      line.PlannedAmount.Sub(actual),
			PercentUsed:   shared.Percent(actual, line.PlannedAmount),
		}
		out.Lines = append(out.Lines, row)
		out.TotalPlanned = out.TotalPlanned.Add(line.PlannedAmount)
		if !seen[line.AccountID] {
			out.TotalActual = out.TotalActual.Add(actual)
			seen[line.AccountID] = true
		}
	}
	out.TotalVariance = out.TotalPlanned.Sub(out.TotalActual)
	out.PercentUsed = shared.Percent(out.TotalActual, out.TotalPlanned)
	return out
}

func accountIDs(lines []Line) []int64 {
	seen := make(map[int64]bool, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if !seen[line.AccountID] {
			seen[line.AccountID] = true
			ids = append(ids, line.AccountID)
		}
	}
	return ids
}
