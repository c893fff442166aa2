package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/balances"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
)

// ProfitAndLossAccount represents a revenue or expense account summary.
type ProfitAndLossAccount struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// ProfitAndLossSection groups accounts by nature.
type ProfitAndLossSection struct {
	Label    string                 `json:"label"`
	Accounts []ProfitAndLossAccount `json:"accounts"`
	Total    decimal.Decimal        `json:"total"`
}

// ProfitAndLoss contains the structured output for the report.
type ProfitAndLoss struct {
	Range         Range                `json:"range"`
	Revenue       ProfitAndLossSection `json:"revenue"`
	Expense       ProfitAndLossSection `json:"expense"`
	TotalRevenue  decimal.Decimal      `json:"total_revenue"`
	TotalExpenses decimal.Decimal      `json:"total_expenses"`
	NetIncome     decimal.Decimal      `json:"net_income"`
	// ProfitMargin is NetIncome / TotalRevenue * 100, zero without revenue.
	ProfitMargin decimal.Decimal `json:"profit_margin"`
}

// BuildProfitAndLoss aggregates in-range activity of revenue and expense
// accounts. Revenue is credit minus debit, expense debit minus credit.
func BuildProfitAndLoss(rows []balances.AccountActivity) ProfitAndLoss {
	revenue := ProfitAndLossSection{Label: "Revenue"}
	expense := ProfitAndLossSection{Label: "Expense"}

	for _, acc := range rows {
		row := ProfitAndLossAccount{Code: acc.Code, Name: acc.Name, Amount: acc.Net()}
		switch acc.Type {
		case accounts.AccountTypeRevenue:
			revenue.Accounts = append(revenue.Accounts, row)
			revenue.Total = revenue.Total.Add(row.Amount)
		case accounts.AccountTypeExpense:
			expense.Accounts = append(expense.Accounts, row)
			expense.Total = expense.Total.Add(row.Amount)
		}
	}

	sort.Slice(revenue.Accounts, func(i, j int) bool { return revenue.Accounts[i].Code < revenue.Accounts[j].Code })
	sort.Slice(expense.Accounts, func(i, j int) bool { return expense.Accounts[i].Code < expense.Accounts[j].Code })

	net := revenue.Total.Sub(expense.Total)
	return ProfitAndLoss{
		Revenue:       revenue,
		Expense:       expense,
		TotalRevenue:  revenue.Total,
		TotalExpenses: expense.Total,
		NetIncome:     net,
		ProfitMargin:  shared.Percent(net, revenue.Total),
	}
}
