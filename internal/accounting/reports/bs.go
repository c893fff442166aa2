package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/balances"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
)

// CurrentEarningsLabel names the synthetic equity row carrying revenue
// minus expense to date.
const CurrentEarningsLabel = "Current earnings"

// BalanceSheetAccount summarises an account for assets, liabilities, or equity.
type BalanceSheetAccount struct {
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// BalanceSheetSection contains the accounts and totals for a classification.
type BalanceSheetSection struct {
	Label    string                `json:"label"`
	Accounts []BalanceSheetAccount `json:"accounts"`
	Total    decimal.Decimal       `json:"total"`
}

// BalanceSheet is the structured response for the balance sheet report.
type BalanceSheet struct {
	AsOf                      string              `json:"as_of"`
	ProjectID                 *int64              `json:"project_id,omitempty"`
	Assets                    BalanceSheetSection `json:"assets"`
	Liabilities               BalanceSheetSection `json:"liabilities"`
	Equity                    BalanceSheetSection `json:"equity"`
	TotalAssets               decimal.Decimal     `json:"total_assets"`
	TotalLiabilities          decimal.Decimal     `json:"total_liabilities"`
	TotalEquity               decimal.Decimal     `json:"total_equity"`
	TotalLiabilitiesAndEquity decimal.Decimal     `json:"total_liabilities_and_equity"`
	// Difference is assets minus liabilities and equity. A non-zero value
	// signals missing or corrupt entries and is reported, not raised.
	Difference decimal.Decimal `json:"difference"`
	IsBalanced bool            `json:"is_balanced"`
}

// BuildBalanceSheet classifies cumulative closing balances. Revenue and
// expense accounts collapse into a single current earnings equity row.
func BuildBalanceSheet(rows []balances.AccountActivity) BalanceSheet {
	assets := BalanceSheetSection{Label: "Assets"}
	liabilities := BalanceSheetSection{Label: "Liabilities"}
	equity := BalanceSheetSection{Label: "Equity"}
	earnings := decimal.Zero
	hasEarnings := false

	for _, acc := range rows {
		balance := acc.Closing()
		row := BalanceSheetAccount{Code: acc.Code, Name: acc.Name, Balance: balance}
		switch acc.Type {
		case accounts.AccountTypeAsset:
			assets.Accounts = append(assets.Accounts, row)
			assets.Total = assets.Total.Add(row.Balance)
		case accounts.AccountTypeLiability:
			liabilities.Accounts = append(liabilities.Accounts, row)
			liabilities.Total = liabilities.Total.Add(row.Balance)
		case accounts.AccountTypeEquity:
			equity.Accounts = append(equity.Accounts, row)
			equity.Total = equity.Total.Add(row.Balance)
		case accounts.AccountTypeRevenue:
			earnings = earnings.Add(balance)
			hasEarnings = true
		case accounts.AccountTypeExpense:
			earnings = earnings.Sub(balance)
			hasEarnings = true
		}
	}

	sort.Slice(assets.Accounts, func(i, j int) bool { return assets.Accounts[i].Code < assets.Accounts[j].Code })
	sort.Slice(liabilities.Accounts, func(i, j int) bool { return liabilities.Accounts[i].Code < liabilities.Accounts[j].Code })
	sort.Slice(equity.Accounts, func(i, j int) bool { return equity.Accounts[i].Code < equity.Accounts[j].Code })

	if hasEarnings {
		equity.Accounts = append(equity.Accounts, BalanceSheetAccount{Name: CurrentEarningsLabel, Balance: earnings})
		equity.Total = equity.Total.Add(earnings)
	}

	le := liabilities.Total.Add(equity.Total)
	diff := assets.Total.Sub(le)
	return BalanceSheet{
		Assets:                    assets,
		Liabilities:               liabilities,
		Equity:                    equity,
		TotalAssets:               assets.Total,
		TotalLiabilities:          liabilities.Total,
		TotalEquity:               equity.Total,
		TotalLiabilitiesAndEquity: le,
		Difference:                diff,
		IsBalanced:                diff.Abs().LessThan(shared.Epsilon),
	}
}
