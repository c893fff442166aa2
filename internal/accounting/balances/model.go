package balances

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/periods"
)

// AccountBalance is the disposable per-period cache row. Opening is the
// signed balance before the period, totals cover the period only, and
// Closing = Opening + signed(TotalDebits, TotalCredits).
type AccountBalance struct {
	AccountID      int64           `json:"account_id"`
	ProjectID      *int64          `json:"project_id,omitempty"`
	Period         periods.Month   `json:"period"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	TotalDebits    decimal.Decimal `json:"total_debits"`
	TotalCredits   decimal.Decimal `json:"total_credits"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	LastUpdated    time.Time       `json:"last_updated"`
}

// Query selects one balance. A nil ProjectID aggregates all projects.
type Query struct {
	OrganizationID int64
	AccountID      int64
	ProjectID      *int64
	Period         periods.Month
}

// Sums are raw debit and credit totals.
type Sums struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// SumFilter selects posted lines of one account with date in [From, To).
// A nil From means from the beginning.
type SumFilter struct {
	AccountID int64
	ProjectID *int64
	From      *time.Time
	To        time.Time
}

// ActivityFilter selects posted lines of an organization. Lines dated before
// From count as opening; lines in [From, To) count as period activity.
type ActivityFilter struct {
	OrganizationID int64
	ProjectID      *int64
	From           *time.Time
	To             time.Time
}

// AccountActivity aggregates posted lines for one account.
type AccountActivity struct {
	AccountID     int64
	Code          string
	Name          string
	Type          accounts.AccountType
	Category      string
	OpeningDebit  decimal.Decimal
	OpeningCredit decimal.Decimal
	Debit         decimal.Decimal
	Credit        decimal.Decimal
}

// Opening is the signed balance before the range.
func (a AccountActivity) Opening() decimal.Decimal {
	return a.Type.Signed(a.OpeningDebit, a.OpeningCredit)
}

// Net is the signed movement inside the range.
func (a AccountActivity) Net() decimal.Decimal {
	return a.Type.Signed(a.Debit, a.Credit)
}

// Closing is Opening plus Net.
func (a AccountActivity) Closing() decimal.Decimal {
	return a.Opening().Add(a.Net())
}

// CashMovement sums cash and bank lines of posted entries of one type.
// Inflow is the debit side, Outflow the credit side.
type CashMovement struct {
	EntryType string
	Inflow    decimal.Decimal
	Outflow   decimal.Decimal
}

func projectKey(projectID *int64) int64 {
	if projectID == nil {
		return 0
	}
	return *projectID
}
