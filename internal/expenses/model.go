package expenses

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// Status enumerates expense lifecycle values.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
	StatusRejected Status = "rejected"
)

// Expense is a project cost awaiting or having received payment. Once paid
// it is immutable.
type Expense struct {
	ID                    int64            `json:"id"`
	OrganizationID        int64            `json:"organization_id"`
	ProjectID             *int64           `json:"project_id,omitempty"`
	Amount                decimal.Decimal  `json:"amount"`
	TaxAmount             *decimal.Decimal `json:"tax_amount,omitempty"`
	Category              string           `json:"category"`
	Description           string           `json:"description,omitempty"`
	Vendor                string           `json:"vendor,omitempty"`
	ExpenseDate           time.Time        `json:"expense_date"`
	Status                Status           `json:"status"`
	PaymentID             *int64           `json:"payment_id,omitempty"`
	RelatedJournalEntryID *int64           `json:"related_journal_entry_id,omitempty"`
	CreatedBy             int64            `json:"created_by"`
	PaidBy                *int64           `json:"paid_by,omitempty"`
	PaidAt                *time.Time       `json:"paid_at,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// CreateInput carries a new expense.
type CreateInput struct {
	OrganizationID int64
	ProjectID      *int64
	Amount         decimal.Decimal
	TaxAmount      *decimal.Decimal
	Category       string
	Description    string
	Vendor         string
	ExpenseDate    time.Time
	CreatedBy      int64
}

// Validate checks amount and category.
func (in CreateInput) Validate() error {
	if in.OrganizationID == 0 {
		return fmt.Errorf("expenses: organization required: %w", core.ErrValidation)
	}
	if err := validateAmounts(in.Amount, in.TaxAmount); err != nil {
		return err
	}
	if strings.TrimSpace(in.Category) == "" {
		return fmt.Errorf("expenses: category required: %w", core.ErrValidation)
	}
	return nil
}

func validateAmounts(amount decimal.Decimal, tax *decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("expenses: amount must be positive: %w", core.ErrValidation)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("expenses: amount has more than two decimals: %w", core.ErrValidation)
	}
	if tax != nil && (tax.IsNegative() || tax.GreaterThan(amount)) {
		return fmt.Errorf("expenses: tax must be between zero and the amount: %w", core.ErrValidation)
	}
	return nil
}

// UpdateInput changes an unpaid expense. Nil fields are left untouched.
type UpdateInput struct {
	OrganizationID int64
	ExpenseID      int64
	ActorID        int64
	Amount         *decimal.Decimal
	TaxAmount      *decimal.Decimal
	Category       *string
	Description    *string
	Vendor         *string
	ExpenseDate    *time.Time
}

func (in UpdateInput) apply(e *Expense) {
	if in.Amount != nil {
		e.Amount = *in.Amount
	}
	if in.TaxAmount != nil {
		tax := *in.TaxAmount
		e.TaxAmount = &tax
	}
	if in.Category != nil {
		e.Category = strings.TrimSpace(*in.Category)
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Vendor != nil {
		e.Vendor = *in.Vendor
	}
	if in.ExpenseDate != nil {
		e.ExpenseDate = *in.ExpenseDate
	}
}

// MarkPaidInput settles an expense, optionally with an existing payment.
type MarkPaidInput struct {
	OrganizationID int64
	ExpenseID      int64
	PaymentID      *int64
	ActorID        int64
}

// ListFilter narrows expense listings.
type ListFilter struct {
	OrganizationID int64
	ProjectID      *int64
	Status         Status
	Category       string
}

// Totals sums expenses from the expenses table. Rejected expenses are
// excluded from Total.
type Totals struct {
	Total decimal.Decimal `json:"total"`
	Paid  decimal.Decimal `json:"paid"`
}
