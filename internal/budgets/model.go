package budgets

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// Status enumerates budget lifecycle values.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
	StatusRevised  Status = "revised"
)

// Budget is a project budget. Approved and revised budgets are never edited;
// changes create a new revised budget linked by a Revision.
type Budget struct {
	ID             int64           `json:"id"`
	OrganizationID int64           `json:"organization_id"`
	ProjectID      int64           `json:"project_id"`
	Name           string          `json:"name"`
	TotalBudget    decimal.Decimal `json:"total_budget"`
	Status         Status          `json:"status"`
	EffectiveDate  time.Time       `json:"effective_date"`
	CreatedBy      int64           `json:"created_by"`
	ApprovedBy     *int64          `json:"approved_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	Lines          []Line          `json:"lines,omitempty"`
}

// Line plans spend against one account. SpentAmount is advisory only.
type Line struct {
	ID              int64           `json:"id"`
	BudgetID        int64           `json:"budget_id"`
	AccountID       int64           `json:"account_id"`
	AccountCode     string          `json:"account_code"`
	Category        string          `json:"category,omitempty"`
	Description     string          `json:"description,omitempty"`
	PlannedAmount   decimal.Decimal `json:"planned_amount"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	SpentAmount     decimal.Decimal `json:"spent_amount"`
}

// Revision links a budget to the budget that replaced it.
type Revision struct {
	ID               int64           `json:"id"`
	OriginalBudgetID int64           `json:"original_budget_id"`
	NewBudgetID      int64           `json:"new_budget_id"`
	ChangeAmount     decimal.Decimal `json:"change_amount"`
	Reason           string          `json:"reason"`
	CreatedBy        int64           `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
}

// LineInput plans an amount against an account code.
type LineInput struct {
	AccountCode     string
	Category        string
	Description     string
	PlannedAmount   decimal.Decimal
	AllocatedAmount decimal.Decimal
}

// CreateInput carries a new draft budget. TotalBudget defaults to the sum of
// planned amounts.
type CreateInput struct {
	OrganizationID int64
	ProjectID      int64
	Name           string
	TotalBudget    *decimal.Decimal
	EffectiveDate  time.Time
	CreatedBy      int64
	Lines          []LineInput
}

// Validate checks header and lines.
func (in CreateInput) Validate() error {
	if in.OrganizationID == 0 || in.ProjectID == 0 {
		return fmt.Errorf("budgets: organization and project required: %w", core.ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("budgets: name required: %w", core.ErrValidation)
	}
	return validateLines(in.Lines, in.TotalBudget)
}

func validateLines(lines []LineInput, total *decimal.Decimal) error {
	if len(lines) == 0 {
		return fmt.Errorf("budgets: at least one line required: %w", core.ErrValidation)
	}
	for idx, line := range lines {
		if strings.TrimSpace(line.AccountCode) == "" {
			return fmt.Errorf("budgets: line %d: account code required: %w", idx, core.ErrValidation)
		}
		if line.PlannedAmount.IsNegative() || line.AllocatedAmount.IsNegative() {
			return fmt.Errorf("budgets: line %d: amounts must not be negative: %w", idx, core.ErrValidation)
		}
	}
	if total != nil && total.IsNegative() {
		return fmt.Errorf("budgets: total must not be negative: %w", core.ErrValidation)
	}
	return nil
}

func totalOf(lines []LineInput, total *decimal.Decimal) decimal.Decimal {
	if total != nil {
		return *total
	}
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.PlannedAmount)
	}
	return sum
}

// RevisionInput replaces an approved budget with a revised one.
type RevisionInput struct {
	OrganizationID   int64
	OriginalBudgetID int64
	Name             string
	Reason           string
	TotalBudget      *decimal.Decimal
	EffectiveDate    time.Time
	CreatedBy        int64
	Lines            []LineInput
}

// ComparisonLine compares one budget line with posted spend.
type ComparisonLine struct {
	LineID        int64           `json:"line_id"`
	AccountID     int64           `json:"account_id"`
	AccountCode   string          `json:"account_code"`
	Category      string          `json:"category,omitempty"`
	Description   string          `json:"description,omitempty"`
	PlannedAmount decimal.Decimal `json:"planned_amount"`
	ActualSpent   decimal.Decimal `json:"actual_spent"`
	Variance      decimal.Decimal `json:"variance"`
	PercentUsed   decimal.Decimal `json:"percent_used"`
}

// Comparison is the budget versus actual view of a project.
type Comparison struct {
	BudgetID      int64            `json:"budget_id"`
	ProjectID     int64            `json:"project_id"`
	BudgetName    string           `json:"budget_name"`
	Status        Status           `json:"status"`
	EffectiveDate time.Time        `json:"effective_date"`
	Lines         []ComparisonLine `json:"lines"`
	TotalPlanned  decimal.Decimal  `json:"total_planned"`
	TotalActual   decimal.Decimal  `json:"total_actual"`
	TotalVariance decimal.Decimal  `json:"total_variance"`
	PercentUsed   decimal.Decimal  `json:"percent_used"`
}
