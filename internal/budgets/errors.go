package budgets

import (
	"fmt"

	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

var (
	ErrBudgetNotFound         = fmt.Errorf("budgets: budget not found: %w", core.ErrNotFound)
	ErrNoActiveBudget         = fmt.Errorf("budgets: project has no approved budget: %w", core.ErrNotFound)
	ErrRevisionReasonRequired = fmt.Errorf("budgets: revision reason required: %w", core.ErrValidation)
	ErrBudgetNotApproved      = fmt.Errorf("budgets: only approved or revised budgets can be revised: %w", core.ErrConflict)
	ErrBudgetNotDraft         = fmt.Errorf("budgets: only draft budgets can be approved: %w", core.ErrConflict)
)
