package expenses

import (
	"fmt"

	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

var (
	ErrExpenseNotFound = fmt.Errorf("expenses: expense not found: %w", core.ErrNotFound)
	ErrAlreadyPaid     = fmt.Errorf("expenses: expense already paid: %w", core.ErrConflict)
	ErrExpenseRejected = fmt.Errorf("expenses: expense is rejected: %w", core.ErrConflict)
	ErrNotPending      = fmt.Errorf("expenses: expense is not pending: %w", core.ErrConflict)
	ErrIncomingPayment = fmt.Errorf("expenses: expenses settle with outgoing payments only: %w", core.ErrValidation)
	ErrPaymentMismatch = fmt.Errorf("expenses: payment amount or project differs from the expense: %w", core.ErrValidation)
	ErrPaymentInUse    = fmt.Errorf("expenses: payment already settles another expense: %w", core.ErrConflict)
)
