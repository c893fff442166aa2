package payments

import (
	"fmt"

	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

var (
	ErrPaymentNotFound  = fmt.Errorf("payments: payment not found: %w", core.ErrNotFound)
	ErrAlreadyConfirmed = fmt.Errorf("payments: payment already confirmed: %w", core.ErrConflict)
	ErrPaymentCancelled = fmt.Errorf("payments: payment is cancelled: %w", core.ErrConflict)
	ErrInvalidDirection = fmt.Errorf("payments: direction must be incoming or outgoing: %w", core.ErrValidation)
)
