package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = fmt.Errorf("accounting: journal lines must balance: %w", core.ErrValidation)
	// ErrEmptyOrZeroEntry indicates an entry without lines or with a zero total.
	ErrEmptyOrZeroEntry = fmt.Errorf("accounting: entry has no lines or a zero total: %w", core.ErrValidation)
	// ErrNegativeAmount indicates a negative debit or credit.
	ErrNegativeAmount = fmt.Errorf("accounting: line amounts must be non-negative: %w", core.ErrValidation)
	// ErrSubCentAmount indicates an amount with more than two decimal places.
	ErrSubCentAmount = fmt.Errorf("accounting: line amounts are limited to cents: %w", core.ErrValidation)
	// ErrMalformedAccountCode indicates a code outside the chart format.
	ErrMalformedAccountCode = fmt.Errorf("accounting: malformed account code: %w", core.ErrValidation)
	// ErrInvalidEntryType indicates an unknown journal entry type.
	ErrInvalidEntryType = fmt.Errorf("accounting: invalid entry type: %w", core.ErrValidation)
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = fmt.Errorf("accounting: journal entry not found: %w", core.ErrNotFound)
	// ErrAlreadyPosted indicates the entry was posted before.
	ErrAlreadyPosted = fmt.Errorf("accounting: journal entry already posted: %w", core.ErrConflict)
	// ErrAlreadyCancelled indicates the entry was cancelled before.
	ErrAlreadyCancelled = fmt.Errorf("accounting: journal entry already cancelled: %w", core.ErrConflict)
	// ErrNotPosted indicates the action requires a posted entry.
	ErrNotPosted = fmt.Errorf("accounting: journal entry is not posted: %w", core.ErrConflict)
	// ErrPeriodLocked indicates locked period.
	ErrPeriodLocked = fmt.Errorf("accounting: period locked: %w", core.ErrConflict)
	// ErrInvalidPeriodTransition indicates a period status change that is not allowed.
	ErrInvalidPeriodTransition = fmt.Errorf("accounting: invalid period transition: %w", core.ErrConflict)
	// ErrSourceAlreadyLinked indicates idempotency conflict.
	ErrSourceAlreadyLinked = fmt.Errorf("accounting: source already linked: %w", core.ErrConflict)
	// ErrDuplicateAccount indicates the code is already used in the organization.
	ErrDuplicateAccount = fmt.Errorf("accounting: account code already exists: %w", core.ErrConflict)
	// ErrChartNotInitialized indicates the organization has no usable chart of accounts.
	ErrChartNotInitialized = fmt.Errorf("accounting: chart of accounts not initialized, seed the chart of accounts first: %w", core.ErrPrecondition)
)

// UnbalancedEntryError reports the computed totals of a rejected entry.
type UnbalancedEntryError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("accounting: journal lines must balance (debit %s, credit %s)", e.Debit.StringFixed(2), e.Credit.StringFixed(2))
}

// Unwrap lets errors.Is match ErrUnbalanced and the validation category.
func (e *UnbalancedEntryError) Unwrap() error { return ErrUnbalanced }

// AccountNotFoundError names the account that failed to resolve.
type AccountNotFoundError struct {
	Code string
	ID   int64
}

func (e *AccountNotFoundError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("accounting: account %q not found", e.Code)
	}
	return fmt.Sprintf("accounting: account %d not found", e.ID)
}

func (e *AccountNotFoundError) Unwrap() error { return core.ErrNotFound }

// ChartNotInitialized wraps ErrChartNotInitialized with the missing code.
func ChartNotInitialized(code string) error {
	return fmt.Errorf("account %q missing: %w", code, ErrChartNotInitialized)
}

// IsAccountNotFound reports whether err is an AccountNotFoundError.
func IsAccountNotFound(err error) bool {
	var target *AccountNotFoundError
	return errors.As(err, &target)
}
