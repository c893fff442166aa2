package journals

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// LineInput names an account by code with its amounts.
type LineInput struct {
	AccountCode   string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Description   string
	AnalyticsCode string
	TaxAmount     *decimal.Decimal
}

// SourceRef identifies the business document an entry was generated from.
// At most one entry may be linked to a given ref.
type SourceRef struct {
	Module string
	ID     uuid.UUID
}

// NewSourceRef derives a deterministic ref from a module and document id.
func NewSourceRef(module string, id int64) SourceRef {
	return SourceRef{Module: module, ID: uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("%s:%d", module, id)))}
}

// CreateEntryInput groups fields required to create a journal entry.
type CreateEntryInput struct {
	OrganizationID   int64
	ProjectID        *int64
	Date             time.Time
	Description      string
	Type             EntryType
	RelatedPaymentID *int64
	CreatedBy        int64
	Lines            []LineInput
	Source           *SourceRef
}

// Validate runs every check that does not need the store: lines present,
// amounts non-negative, non-zero total, and balance within Epsilon.
func (in CreateEntryInput) Validate() error {
	if in.OrganizationID == 0 {
		return fmt.Errorf("accounting: organization required: %w", core.ErrValidation)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("accounting: entry date required: %w", core.ErrValidation)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%q: %w", in.Type, shared.ErrInvalidEntryType)
	}
	if len(in.Lines) == 0 {
		return shared.ErrEmptyOrZeroEntry
	}
	var debit, credit decimal.Decimal
	for idx, line := range in.Lines {
		if strings.TrimSpace(line.AccountCode) == "" {
			return fmt.Errorf("line %d: %w", idx, shared.ErrMalformedAccountCode)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("line %d: %w", idx, shared.ErrNegativeAmount)
		}
		if !shared.WholeCents(line.Debit) || !shared.WholeCents(line.Credit) ||
			(line.TaxAmount != nil && !shared.WholeCents(*line.TaxAmount)) {
			return fmt.Errorf("line %d: %w", idx, shared.ErrSubCentAmount)
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if debit.IsZero() && credit.IsZero() {
		return shared.ErrEmptyOrZeroEntry
	}
	return CheckBalance(debit, credit)
}

// CheckBalance returns an UnbalancedEntryError when totals differ by more than Epsilon.
func CheckBalance(debit, credit decimal.Decimal) error {
	if !shared.Balanced(debit, credit) {
		return &shared.UnbalancedEntryError{Debit: debit, Credit: credit}
	}
	return nil
}

// PostInput identifies an entry to post.
type PostInput struct {
	OrganizationID int64
	EntryID        int64
	ActorID        int64
}

// CancelInput identifies an entry to cancel.
type CancelInput struct {
	OrganizationID int64
	EntryID        int64
	ActorID        int64
	Reason         string
}

// ReverseInput wraps parameters for reversal.
type ReverseInput struct {
	OrganizationID int64
	EntryID        int64
	ActorID        int64
	Description    string
	Date           *time.Time
}
