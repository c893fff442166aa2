package payments

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// Direction distinguishes money received from money paid out.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionIncoming || d == DirectionOutgoing
}

// Status enumerates payment lifecycle values.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Payment is the business intent behind a cash movement. Confirmation posts
// the matching journal entry.
type Payment struct {
	ID                    int64           `json:"id"`
	OrganizationID        int64           `json:"organization_id"`
	ProjectID             *int64          `json:"project_id,omitempty"`
	Number                string          `json:"number"`
	Amount                decimal.Decimal `json:"amount"`
	Direction             Direction       `json:"direction"`
	Status                Status          `json:"status"`
	Type                  string          `json:"type,omitempty"`
	Method                string          `json:"method,omitempty"`
	Counterparty          string          `json:"counterparty,omitempty"`
	Description           string          `json:"description,omitempty"`
	PaymentDate           time.Time       `json:"payment_date"`
	RelatedJournalEntryID *int64          `json:"related_journal_entry_id,omitempty"`
	CreatedBy             int64           `json:"created_by"`
	ConfirmedBy           *int64          `json:"confirmed_by,omitempty"`
	ConfirmedAt           *time.Time      `json:"confirmed_at,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

// CreateInput carries a new payment.
type CreateInput struct {
	OrganizationID int64
	ProjectID      *int64
	Amount         decimal.Decimal
	Direction      Direction
	Type           string
	Method         string
	Counterparty   string
	Description    string
	PaymentDate    time.Time
	CreatedBy      int64
}

// Validate checks amount and direction.
func (in CreateInput) Validate() error {
	if in.OrganizationID == 0 {
		return fmt.Errorf("payments: organization required: %w", core.ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("payments: amount must be positive: %w", core.ErrValidation)
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return fmt.Errorf("payments: amount has more than two decimals: %w", core.ErrValidation)
	}
	if !Direction(strings.ToLower(string(in.Direction))).Valid() {
		return fmt.Errorf("payments: direction %q: %w", in.Direction, ErrInvalidDirection)
	}
	return nil
}

// ConfirmInput confirms a pending payment.
type ConfirmInput struct {
	OrganizationID int64
	PaymentID      int64
	ActorID        int64
}

// CancelInput cancels a payment and, if confirmed, its journal entry.
type CancelInput struct {
	OrganizationID int64
	PaymentID      int64
	ActorID        int64
	Reason         string
}

// ListFilter narrows payment listings.
type ListFilter struct {
	OrganizationID int64
	ProjectID      *int64
	Status         Status
	Direction      Direction
}

// Totals sums payments by direction and status.
type Totals struct {
	ConfirmedIncoming decimal.Decimal `json:"confirmed_incoming"`
	ConfirmedOutgoing decimal.Decimal `json:"confirmed_outgoing"`
	PendingIncoming   decimal.Decimal `json:"pending_incoming"`
	PendingOutgoing   decimal.Decimal `json:"pending_outgoing"`
}
