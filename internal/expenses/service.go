package expenses

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nekorytaylor666/stroika-sub000/internal/payments"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// Poster recognizes a paid expense in the ledger.
type Poster interface {
	// PostExpenseRecognized posts Dr expense / Cr payables for e and returns the entry id.
	PostExpenseRecognized(ctx context.Context, e Expense, actorID int64) (int64, error)
}

// PaymentGateway is the slice of the payment service expenses settle through.
type PaymentGateway interface {
	GetPayment(ctx context.Context, organizationID, id int64) (payments.Payment, error)
	CreatePayment(ctx context.Context, in payments.CreateInput) (payments.Payment, error)
	ConfirmPayment(ctx context.Context, in payments.ConfirmInput) (payments.Payment, error)
}

// AuditPort records expense lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log core.AuditLog) error
}

// Service manages expenses.
type Service struct {
	repo     Repository
	poster   Poster
	payments PaymentGateway
	audit    AuditPort
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the expense service. audit may be nil.
func NewService(repo Repository, poster Poster, gateway PaymentGateway, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, poster: poster, payments: gateway, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateExpense records a pending expense.
func (s *Service) CreateExpense(ctx context.Context, in CreateInput) (Expense, error) {
	in.Category = strings.TrimSpace(in.Category)
	if err := in.Validate(); err != nil {
		return Expense{}, err
	}
	date := in.ExpenseDate
	if date.IsZero() {
		date = s.now()
	}
	var out Expense
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		out, err = tx.Insert(ctx, Expense{
			OrganizationID: in.OrganizationID,
			ProjectID:      in.ProjectID,
			Amount:         in.Amount,
			TaxAmount:      in.TaxAmount,
			Category:       in.Category,
			Description:    in.Description,
			Vendor:         in.Vendor,
			ExpenseDate:    date,
			Status:         StatusPending,
			CreatedBy:      in.CreatedBy,
		})
		if err != nil {
			return err
		}
		s.record(ctx, "expense.create", out, in.CreatedBy, nil)
		return nil
	})
	if err != nil {
		return Expense{}, err
	}
	return out, nil
}

// UpdateExpense edits an unpaid expense.
func (s *Service) UpdateExpense(ctx context.Context, in UpdateInput) (Expense, error) {
	var out Expense
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		e, err := tx.GetForUpdate(ctx, in.OrganizationID, in.ExpenseID)
		if err != nil {
			return err
		}
		if e.Status == StatusPaid {
			return ErrAlreadyPaid
		}
		in.apply(&e)
		if err := validateAmounts(e.Amount, e.TaxAmount); err != nil {
			return err
		}
		if e.Category == "" {
			return fmt.Errorf("expenses: category required: %w", core.ErrValidation)
		}
		e.UpdatedAt = s.now()
		if err := tx.Update(ctx, e); err != nil {
			return err
		}
		out = e
		s.record(ctx, "expense.update", e, in.ActorID, nil)
		return nil
	})
	if err != nil {
		return Expense{}, err
	}
	return out, nil
}

// ApproveExpense moves a pending expense to approved.
func (s *Service) ApproveExpense(ctx context.Context, organizationID, expenseID, actorID int64) (Expense, error) {
	return s.transition(ctx, organizationID, expenseID, actorID, StatusApproved, "expense.approve")
}

// RejectExpense rejects an unpaid expense.
func (s *Service) RejectExpense(ctx context.Context, organizationID, expenseID, actorID int64) (Expense, error) {
	return s.transition(ctx, organizationID, expenseID, actorID, StatusRejected, "expense.reject")
}

func (s *Service) transition(ctx context.Context, organizationID, expenseID, actorID int64, target Status, action string) (Expense, error) {
	var out Expense
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		e, err := tx.GetForUpdate(ctx, organizationID, expenseID)
		if err != nil {
			return err
		}
		switch {
		case e.Status == StatusPaid:
			return ErrAlreadyPaid
		case e.Status == StatusRejected:
			return ErrExpenseRejected
		case target == StatusApproved && e.Status != StatusPending:
			return ErrNotPending
		}
		now := s.now()
		if err := tx.SetStatus(ctx, e.ID, target, now); err != nil {
			return err
		}
		e.Status = target
		e.UpdatedAt = now
		out = e
		s.record(ctx, action, e, actorID, nil)
		return nil
	})
	if err != nil {
		return Expense{}, err
	}
	return out, nil
}

// MarkExpensePaid recognizes the expense in the ledger and settles it with
// the given payment, or with a new outgoing payment when paymentID is nil.
// Everything happens in one transaction.
func (s *Service) MarkExpensePaid(ctx context.Context, in MarkPaidInput) (Expense, error) {
	if in.ExpenseID == 0 {
		return Expense{}, fmt.Errorf("expenses: expense id required: %w", core.ErrValidation)
	}
	var out Expense
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		e, err := tx.GetForUpdate(ctx, in.OrganizationID, in.ExpenseID)
		if err != nil {
			return err
		}
		switch e.Status {
		case StatusPaid:
			return ErrAlreadyPaid
		case StatusRejected:
			return ErrExpenseRejected
		}
		if in.PaymentID != nil {
			if err := s.checkSettlement(ctx, tx, e, *in.PaymentID); err != nil {
				return err
			}
		}
		entryID, err := s.poster.PostExpenseRecognized(ctx, e, in.ActorID)
		if err != nil {
			return err
		}
		payment, err := s.settle(ctx, e, in)
		if err != nil {
			return err
		}
		now := s.now()
		if err := tx.MarkPaid(ctx, e.ID, payment.ID, entryID, in.ActorID, now); err != nil {
			return err
		}
		e.Status = StatusPaid
		e.PaymentID = &payment.ID
		e.RelatedJournalEntryID = &entryID
		e.PaidBy = &in.ActorID
		e.PaidAt = &now
		e.UpdatedAt = now
		out = e
		s.record(ctx, "expense.paid", e, in.ActorID, map[string]any{
			"payment_id":       payment.ID,
			"journal_entry_id": entryID,
			"auto_payment":     in.PaymentID == nil,
		})
		return nil
	})
	if err != nil {
		return Expense{}, err
	}
	return out, nil
}

// checkSettlement requires a supplied payment to be an outgoing, uncancelled
// payment of the same amount and project that settles no other expense.
func (s *Service) checkSettlement(ctx context.Context, tx TxRepository, e Expense, paymentID int64) error {
	p, err := s.payments.GetPayment(ctx, e.OrganizationID, paymentID)
	if err != nil {
		return err
	}
	if p.Direction != payments.DirectionOutgoing {
		return ErrIncomingPayment
	}
	if p.Status == payments.StatusCancelled {
		return payments.ErrPaymentCancelled
	}
	if !p.Amount.Equal(e.Amount) || !sameProject(p.ProjectID, e.ProjectID) {
		return fmt.Errorf("payment %s: %w", p.Number, ErrPaymentMismatch)
	}
	other, used, err := tx.SettledBy(ctx, e.OrganizationID, paymentID)
	if err != nil {
		return err
	}
	if used && other != e.ID {
		return fmt.Errorf("payment %s settles expense #%d: %w", p.Number, other, ErrPaymentInUse)
	}
	return nil
}

func sameProject(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// settle confirms the supplied payment when pending, or creates and confirms
// a new outgoing payment for the expense amount.
func (s *Service) settle(ctx context.Context, e Expense, in MarkPaidInput) (payments.Payment, error) {
	if in.PaymentID != nil {
		p, err := s.payments.GetPayment(ctx, in.OrganizationID, *in.PaymentID)
		if err != nil {
			return payments.Payment{}, err
		}
		if p.Status == payments.StatusConfirmed {
			return p, nil
		}
		return s.payments.ConfirmPayment(ctx, payments.ConfirmInput{OrganizationID: in.OrganizationID, PaymentID: p.ID, ActorID: in.ActorID})
	}
	description := e.Description
	if description == "" {
		description = fmt.Sprintf("Payment for expense #%d", e.ID)
	}
	p, err := s.payments.CreatePayment(ctx, payments.CreateInput{
		OrganizationID: e.OrganizationID,
		ProjectID:      e.ProjectID,
		Amount:         e.Amount,
		Direction:      payments.DirectionOutgoing,
		Type:           "expense",
		Counterparty:   e.Vendor,
		Description:    description,
		PaymentDate:    s.now(),
		CreatedBy:      in.ActorID,
	})
	if err != nil {
		return payments.Payment{}, err
	}
	return s.payments.ConfirmPayment(ctx, payments.ConfirmInput{OrganizationID: in.OrganizationID, PaymentID: p.ID, ActorID: in.ActorID})
}

// GetExpense returns one expense.
func (s *Service) GetExpense(ctx context.Context, organizationID, id int64) (Expense, error) {
	return s.repo.Get(ctx, organizationID, id)
}

// ListExpenses returns expenses matching filter, newest first.
func (s *Service) ListExpenses(ctx context.Context, filter ListFilter) ([]Expense, error) {
	return s.repo.List(ctx, filter)
}

// Totals sums expenses of a project, or the whole organization when projectID is nil.
func (s *Service) Totals(ctx context.Context, organizationID int64, projectID *int64) (Totals, error) {
	return s.repo.Totals(ctx, organizationID, projectID)
}

func (s *Service) record(ctx context.Context, action string, e Expense, actorID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	db.AfterCommit(ctx, func(ctx context.Context) {
		if meta == nil {
			meta = map[string]any{}
		}
		meta["amount"] = e.Amount.StringFixed(2)
		meta["category"] = e.Category
		meta["status"] = string(e.Status)
		if err := s.audit.Record(ctx, core.AuditLog{
			OrganizationID: e.OrganizationID,
			ActorID:        actorID,
			Action:         action,
			Entity:         "expense",
			EntityID:       fmt.Sprintf("%d", e.ID),
			Meta:           meta,
			At:             s.now(),
		}); err != nil {
			s.logger.Warn("record expense audit", slog.String("action", action), slog.Any("error", err))
		}
	})
}
