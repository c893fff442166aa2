package payments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// NumberPrefix prefixes generated payment numbers.
const NumberPrefix = "PAY"

// Poster turns payment transitions into journal entries.
type Poster interface {
	// PostPaymentConfirmed creates and posts the entry for p and returns its id.
	PostPaymentConfirmed(ctx context.Context, p Payment, actorID int64) (int64, error)
	// CancelPaymentPosting cancels the entry posted for p.
	CancelPaymentPosting(ctx context.Context, p Payment, actorID int64, reason string) error
}

// AuditPort records payment lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log core.AuditLog) error
}

// Service manages payments.
type Service struct {
	repo   Repository
	poster Poster
	audit  AuditPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the payment service. audit may be nil.
func NewService(repo Repository, poster Poster, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, poster: poster, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreatePayment records a pending payment. Nothing is posted yet.
func (s *Service) CreatePayment(ctx context.Context, in CreateInput) (Payment, error) {
	in.Direction = Direction(strings.ToLower(strings.TrimSpace(string(in.Direction))))
	if err := in.Validate(); err != nil {
		return Payment{}, err
	}
	date := in.PaymentDate
	if date.IsZero() {
		date = s.now()
	}
	var out Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		seq, err := tx.NextNumber(ctx, in.OrganizationID, date)
		if err != nil {
			return err
		}
		out, err = tx.Insert(ctx, Payment{
			OrganizationID: in.OrganizationID,
			ProjectID:      in.ProjectID,
			Number:         core.FormatDocumentNumber(NumberPrefix, date, seq),
			Amount:         in.Amount,
			Direction:      in.Direction,
			Status:         StatusPending,
			Type:           in.Type,
			Method:         in.Method,
			Counterparty:   in.Counterparty,
			Description:    in.Description,
			PaymentDate:    date,
			CreatedBy:      in.CreatedBy,
		})
		if err != nil {
			return err
		}
		s.record(ctx, "payment.create", out, in.CreatedBy, nil)
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	return out, nil
}

// ConfirmPayment posts the payment's journal entry and marks it confirmed
// in one transaction. A payment that is no longer pending is rejected.
func (s *Service) ConfirmPayment(ctx context.Context, in ConfirmInput) (Payment, error) {
	if in.PaymentID == 0 {
		return Payment{}, fmt.Errorf("payments: payment id required: %w", core.ErrValidation)
	}
	var out Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetForUpdate(ctx, in.OrganizationID, in.PaymentID)
		if err != nil {
			return err
		}
		switch p.Status {
		case StatusConfirmed:
			return ErrAlreadyConfirmed
		case StatusCancelled:
			return ErrPaymentCancelled
		}
		entryID, err := s.poster.PostPaymentConfirmed(ctx, p, in.ActorID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := tx.MarkConfirmed(ctx, p.ID, entryID, in.ActorID, now); err != nil {
			return err
		}
		p.Status = StatusConfirmed
		p.RelatedJournalEntryID = &entryID
		p.ConfirmedBy = &in.ActorID
		p.ConfirmedAt = &now
		out = p
		s.record(ctx, "payment.confirm", p, in.ActorID, map[string]any{"journal_entry_id": entryID})
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	return out, nil
}

// CancelPayment cancels a pending payment, or a confirmed one together with
// its journal entry.
func (s *Service) CancelPayment(ctx context.Context, in CancelInput) (Payment, error) {
	if in.PaymentID == 0 {
		return Payment{}, fmt.Errorf("payments: payment id required: %w", core.ErrValidation)
	}
	var out Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetForUpdate(ctx, in.OrganizationID, in.PaymentID)
		if err != nil {
			return err
		}
		if p.Status == StatusCancelled {
			return ErrPaymentCancelled
		}
		if p.Status == StatusConfirmed && p.RelatedJournalEntryID != nil {
			if err := s.poster.CancelPaymentPosting(ctx, p, in.ActorID, in.Reason); err != nil {
				return err
			}
		}
		if err := tx.MarkCancelled(ctx, p.ID); err != nil {
			return err
		}
		p.Status = StatusCancelled
		out = p
		s.record(ctx, "payment.cancel", p, in.ActorID, map[string]any{"reason": in.Reason})
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	return out, nil
}

// GetPayment returns one payment.
func (s *Service) GetPayment(ctx context.Context, organizationID, id int64) (Payment, error) {
	return s.repo.Get(ctx, organizationID, id)
}

// ListPayments returns payments matching filter, newest first.
func (s *Service) ListPayments(ctx context.Context, filter ListFilter) ([]Payment, error) {
	return s.repo.List(ctx, filter)
}

// Totals sums payments by direction and status. A nil project covers the
// whole organization.
func (s *Service) Totals(ctx context.Context, organizationID int64, projectID *int64) (Totals, error) {
	return s.repo.Totals(ctx, organizationID, projectID)
}

func (s *Service) record(ctx context.Context, action string, p Payment, actorID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	db.AfterCommit(ctx, func(ctx context.Context) {
		if meta == nil {
			meta = map[string]any{}
		}
		meta["number"] = p.Number
		meta["amount"] = p.Amount.StringFixed(2)
		meta["direction"] = string(p.Direction)
		if err := s.audit.Record(ctx, core.AuditLog{
			OrganizationID: p.OrganizationID,
			ActorID:        actorID,
			Action:         action,
			Entity:         "payment",
			EntityID:       fmt.Sprintf("%d", p.ID),
			Meta:           meta,
			At:             s.now(),
		}); err != nil {
			s.logger.Warn("record payment audit", slog.String("action", action), slog.Any("error", err))
		}
	})
}
