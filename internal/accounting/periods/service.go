package periods

import (
	"context"
	"fmt"
	"time"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
)

// Service guards postings against locked periods.
type Service struct {
	repo Repository
}

// NewService constructs the period service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureOpen fails with ErrPeriodLocked when the month containing date is locked.
// Closed periods still accept postings.
func (s *Service) EnsureOpen(ctx context.Context, organizationID int64, date time.Time) error {
	p, err := s.repo.Get(ctx, organizationID, MonthOf(date))
	if err != nil {
		return err
	}
	if p.Status == PeriodStatusLocked {
		return fmt.Errorf("%s: %w", p.Month, shared.ErrPeriodLocked)
	}
	return nil
}

// Get returns the status of a month.
func (s *Service) Get(ctx context.Context, organizationID int64, month Month) (Period, error) {
	return s.repo.Get(ctx, organizationID, month)
}

// List returns months with an explicit status.
func (s *Service) List(ctx context.Context, organizationID int64) ([]Period, error) {
	return s.repo.List(ctx, organizationID)
}

// SetStatus moves a month to target, enforcing ValidateTransition.
func (s *Service) SetStatus(ctx context.Context, organizationID int64, month Month, target PeriodStatus, actorID int64, override bool) (Period, error) {
	current, err := s.repo.Get(ctx, organizationID, month)
	if err != nil {
		return Period{}, err
	}
	if !ValidateTransition(current.Status, target, override) {
		return Period{}, fmt.Errorf("%s %s -> %s: %w", month, current.Status, target, shared.ErrInvalidPeriodTransition)
	}
	next := Period{OrganizationID: organizationID, Month: month, Status: target, ChangedBy: &actorID}
	if err := s.repo.Upsert(ctx, next); err != nil {
		return Period{}, err
	}
	return next, nil
}
