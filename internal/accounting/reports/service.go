package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/balances"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// Source supplies aggregated posted lines.
type Source interface {
	Activity(ctx context.Context, filter balances.ActivityFilter) ([]balances.AccountActivity, error)
	CashMovements(ctx context.Context, filter balances.ActivityFilter) ([]balances.CashMovement, error)
}

// Filter selects a date range. From and To are inclusive calendar days.
type Filter struct {
	OrganizationID int64
	ProjectID      *int64
	From           time.Time
	To             time.Time
}

// Validate rejects inverted or missing ranges.
func (f Filter) Validate() error {
	if f.OrganizationID <= 0 {
		return fmt.Errorf("reports: organization required: %w", core.ErrValidation)
	}
	if f.From.IsZero() || f.To.IsZero() {
		return fmt.Errorf("reports: date range required: %w", core.ErrValidation)
	}
	if f.To.Before(f.From) {
		return fmt.Errorf("reports: range ends before it starts: %w", core.ErrValidation)
	}
	return nil
}

func (f Filter) activity() balances.ActivityFilter {
	from := day(f.From)
	return balances.ActivityFilter{
		OrganizationID: f.OrganizationID,
		ProjectID:      f.ProjectID,
		From:           &from,
		To:             day(f.To).AddDate(0, 0, 1),
	}
}

func (f Filter) rng() Range {
	return Range{From: f.From.Format(time.DateOnly), To: f.To.Format(time.DateOnly), ProjectID: f.ProjectID}
}

// Range echoes the request parameters on range reports.
type Range struct {
	From      string `json:"from"`
	To        string `json:"to"`
	ProjectID *int64 `json:"project_id,omitempty"`
}

// Service builds read-only financial reports. Results are cached per
// organization version and concurrent identical builds are collapsed.
type Service struct {
	source Source
	cache  *Cache
	group  singleflight.Group
	logger *slog.Logger
}

// NewService wires the report generator. cache may be nil.
func NewService(source Source, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, cache: cache, logger: logger}
}

// ProfitAndLoss reports revenue and expense activity within the range.
func (s *Service) ProfitAndLoss(ctx context.Context, f Filter) (ProfitAndLoss, error) {
	if err := f.Validate(); err != nil {
		return ProfitAndLoss{}, err
	}
	var out ProfitAndLoss
	err := s.fetch(ctx, f.OrganizationID, []string{"pl", projectToken(f.ProjectID), f.rng().From, f.rng().To}, &out, func(ctx context.Context) (any, error) {
		rows, err := s.source.Activity(ctx, f.activity())
		if err != nil {
			return nil, err
		}
		report := BuildProfitAndLoss(rows)
		report.Range = f.rng()
		return report, nil
	})
	return out, err
}

// BalanceSheet reports cumulative balances through asOf inclusive.
func (s *Service) BalanceSheet(ctx context.Context, organizationID int64, asOf time.Time, projectID *int64) (BalanceSheet, error) {
	if organizationID <= 0 || asOf.IsZero() {
		return BalanceSheet{}, fmt.Errorf("reports: organization and date required: %w", core.ErrValidation)
	}
	date := asOf.Format(time.DateOnly)
	var out BalanceSheet
	err := s.fetch(ctx, organizationID, []string{"bs", projectToken(projectID), date}, &out, func(ctx context.Context) (any, error) {
		rows, err := s.source.Activity(ctx, balances.ActivityFilter{
			OrganizationID: organizationID,
			ProjectID:      projectID,
			To:             day(asOf).AddDate(0, 0, 1),
		})
		if err != nil {
			return nil, err
		}
		report := BuildBalanceSheet(rows)
		report.AsOf = date
		report.ProjectID = projectID
		if !report.IsBalanced {
			s.logger.Warn("balance sheet out of balance",
				slog.Int64("organization_id", organizationID),
				slog.String("as_of", date),
				slog.String("difference", report.Difference.String()))
		}
		return report, nil
	})
	return out, err
}

// CashFlow buckets cash and bank movement within the range by entry type.
func (s *Service) CashFlow(ctx context.Context, f Filter) (CashFlowStatement, error) {
	if err := f.Validate(); err != nil {
		return CashFlowStatement{}, err
	}
	var out CashFlowStatement
	err := s.fetch(ctx, f.OrganizationID, []string{"cf", projectToken(f.ProjectID), f.rng().From, f.rng().To}, &out, func(ctx context.Context) (any, error) {
		movements, err := s.source.CashMovements(ctx, f.activity())
		if err != nil {
			return nil, err
		}
		report := BuildCashFlow(movements)
		report.Range = f.rng()
		return report, nil
	})
	return out, err
}

// TrialBalance lists opening, activity and closing per account.
func (s *Service) TrialBalance(ctx context.Context, f Filter) (TrialBalance, error) {
	if err := f.Validate(); err != nil {
		return TrialBalance{}, err
	}
	var out TrialBalance
	err := s.fetch(ctx, f.OrganizationID, []string{"tb", projectToken(f.ProjectID), f.rng().From, f.rng().To}, &out, func(ctx context.Context) (any, error) {
		rows, err := s.source.Activity(ctx, f.activity())
		if err != nil {
			return nil, err
		}
		report := BuildTrialBalance(rows)
		report.Range = f.rng()
		return report, nil
	})
	return out, err
}

// Bump invalidates cached reports of an organization.
func (s *Service) Bump(ctx context.Context, organizationID int64) error {
	return s.cache.Bump(ctx, organizationID)
}

func (s *Service) fetch(ctx context.Context, organizationID int64, parts []string, dest any, build func(context.Context) (any, error)) error {
	key, err := s.cache.BuildKey(ctx, organizationID, parts...)
	if err != nil {
		return err
	}
	// Every waiter decodes its own copy.
	raw, err, _ := s.group.Do(key, func() (any, error) {
		var payload jsonBlob
		if err := s.cache.FetchJSON(ctx, key, &payload, build); err != nil {
			return nil, err
		}
		return payload, nil
	})
	if err != nil {
		return err
	}
	return raw.(jsonBlob).decode(dest)
}

func projectToken(projectID *int64) string {
	if projectID == nil {
		return "all"
	}
	return strconv.FormatInt(*projectID, 10)
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
