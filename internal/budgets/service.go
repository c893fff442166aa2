package budgets

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// Chart resolves budget line accounts.
type Chart interface {
	Lookup(ctx context.Context, organizationID int64, code string) (accounts.Account, error)
}

// ActualsReader sums posted debits of a project per account.
type ActualsReader interface {
	PostedDebits(ctx context.Context, organizationID, projectID int64, accountIDs []int64) (map[int64]decimal.Decimal, error)
}

// AuditPort records budget lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log core.AuditLog) error
}

// Service tracks project budgets against posted journal lines.
type Service struct {
	repo    Repository
	chart   Chart
	actuals ActualsReader
	audit   AuditPort
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wires the budget tracker. audit may be nil.
func NewService(repo Repository, chart Chart, actuals ActualsReader, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, chart: chart, actuals: actuals, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateBudget stores a draft budget.
func (s *Service) CreateBudget(ctx context.Context, in CreateInput) (Budget, error) {
	if err := in.Validate(); err != nil {
		return Budget{}, err
	}
	lines, err := s.resolveLines(ctx, in.OrganizationID, in.Lines)
	if err != nil {
		return Budget{}, err
	}
	effective := in.EffectiveDate
	if effective.IsZero() {
		effective = s.now()
	}
	var out Budget
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		out, err = tx.Insert(ctx, Budget{
			OrganizationID: in.OrganizationID,
			ProjectID:      in.ProjectID,
			Name:           strings.TrimSpace(in.Name),
			TotalBudget:    totalOf(in.Lines, in.TotalBudget),
			Status:         StatusDraft,
			EffectiveDate:  effective,
			CreatedBy:      in.CreatedBy,
			Lines:          lines,
		})
		if err != nil {
			return err
		}
		s.record(ctx, "budget.create", out, in.CreatedBy, nil)
		return nil
	})
	if err != nil {
		return Budget{}, err
	}
	return out, nil
}

// ApproveBudget moves a draft budget to approved.
func (s *Service) ApproveBudget(ctx context.Context, organizationID, budgetID, actorID int64) (Budget, error) {
	var out Budget
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetForUpdate(ctx, organizationID, budgetID)
		if err != nil {
			return err
		}
		if b.Status != StatusDraft {
			return ErrBudgetNotDraft
		}
		if err := tx.Approve(ctx, b.ID, actorID); err != nil {
			return err
		}
		b.Status = StatusApproved
		b.ApprovedBy = &actorID
		out = b
		s.record(ctx, "budget.approve", b, actorID, nil)
		return nil
	})
	if err != nil {
		return Budget{}, err
	}
	return out, nil
}

// CreateRevision inserts a revised budget replacing original and links the
// two. The original row is left untouched.
func (s *Service) CreateRevision(ctx context.Context, in RevisionInput) (Budget, Revision, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if in.Reason == "" {
		return Budget{}, Revision{}, ErrRevisionReasonRequired
	}
	if err := validateLines(in.Lines, in.TotalBudget); err != nil {
		return Budget{}, Revision{}, err
	}
	lines, err := s.resolveLines(ctx, in.OrganizationID, in.Lines)
	if err != nil {
		return Budget{}, Revision{}, err
	}
	var (
		revised Budget
		rev     Revision
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetForUpdate(ctx, in.OrganizationID, in.OriginalBudgetID)
		if err != nil {
			return err
		}
		if original.Status != StatusApproved && original.Status != StatusRevised {
			return ErrBudgetNotApproved
		}
		name := strings.TrimSpace(in.Name)
		if name == "" {
			name = original.Name
		}
		effective := in.EffectiveDate
		if effective.IsZero() {
			effective = s.now()
		}
		revised, err = tx.Insert(ctx, Budget{
			OrganizationID: original.OrganizationID,
			ProjectID:      original.ProjectID,
			Name:           name,
			TotalBudget:    totalOf(in.Lines, in.TotalBudget),
			Status:         StatusRevised,
			EffectiveDate:  effective,
			CreatedBy:      in.CreatedBy,
			ApprovedBy:     &in.CreatedBy,
			Lines:          lines,
		})
		if err != nil {
			return err
		}
		rev, err = tx.InsertRevision(ctx, Revision{
			OriginalBudgetID: original.ID,
			NewBudgetID:      revised.ID,
			ChangeAmount:     revised.TotalBudget.Sub(original.TotalBudget),
			Reason:           in.Reason,
			CreatedBy:        in.CreatedBy,
		})
		if err != nil {
			return err
		}
		s.record(ctx, "budget.revise", revised, in.CreatedBy, map[string]any{
			"original_budget_id": original.ID,
			"change_amount":      rev.ChangeAmount.StringFixed(2),
			"reason":             in.Reason,
		})
		return nil
	})
	if err != nil {
		return Budget{}, Revision{}, err
	}
	return revised, rev, nil
}

// GetBudget returns a budget with its lines.
func (s *Service) GetBudget(ctx context.Context, organizationID, id int64) (Budget, error) {
	return s.repo.Get(ctx, organizationID, id)
}

// ListBudgets returns every budget of a project, newest effective first.
func (s *Service) ListBudgets(ctx context.Context, organizationID, projectID int64) ([]Budget, error) {
	return s.repo.ListByProject(ctx, organizationID, projectID)
}

// ActiveBudget returns the budget currently in force for a project.
func (s *Service) ActiveBudget(ctx context.Context, organizationID, projectID int64) (Budget, error) {
	return s.repo.Active(ctx, organizationID, projectID)
}

// GetBudgetComparison compares a budget, the active one when budgetID is nil,
// with posted spend. It never writes.
func (s *Service) GetBudgetComparison(ctx context.Context, organizationID, projectID int64, budgetID *int64) (Comparison, error) {
	var (
		b   Budget
		err error
	)
	if budgetID != nil {
		b, err = s.repo.Get(ctx, organizationID, *budgetID)
		if err == nil && b.ProjectID != projectID {
			err = ErrBudgetNotFound
		}
	} else {
		b, err = s.repo.Active(ctx, organizationID, projectID)
	}
	if err != nil {
		return Comparison{}, err
	}
	actuals, err := s.actuals.PostedDebits(ctx, organizationID, projectID, accountIDs(b.Lines))
	if err != nil {
		return Comparison{}, fmt.Errorf("budgets: read actuals: %w", err)
	}
	return Compare(b, actuals), nil
}

// ListRevisions returns every revision connected to budgetID's chain,
// oldest first.
func (s *Service) ListRevisions(ctx context.Context, organizationID, budgetID int64) ([]Revision, error) {
	b, err := s.repo.Get(ctx, organizationID, budgetID)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.RevisionsForProject(ctx, organizationID, b.ProjectID)
	if err != nil {
		return nil, err
	}
	return chainOf(budgetID, all), nil
}

// chainOf walks revision links in both directions from budgetID.
func chainOf(budgetID int64, all []Revision) []Revision {
	adjacent := make(map[int64][]int, len(all))
	for i, rev := range all {
		adjacent[rev.OriginalBudgetID] = append(adjacent[rev.OriginalBudgetID], i)
		adjacent[rev.NewBudgetID] = append(adjacent[rev.NewBudgetID], i)
	}
	visited := map[int64]bool{budgetID: true}
	taken := make(map[int]bool)
	queue := []int64{budgetID}
	var out []Revision
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, idx := range adjacent[id] {
			if taken[idx] {
				continue
			}
			taken[idx] = true
			rev := all[idx]
			out = append(out, rev)
			for _, next := range []int64{rev.OriginalBudgetID, rev.NewBudgetID} {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Service) resolveLines(ctx context.Context, organizationID int64, inputs []LineInput) ([]Line, error) {
	lines := make([]Line, 0, len(inputs))
	for _, in := range inputs {
		acc, err := s.chart.Lookup(ctx, organizationID, strings.TrimSpace(in.AccountCode))
		if err != nil {
			return nil, err
		}
		category := strings.TrimSpace(in.Category)
		if category == "" {
			category = acc.Category
		}
		lines = append(lines, Line{
			AccountID:       acc.ID,
			AccountCode:     acc.Code,
			Category:        category,
			Description:     in.Description,
			PlannedAmount:   in.PlannedAmount,
			AllocatedAmount: in.AllocatedAmount,
		})
	}
	return lines, nil
}

func (s *Service) record(ctx context.Context, action string, b Budget, actorID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	db.AfterCommit(ctx, func(ctx context.Context) {
		if meta == nil {
			meta = map[string]any{}
		}
		meta["project_id"] = b.ProjectID
		meta["total_budget"] = b.TotalBudget.StringFixed(2)
		if err := s.audit.Record(ctx, core.AuditLog{
			OrganizationID: b.OrganizationID,
			ActorID:        actorID,
			Action:         action,
			Entity:         "project_budget",
			EntityID:       fmt.Sprintf("%d", b.ID),
			Meta:           meta,
			At:             s.now(),
		}); err != nil {
			s.logger.Warn("record budget audit", slog.String("action", action), slog.Any("error", err))
		}
	})
}
