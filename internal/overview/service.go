package overview

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/reports"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
	"github.com/nekorytaylor666/stroika-sub000/internal/expenses"
	"github.com/nekorytaylor666/stroika-sub000/internal/payments"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// PaymentTotals sums payments by direction and status.
type PaymentTotals interface {
	Totals(ctx context.Context, organizationID int64, projectID *int64) (payments.Totals, error)
}

// ExpenseTotals sums the expenses table.
type ExpenseTotals interface {
	Totals(ctx context.Context, organizationID int64, projectID *int64) (expenses.Totals, error)
}

// JournalExpenses reads the expense section of the ledger.
type JournalExpenses interface {
	ProfitAndLoss(ctx context.Context, f reports.Filter) (reports.ProfitAndLoss, error)
}

// Expenses compares the two expense sources.
type Expenses struct {
	Total     decimal.Decimal `json:"total"`
	Paid      decimal.Decimal `json:"paid"`
	Journal   decimal.Decimal `json:"journal"`
	Effective decimal.Decimal `json:"effective"`
}

// Balance is the derived money position of a project.
type Balance struct {
	CurrentBalance   decimal.Decimal `json:"current_balance"`
	NetCashFlow      decimal.Decimal `json:"net_cash_flow"`
	ProjectedBalance decimal.Decimal `json:"projected_balance"`
	ProfitMargin     decimal.Decimal `json:"profit_margin"`
}

// ProjectFinancialOverview aggregates payments, expenses and ledger totals of a project.
type ProjectFinancialOverview struct {
	OrganizationID int64           `json:"organization_id"`
	ProjectID      int64           `json:"project_id"`
	Payments       payments.Totals `json:"payments"`
	Expenses       Expenses        `json:"expenses"`
	Balance        Balance         `json:"balance"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// Service builds project overviews.
type Service struct {
	payments PaymentTotals
	expenses ExpenseTotals
	journal  JournalExpenses
	now      func() time.Time
}

// NewService wires the overview service.
func NewService(p PaymentTotals, e ExpenseTotals, j JournalExpenses) *Service {
	return &Service{payments: p, expenses: e, journal: j, now: time.Now}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ledgerEpoch bounds the journal expense query; nothing is dated earlier.
var ledgerEpoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// GetProjectFinancialOverview reads the three sources concurrently and
// derives the balance block. Expenses are counted as the larger of paid
// expense records and posted expense lines so neither path under-reports.
func (s *Service) GetProjectFinancialOverview(ctx context.Context, organizationID, projectID int64) (ProjectFinancialOverview, error) {
	if organizationID == 0 || projectID == 0 {
		return ProjectFinancialOverview{}, fmt.Errorf("overview: organization and project required: %w", core.ErrValidation)
	}
	project := projectID
	now := s.now()
	var (
		paymentTotals payments.Totals
		expenseTotals expenses.Totals
		pl            reports.ProfitAndLoss
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		paymentTotals, err = s.payments.Totals(gctx, organizationID, &project)
		return err
	})
	g.Go(func() error {
		var err error
		expenseTotals, err = s.expenses.Totals(gctx, organizationID, &project)
		return err
	})
	g.Go(func() error {
		var err error
		pl, err = s.journal.ProfitAndLoss(gctx, reports.Filter{
			OrganizationID: organizationID,
			ProjectID:      &project,
			From:           ledgerEpoch,
			To:             now,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return ProjectFinancialOverview{}, err
	}

	effective := decimal.Max(expenseTotals.Paid, pl.TotalExpenses)
	income := paymentTotals.ConfirmedIncoming
	current := income.Sub(effective)
	return ProjectFinancialOverview{
		OrganizationID: organizationID,
		ProjectID:      projectID,
		Payments:       paymentTotals,
		Expenses: Expenses{
			Total:     expenseTotals.Total,
			Paid:      expenseTotals.Paid,
			Journal:   pl.TotalExpenses,
			Effective: effective,
		},
		Balance: Balance{
			CurrentBalance:   current,
			NetCashFlow:      income.Sub(paymentTotals.ConfirmedOutgoing),
			ProjectedBalance: current.Add(paymentTotals.PendingIncoming).Sub(paymentTotals.PendingOutgoing),
			ProfitMargin:     shared.Percent(current, income),
		},
		GeneratedAt: now.UTC(),
	}, nil
}
