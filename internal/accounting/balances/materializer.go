package balances

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/periods"
)

// Chart resolves accounts referenced by balance queries.
type Chart interface {
	LookupByID(ctx context.Context, organizationID, id int64) (accounts.Account, error)
	List(ctx context.Context, filter accounts.ListFilter) ([]accounts.Account, error)
}

// Metrics counts cache hits and misses.
type Metrics interface {
	ObserveBalanceCache(hit bool)
}

// Materializer derives account balances from posted lines and keeps the
// account_balances cache warm. The cache is never authoritative.
type Materializer struct {
	repo    Repository
	chart   Chart
	metrics Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewMaterializer wires the materializer.
func NewMaterializer(repo Repository, chart Chart) *Materializer {
	return &Materializer{repo: repo, chart: chart, logger: slog.Default(), now: time.Now}
}

// WithMetrics attaches cache counters.
func (m *Materializer) WithMetrics(metrics Metrics) { m.metrics = metrics }

// WithLogger replaces the default logger.
func (m *Materializer) WithLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// WithNow overrides the clock used for LastUpdated.
func (m *Materializer) WithNow(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

// GetAccountBalance returns the cached balance or recomputes and stores it.
func (m *Materializer) GetAccountBalance(ctx context.Context, q Query) (AccountBalance, error) {
	acc, err := m.chart.LookupByID(ctx, q.OrganizationID, q.AccountID)
	if err != nil {
		return AccountBalance{}, err
	}
	cached, ok, err := m.repo.GetCached(ctx, acc.ID, projectKey(q.ProjectID), q.Period)
	if err != nil {
		return AccountBalance{}, fmt.Errorf("read balance cache: %w", err)
	}
	if ok {
		m.observe(true)
		return cached, nil
	}
	m.observe(false)
	return m.recompute(ctx, acc, q)
}

// Recompute ignores the cache, derives the balance from posted lines and
// overwrites the cache row.
func (m *Materializer) Recompute(ctx context.Context, q Query) (AccountBalance, error) {
	acc, err := m.chart.LookupByID(ctx, q.OrganizationID, q.AccountID)
	if err != nil {
		return AccountBalance{}, err
	}
	return m.recompute(ctx, acc, q)
}

func (m *Materializer) recompute(ctx context.Context, acc accounts.Account, q Query) (AccountBalance, error) {
	var out AccountBalance
	err := m.repo.WithAccountLock(ctx, acc.ID, func(ctx context.Context) error {
		var err error
		out, err = m.compute(ctx, acc, q)
		if err != nil {
			return err
		}
		return m.repo.SaveCached(ctx, out)
	})
	if err != nil {
		return AccountBalance{}, fmt.Errorf("recompute balance %s %s: %w", acc.Code, q.Period, err)
	}
	return out, nil
}

func (m *Materializer) compute(ctx context.Context, acc accounts.Account, q Query) (AccountBalance, error) {
	start := q.Period.Start()
	opening, err := m.repo.SumPosted(ctx, SumFilter{AccountID: acc.ID, ProjectID: q.ProjectID, To: start})
	if err != nil {
		return AccountBalance{}, err
	}
	period, err := m.repo.SumPosted(ctx, SumFilter{AccountID: acc.ID, ProjectID: q.ProjectID, From: &start, To: q.Period.End()})
	if err != nil {
		return AccountBalance{}, err
	}
	openingBalance := acc.Type.Signed(opening.Debit, opening.Credit)
	return AccountBalance{
		AccountID:      acc.ID,
		ProjectID:      q.ProjectID,
		Period:         q.Period,
		OpeningBalance: openingBalance,
		TotalDebits:    period.Debit,
		TotalCredits:   period.Credit,
		ClosingBalance: openingBalance.Add(acc.Type.Signed(period.Debit, period.Credit)),
		LastUpdated:    m.now().UTC(),
	}, nil
}

// Warm recomputes organization-wide balances of every account for month and
// returns how many rows were written.
func (m *Materializer) Warm(ctx context.Context, organizationID int64, month periods.Month) (int, error) {
	list, err := m.chart.List(ctx, accounts.ListFilter{OrganizationID: organizationID, IncludeInactive: true})
	if err != nil {
		return 0, err
	}
	warmed := 0
	for _, acc := range list {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		if _, err := m.recompute(ctx, acc, Query{OrganizationID: organizationID, AccountID: acc.ID, Period: month}); err != nil {
			return warmed, err
		}
		warmed++
	}
	m.logger.Debug("balances warmed", slog.Int64("organization_id", organizationID), slog.String("period", month.String()), slog.Int("accounts", warmed))
	return warmed, nil
}

// Activity returns per-account opening and in-range movement, ordered by code.
func (m *Materializer) Activity(ctx context.Context, filter ActivityFilter) ([]AccountActivity, error) {
	return m.repo.Activity(ctx, filter)
}

// ClosingBalances returns the signed balance of every account through asOf
// inclusive, keyed by account code.
func (m *Materializer) ClosingBalances(ctx context.Context, organizationID int64, projectID *int64, asOf time.Time) (map[string]decimal.Decimal, error) {
	y, mo, d := asOf.Date()
	through := time.Date(y, mo, d+1, 0, 0, 0, 0, time.UTC)
	rows, err := m.repo.Activity(ctx, ActivityFilter{OrganizationID: organizationID, ProjectID: projectID, To: through})
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.Code] = row.Closing()
	}
	return out, nil
}

// CashMovements sums cash and bank lines by entry type.
func (m *Materializer) CashMovements(ctx context.Context, filter ActivityFilter) ([]CashMovement, error) {
	return m.repo.CashMovements(ctx, filter)
}

// PostedDebits returns posted debit totals of a project per account.
func (m *Materializer) PostedDebits(ctx context.Context, organizationID, projectID int64, accountIDs []int64) (map[int64]decimal.Decimal, error) {
	return m.repo.PostedDebits(ctx, organizationID, projectID, accountIDs)
}

func (m *Materializer) observe(hit bool) {
	if m.metrics != nil {
		m.metrics.ObserveBalanceCache(hit)
	}
}
