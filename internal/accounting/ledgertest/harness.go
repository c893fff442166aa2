package ledgertest

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/balances"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/mappings"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/periods"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/reports"
	"github.com/nekorytaylor666/stroika-sub000/internal/budgets"
	"github.com/nekorytaylor666/stroika-sub000/internal/expenses"
	"github.com/nekorytaylor666/stroika-sub000/internal/integration"
	"github.com/nekorytaylor666/stroika-sub000/internal/overview"
	"github.com/nekorytaylor666/stroika-sub000/internal/payments"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// Now is the fixed clock every harness service runs on.
var Now = time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)

// AuditRecorder keeps audit records in memory.
type AuditRecorder struct {
	mu      sync.Mutex
	Records []core.AuditLog
}

// Record implements the audit ports of every service.
func (a *AuditRecorder) Record(_ context.Context, log core.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Records = append(a.Records, log)
	return nil
}

// Actions lists recorded actions in order.
func (a *AuditRecorder) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.Records))
	for i, r := range a.Records {
		out[i] = r.Action
	}
	return out
}

// Harness wires every ledger service on top of one Store.
type Harness struct {
	Store    *Store
	Audit    *AuditRecorder
	Accounts *accounts.Service
	Mappings *mappings.Service
	Periods  *periods.Service
	Journals *journals.Service
	Balances *balances.Materializer
	Reports  *reports.Service
	Hooks    *integration.Hooks
	Payments *payments.Service
	Expenses *expenses.Service
	Budgets  *budgets.Service
	Overview *overview.Service
}

// Option tweaks harness construction.
type Option func(*options)

type options struct {
	redis *redis.Client
}

// WithRedis enables the report cache on client.
func WithRedis(client *redis.Client) Option {
	return func(o *options) { o.redis = client }
}

// New builds a harness with an empty store.
func New(t testing.TB, opts ...Option) *Harness {
	t.Helper()
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return Now }

	store := NewStore()
	store.SetNow(clock)
	audit := &AuditRecorder{}

	mappingSvc := mappings.NewService(store.Mappings())
	accountSvc := accounts.NewService(store.Accounts(), mappingSvc)
	periodSvc := periods.NewService(store.Periods())

	materializer := balances.NewMaterializer(store.Balances(), accountSvc)
	materializer.WithLogger(logger)
	materializer.WithNow(clock)

	reportSvc := reports.NewService(materializer, reports.NewCache(o.redis, time.Minute), logger)

	journalSvc := journals.NewService(store.Journals(), accountSvc, periodSvc, audit)
	journalSvc.WithNow(clock)
	journalSvc.WithLogger(logger)
	journalSvc.WithCache(reportSvc)

	hooks := integration.NewHooks(journalSvc, mappingSvc, accountSvc)

	paymentSvc := payments.NewService(store.Payments(), hooks, audit, logger)
	paymentSvc.WithNow(clock)

	expenseSvc := expenses.NewService(store.Expenses(), hooks, paymentSvc, audit, logger)
	expenseSvc.WithNow(clock)

	budgetSvc := budgets.NewService(store.Budgets(), accountSvc, materializer, audit, logger)
	budgetSvc.WithNow(clock)

	overviewSvc := overview.NewService(paymentSvc, expenseSvc, reportSvc)
	overviewSvc.WithNow(clock)

	return &Harness{
		Store:    store,
		Audit:    audit,
		Accounts: accountSvc,
		Mappings: mappingSvc,
		Periods:  periodSvc,
		Journals: journalSvc,
		Balances: materializer,
		Reports:  reportSvc,
		Hooks:    hooks,
		Payments: paymentSvc,
		Expenses: expenseSvc,
		Budgets:  budgetSvc,
		Overview: overviewSvc,
	}
}

// Seeded builds a harness and installs the standard chart for every org.
func Seeded(t testing.TB, orgs ...int64) *Harness {
	t.Helper()
	h := New(t)
	for _, org := range orgs {
		if _, err := h.Accounts.SeedStandardChart(context.Background(), org); err != nil {
			t.Fatalf("seed chart for org %d: %v", org, err)
		}
	}
	return h
}
