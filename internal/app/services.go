package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
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
	"github.com/nekorytaylor666/stroika-sub000/internal/ledgerhttp"
	"github.com/nekorytaylor666/stroika-sub000/internal/observability"
	"github.com/nekorytaylor666/stroika-sub000/internal/overview"
	"github.com/nekorytaylor666/stroika-sub000/internal/payments"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
	"github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// ServiceDeps are the shared resources the ledger services run on.
type ServiceDeps struct {
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Config  *Config
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// NewServices wires every ledger service against Postgres. A nil Redis client
// disables the report cache.
func NewServices(deps ServiceDeps) ledgerhttp.Services {
	tx := db.NewTxManager(deps.Pool)
	audit := shared.NewAuditLogger(deps.Pool)

	mappingSvc := mappings.NewService(mappings.NewRepository(tx))
	accountSvc := accounts.NewService(accounts.NewRepository(tx), mappingSvc)
	periodSvc := periods.NewService(periods.NewRepository(tx))

	materializer := balances.NewMaterializer(balances.NewRepository(tx), accountSvc)
	materializer.WithLogger(deps.Logger)
	if deps.Metrics != nil {
		materializer.WithMetrics(deps.Metrics)
	}

	reportSvc := reports.NewService(materializer, reports.NewCache(deps.Redis, deps.Config.ReportCacheTTL), deps.Logger)

	journalSvc := journals.NewService(journals.NewRepository(tx), accountSvc, periodSvc, audit)
	journalSvc.WithLogger(deps.Logger)
	journalSvc.WithCache(reportSvc)
	journalSvc.WithEntryPrefix(deps.Config.LedgerEntryPrefix)
	if deps.Metrics != nil {
		journalSvc.WithMetrics(deps.Metrics)
	}

	hooks := integration.NewHooks(journalSvc, mappingSvc, accountSvc)
	paymentSvc := payments.NewService(payments.NewRepository(tx), hooks, audit, deps.Logger)
	expenseSvc := expenses.NewService(expenses.NewRepository(tx), hooks, paymentSvc, audit, deps.Logger)
	budgetSvc := budgets.NewService(budgets.NewRepository(tx), accountSvc, materializer, audit, deps.Logger)

	return ledgerhttp.Services{
		Accounts: accountSvc,
		Mappings: mappingSvc,
		Periods:  periodSvc,
		Journals: journalSvc,
		Balances: materializer,
		Reports:  reportSvc,
		Payments: paymentSvc,
		Expenses: expenseSvc,
		Budgets:  budgetSvc,
		Overview: overview.NewService(paymentSvc, expenseSvc, reportSvc),
	}
}
