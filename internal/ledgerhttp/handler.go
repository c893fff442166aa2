// Package ledgerhttp exposes the ledger services as a JSON API.
package ledgerhttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/balances"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/mappings"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/periods"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/reports"
	"github.com/nekorytaylor666/stroika-sub000/internal/budgets"
	"github.com/nekorytaylor666/stroika-sub000/internal/expenses"
	"github.com/nekorytaylor666/stroika-sub000/internal/overview"
	"github.com/nekorytaylor666/stroika-sub000/internal/payments"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/httpx"
)

// Services groups the ledger services served over HTTP.
type Services struct {
	Accounts *accounts.Service
	Mappings *mappings.Service
	Periods  *periods.Service
	Journals *journals.Service
	Balances *balances.Materializer
	Reports  *reports.Service
	Payments *payments.Service
	Expenses *expenses.Service
	Budgets  *budgets.Service
	Overview *overview.Service
}

// IdempotencyStore remembers processed Idempotency-Key headers.
type IdempotencyStore interface {
	CheckAndInsert(ctx context.Context, organizationID int64, key, module string) error
	Delete(ctx context.Context, organizationID int64, key, module string) error
}

// Handler serves the ledger API.
type Handler struct {
	logger   *slog.Logger
	svc      Services
	idem     IdempotencyStore
	validate *validator.Validate
	now      func() time.Time
}

// NewHandler builds the API handler. idem may be nil to disable replay protection.
func NewHandler(logger *slog.Logger, svc Services, idem IdempotencyStore) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, svc: svc, idem: idem, validate: validator.New(), now: time.Now}
}

// WithNow overrides the clock used for default report ranges.
func (h *Handler) WithNow(now func() time.Time) {
	if now != nil {
		h.now = now
	}
}

// MountRoutes registers every ledger route. All of them require an actor.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(RequireActor)

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.listAccounts)
		r.With(h.idempotent("accounts")).Post("/", h.createAccount)
		r.Post("/seed", h.seedChart)
		r.Post("/{code}/deactivate", h.deactivateAccount)
	})
	r.Route("/mappings", func(r chi.Router) {
		r.Get("/", h.listMappings)
		r.Put("/", h.setMapping)
	})
	r.Route("/periods", func(r chi.Router) {
		r.Get("/", h.listPeriods)
		r.Post("/{period}/close", h.changePeriod(periods.PeriodStatusClosed, false))
		r.Post("/{period}/lock", h.changePeriod(periods.PeriodStatusLocked, false))
		r.Post("/{period}/unlock", h.changePeriod(periods.PeriodStatusOpen, true))
	})
	r.Route("/journals", func(r chi.Router) {
		r.Get("/", h.listEntries)
		r.With(h.idempotent("journals")).Post("/", h.createEntry)
		r.Get("/integrity", h.checkIntegrity)
		r.Get("/{id}", h.getEntry)
		r.Post("/{id}/post", h.postEntry)
		r.Post("/{id}/cancel", h.cancelEntry)
		r.Post("/{id}/reverse", h.reverseEntry)
	})
	r.Get("/balances/{accountID}", h.getBalance)
	r.Route("/payments", func(r chi.Router) {
		r.Get("/", h.listPayments)
		r.With(h.idempotent("payments")).Post("/", h.createPayment)
		r.Get("/{id}", h.getPayment)
		r.Post("/{id}/confirm", h.confirmPayment)
		r.Post("/{id}/cancel", h.cancelPayment)
	})
	r.Route("/expenses", func(r chi.Router) {
		r.Get("/", h.listExpenses)
		r.With(h.idempotent("expenses")).Post("/", h.createExpense)
		r.Get("/{id}", h.getExpense)
		r.Put("/{id}", h.updateExpense)
		r.Post("/{id}/approve", h.approveExpense)
		r.Post("/{id}/reject", h.rejectExpense)
		r.With(h.idempotent("expenses.pay")).Post("/{id}/pay", h.payExpense)
	})
	r.Route("/budgets", func(r chi.Router) {
		r.With(h.idempotent("budgets")).Post("/", h.createBudget)
		r.Get("/{id}", h.getBudget)
		r.Post("/{id}/approve", h.approveBudget)
		r.Get("/{id}/revisions", h.listRevisions)
		r.With(h.idempotent("budgets.revise")).Post("/{id}/revisions", h.createRevision)
	})
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/budgets", h.listBudgets)
		r.Get("/budget-comparison", h.budgetComparison)
		r.Get("/overview", h.projectOverview)
	})
	r.Route("/reports", func(r chi.Router) {
		r.Get("/profit-and-loss", h.profitAndLoss)
		r.Get("/balance-sheet", h.balanceSheet)
		r.Get("/cash-flow", h.cashFlow)
		r.Get("/trial-balance", h.trialBalance)
	})
}

// decode reads and validates a JSON body.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

// decodeOptional accepts an empty body.
func (h *Handler) decodeOptional(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return h.validate.Struct(dst)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(httpx.ErrMalformedBody, err)
	}
	return h.validate.Struct(dst)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := httpx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op, slog.String("path", r.URL.Path), slog.Any("error", err))
	} else {
		h.logger.Debug(op, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
