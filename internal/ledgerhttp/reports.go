package ledgerhttp

import (
	"net/http"
	"time"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/reports"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/httpx"
)

// reportFilter defaults to the current month to date.
func (h *Handler) reportFilter(r *http.Request) (reports.Filter, error) {
	now := h.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from, err := httpx.QueryDate(r, "from", monthStart)
	if err != nil {
		return reports.Filter{}, err
	}
	to, err := httpx.QueryDate(r, "to", now)
	if err != nil {
		return reports.Filter{}, err
	}
	project, err := httpx.QueryInt64Ptr(r, "project_id")
	if err != nil {
		return reports.Filter{}, err
	}
	return reports.Filter{OrganizationID: actorOf(r).OrganizationID, ProjectID: project, From: from, To: to}, nil
}

func (h *Handler) profitAndLoss(w http.ResponseWriter, r *http.Request) {
	f, err := h.reportFilter(r)
	if err != nil {
		h.fail(w, r, "parse report filter", err)
		return
	}
	out, err := h.svc.Reports.ProfitAndLoss(r.Context(), f)
	if err != nil {
		h.fail(w, r, "profit and loss", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) cashFlow(w http.ResponseWriter, r *http.Request) {
	f, err := h.reportFilter(r)
	if err != nil {
		h.fail(w, r, "parse report filter", err)
		return
	}
	out, err := h.svc.Reports.CashFlow(r.Context(), f)
	if err != nil {
		h.fail(w, r, "cash flow", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	f, err := h.reportFilter(r)
	if err != nil {
		h.fail(w, r, "parse report filter", err)
		return
	}
	out, err := h.svc.Reports.TrialBalance(r.Context(), f)
	if err != nil {
		h.fail(w, r, "trial balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := httpx.QueryDate(r, "as_of", h.now().UTC())
	if err != nil {
		h.fail(w, r, "parse as_of", err)
		return
	}
	project, err := httpx.QueryInt64Ptr(r, "project_id")
	if err != nil {
		h.fail(w, r, "parse project", err)
		return
	}
	out, err := h.svc.Reports.BalanceSheet(r.Context(), actorOf(r).OrganizationID, asOf, project)
	if err != nil {
		h.fail(w, r, "balance sheet", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) projectOverview(w http.ResponseWriter, r *http.Request) {
	project, err := pathID(r, "projectID")
	if err != nil {
		h.fail(w, r, "parse project", err)
		return
	}
	out, err := h.svc.Overview.GetProjectFinancialOverview(r.Context(), actorOf(r).OrganizationID, project)
	if err != nil {
		h.fail(w, r, "project overview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
