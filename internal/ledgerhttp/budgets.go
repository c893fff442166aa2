package ledgerhttp

import (
	"net/http"

	"github.com/nekorytaylor666/stroika-sub000/internal/budgets"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/httpx"
)

func budgetLines(in []budgetLineRequest) []budgets.LineInput {
	out := make([]budgets.LineInput, 0, len(in))
	for _, l := range in {
		out = append(out, budgets.LineInput{
			AccountCode:     l.AccountCode,
			Category:        l.Category,
			Description:     l.Description,
			PlannedAmount:   l.PlannedAmount,
			AllocatedAmount: l.AllocatedAmount,
		})
	}
	return out
}

func (h *Handler) createBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "decode budget", err)
		return
	}
	actor := actorOf(r)
	b, err := h.svc.Budgets.CreateBudget(r.Context(), budgets.CreateInput{
		OrganizationID: actor.OrganizationID,
		ProjectID:      req.ProjectID,
		Name:           req.Name,
		TotalBudget:    req.TotalBudget,
		EffectiveDate:  req.EffectiveDate.value(),
		CreatedBy:      actor.UserID,
		Lines:          budgetLines(req.Lines),
	})
	if err != nil {
		h.fail(w, r, "create budget", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

func (h *Handler) getBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "parse id", err)
		return
	}
	b, err := h.svc.Budgets.GetBudget(r.Context(), actorOf(r).OrganizationID, id)
	if err != nil {
		h.fail(w, r, "get budget", err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) approveBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "parse id", err)
		return
	}
	actor := actorOf(r)
	b, err := h.svc.Budgets.ApproveBudget(r.Context(), actor.OrganizationID, id, actor.UserID)
	if err != nil {
		h.fail(w, r, "approve budget", err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) createRevision(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "parse id", err)
		return
	}
	var req createRevisionRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "decode revision", err)
		return
	}
	actor := actorOf(r)
	b, rev, err := h.svc.Budgets.CreateRevision(r.Context(), budgets.RevisionInput{
		OrganizationID:   actor.OrganizationID,
		OriginalBudgetID: id,
		Name:             req.Name,
		Reason:           req.Reason,
		TotalBudget:      req.TotalBudget,
		EffectiveDate:    req.EffectiveDate.value(),
		CreatedBy:        actor.UserID,
		Lines:            budgetLines(req.Lines),
	})
	if err != nil {
		h.fail(w, r, "create revision", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"budget": b, "revision": rev})
}

func (h *Handler) listRevisions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "parse id", err)
		return
	}
	out, err := h.svc.Budgets.ListRevisions(r.Context(), actorOf(r).OrganizationID, id)
	if err != nil {
		h.fail(w, r, "list revisions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list(out))
}

func (h *Handler) listBudgets(w http.ResponseWriter, r *http.Request) {
	project, err := pathID(r, "projectID")
	if err != nil {
		h.fail(w, r, "parse project", err)
		return
	}
	out, err := h.svc.Budgets.ListBudgets(r.Context(), actorOf(r).OrganizationID, project)
	if err != nil {
		h.fail(w, r, "list budgets", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list(out))
}

func (h *Handler) budgetComparison(w http.ResponseWriter, r *http.Request) {
	project, err := pathID(r, "projectID")
	if err != nil {
		h.fail(w, r, "parse project", err)
		return
	}
	budgetID, err := httpx.QueryInt64Ptr(r, "budget_id")
	if err != nil {
		h.fail(w, r, "parse budget", err)
		return
	}
	out, err := h.svc.Budgets.GetBudgetComparison(r.Context(), actorOf(r).OrganizationID, project, budgetID)
	if err != nil {
		h.fail(w, r, "budget comparison", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
