package ledgerhttp

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/periods"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/httpx"
)

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.svc.Accounts.List(r.Context(), accounts.ListFilter{
		OrganizationID:  actorOf(r).OrganizationID,
		Type:            accounts.AccountType(strings.ToLower(q.Get("type"))),
		IncludeInactive: q.Get("include_inactive") == "true",
	})
	if err != nil {
		h.fail(w, r, "list accounts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list(out))
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "decode account", err)
		return
	}
	acc, err := h.svc.Accounts.Create(r.Context(), accounts.CreateInput{
		OrganizationID: actorOf(r).OrganizationID,
		Code:           strings.TrimSpace(req.Code),
		Name:           strings.TrimSpace(req.Name),
		Type:           accounts.AccountType(req.Type),
		Category:       req.Category,
		ParentCode:     strings.TrimSpace(req.ParentCode),
		Description:    req.Description,
	})
	if err != nil {
		h.fail(w, r, "create account", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, acc)
}

func (h *Handler) seedChart(w http.ResponseWriter, r *http.Request) {
	inserted, err := h.svc.Accounts.SeedStandardChart(r.Context(), actorOf(r).OrganizationID)
	if err != nil {
		h.fail(w, r, "seed chart", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"inserted": inserted})
}

func (h *Handler) deactivateAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := h.svc.Accounts.Deactivate(r.Context(), actorOf(r).OrganizationID, chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, r, "deactivate account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, acc)
}

func (h *Handler) listMappings(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Mappings.List(r.Context(), actorOf(r).OrganizationID)
	if err != nil {
		h.fail(w, r, "list mappings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list(out))
}

func (h *Handler) setMapping(w http.ResponseWriter, r *http.Request) {
	var req setMappingRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "decode mapping", err)
		return
	}
	org := actorOf(r).OrganizationID
	if _, err := h.svc.Accounts.Lookup(r.Context(), org, strings.TrimSpace(req.AccountCode)); err != nil {
		h.fail(w, r, "mapping account", err)
		return
	}
	if err := h.svc.Mappings.Set(r.Context(), org, req.Module, req.Key, strings.TrimSpace(req.AccountCode)); err != nil {
		h.fail(w, r, "set mapping", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPeriods(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Periods.List(r.Context(), actorOf(r).OrganizationID)
	if err != nil {
		h.fail(w, r, "list periods", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list(out))
}

func (h *Handler) changePeriod(target periods.PeriodStatus, override bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month, err := periods.ParseMonth(chi.URLParam(r, "period"))
		if err != nil {
			h.fail(w, r, "parse period", err)
			return
		}
		actor := actorOf(r)
		p, err := h.svc.Periods.SetStatus(r.Context(), actor.OrganizationID, month, target, actor.UserID, override)
		if err != nil {
			h.fail(w, r, "change period", err)
			return
		}
		httpx.JSON(w, http.StatusOK, p)
	}
}
