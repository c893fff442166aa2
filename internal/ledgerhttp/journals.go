package ledgerhttp

import (
	"net/http"
	"strconv"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/balances"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/periods"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/httpx"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	project, err := httpx.QueryInt64Ptr(r, "project_id")
	if err != nil {
		h.fail(w, r, "parse filter", err)
		return
	}
	filter := journals.ListFilter{
		OrganizationID: actorOf(r).OrganizationID,
		ProjectID:      project,
		Status:         journals.EntryStatus(q.Get("status")),
		Type:           journals.EntryType(q.Get("type")),
		Limit:          defaultListLimit,
	}
	if filter.From, err = queryDatePtr(r, "from"); err != nil {
		h.fail(w, r, "parse filter", err)
		return
	}
	if filter.To, err = queryDatePtr(r, "to"); err != nil {
		h.fail(w, r, "parse filter", err)
		return
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Limit = min(n, maxListLimit)
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Offset = n
		}
	}
	out, err := h.svc.Journals.ListEntries(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "list entries", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list(out))
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "decode entry", err)
		return
	}
	actor := actorOf(r)
	lines := make([]journals.LineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, journals.LineInput{
			AccountCode:   l.AccountCode,
			Debit:         l.Debit,
			Credit:        l.Credit,
			Description:   l.Description,
			AnalyticsCode: l.AnalyticsCode,
			TaxAmount:     l.TaxAmount,
		})
	}
	in := journals.CreateEntryInput{
		OrganizationID: actor.OrganizationID,
		ProjectID:      req.ProjectID,
		Date:           req.Date.Time,
		Description:    req.Description,
		Type:           journals.EntryType(req.Type),
		CreatedBy:      actor.UserID,
		Lines:          lines,
	}
	var (
		entry journals.JournalEntry
		err   error
	)
	if req.Post {
		entry, err = h.svc.Journals.CreateAndPost(r.Context(), in)
	} else {
		entry, err = h.svc.Journals.CreateEntry(r.Context(), in)
	}
	if err != nil {
		h.fail(w, r, "create entry", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "parse id", err)
		return
	}
	entry, err := h.svc.Journals.GetEntry(r.Context(), actorOf(r).OrganizationID, id)
	if err != nil {
		h.fail(w, r, "get entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) postEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "parse id", err)
		return
	}
	actor := actorOf(r)
	entry, err := h.svc.Journals.PostEntry(r.Context(), journals.PostInput{OrganizationID: actor.OrganizationID, EntryID: id, ActorID: actor.UserID})
	if err != nil {
		h.fail(w, r, "post entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) cancelEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "parse id", err)
		return
	}
	var req cancelRequest
	if err := h.decodeOptional(r, &req); err != nil {
		h.fail(w, r, "decode cancel", err)
		return
	}
	actor := actorOf(r)
	entry, err := h.svc.Journals.CancelEntry(r.Context(), journals.CancelInput{
		OrganizationID: actor.OrganizationID,
		EntryID:        id,
		ActorID:        actor.UserID,
		Reason:         req.Reason,
	})
	if err != nil {
		h.fail(w, r, "cancel entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) reverseEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "parse id", err)
		return
	}
	var req reverseRequest
	if err := h.decodeOptional(r, &req); err != nil {
		h.fail(w, r, "decode reverse", err)
		return
	}
	actor := actorOf(r)
	entry, err := h.svc.Journals.ReverseEntry(r.Context(), journals.ReverseInput{
		OrganizationID: actor.OrganizationID,
		EntryID:        id,
		ActorID:        actor.UserID,
		Description:    req.Description,
		Date:           req.Date.ptr(),
	})
	if err != nil {
		h.fail(w, r, "reverse entry", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) checkIntegrity(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Journals.CheckIntegrity(r.Context(), actorOf(r).OrganizationID)
	if err != nil {
		h.fail(w, r, "check integrity", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list(out))
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "accountID")
	if err != nil {
		h.fail(w, r, "parse account", err)
		return
	}
	project, err := httpx.QueryInt64Ptr(r, "project_id")
	if err != nil {
		h.fail(w, r, "parse project", err)
		return
	}
	month := periods.MonthOf(h.now())
	if raw := r.URL.Query().Get("period"); raw != "" {
		if month, err = periods.ParseMonth(raw); err != nil {
			h.fail(w, r, "parse period", err)
			return
		}
	}
	q := balances.Query{OrganizationID: actorOf(r).OrganizationID, AccountID: accountID, ProjectID: project, Period: month}
	var bal balances.AccountBalance
	if r.URL.Query().Get("recompute") == "true" {
		bal, err = h.svc.Balances.Recompute(r.Context(), q)
	} else {
		bal, err = h.svc.Balances.GetAccountBalance(r.Context(), q)
	}
	if err != nil {
		h.fail(w, r, "get balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bal)
}
