package ledgerhttp

import (
	"context"
	"net/http"
	"strings"

	"github.com/nekorytaylor666/stroika-sub000/internal/expenses"
	"github.com/nekorytaylor666/stroika-sub000/internal/payments"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/httpx"
)

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	project, err := httpx.QueryInt64Ptr(r, "project_id")
	if err != nil {
		h.fail(w, r, "parse filter", err)
		return
	}
	q := r.URL.Query()
	out, err := h.svc.Payments.ListPayments(r.Context(), payments.ListFilter{
		OrganizationID: actorOf(r).OrganizationID,
		ProjectID:      project,
		Status:         payments.Status(strings.ToLower(q.Get("status"))),
		Direction:      payments.Direction(strings.ToLower(q.Get("direction"))),
	})
	if err != nil {
		h.fail(w, r, "list payments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list(out))
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "decode payment", err)
		return
	}
	actor := actorOf(r)
	p, err := h.svc.Payments.CreatePayment(r.Context(), payments.CreateInput{
		OrganizationID: actor.OrganizationID,
		ProjectID:      req.ProjectID,
		Amount:         req.Amount,
		Direction:      payments.Direction(req.Direction),
		Type:           req.Type,
		Method:         req.Method,
		Counterparty:   req.Counterparty,
		Description:    req.Description,
		PaymentDate:    req.PaymentDate.value(),
		CreatedBy:      actor.UserID,
	})
	if err != nil {
		h.fail(w, r, "create payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "parse id", err)
		return
	}
	p, err := h.svc.Payments.GetPayment(r.Context(), actorOf(r).OrganizationID, id)
	if err != nil {
		h.fail(w, r, "get payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "parse id", err)
		return
	}
	actor := actorOf(r)
	p, err := h.svc.Payments.ConfirmPayment(r.Context(), payments.ConfirmInput{OrganizationID: actor.OrganizationID, PaymentID: id, ActorID: actor.UserID})
	if err != nil {
		h.fail(w, r, "confirm payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) cancelPayment(w http.ResponseWriter, r *http.Request) {
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
	p, err := h.svc.Payments.CancelPayment(r.Context(), payments.CancelInput{
		OrganizationID: actor.OrganizationID,
		PaymentID:      id,
		ActorID:        actor.UserID,
		Reason:         req.Reason,
	})
	if err != nil {
		h.fail(w, r, "cancel payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	project, err := httpx.QueryInt64Ptr(r, "project_id")
	if err != nil {
		h.fail(w, r, "parse filter", err)
		return
	}
	q := r.URL.Query()
	out, err := h.svc.Expenses.ListExpenses(r.Context(), expenses.ListFilter{
		OrganizationID: actorOf(r).OrganizationID,
		ProjectID:      project,
		Status:         expenses.Status(strings.ToLower(q.Get("status"))),
		Category:       q.Get("category"),
	})
	if err != nil {
		h.fail(w, r, "list expenses", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list(out))
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "decode expense", err)
		return
	}
	actor := actorOf(r)
	e, err := h.svc.Expenses.CreateExpense(r.Context(), expenses.CreateInput{
		OrganizationID: actor.OrganizationID,
		ProjectID:      req.ProjectID,
		Amount:         req.Amount,
		TaxAmount:      req.TaxAmount,
		Category:       req.Category,
		Description:    req.Description,
		Vendor:         req.Vendor,
		ExpenseDate:    req.ExpenseDate.value(),
		CreatedBy:      actor.UserID,
	})
	if err != nil {
		h.fail(w, r, "create expense", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "parse id", err)
		return
	}
	e, err := h.svc.Expenses.GetExpense(r.Context(), actorOf(r).OrganizationID, id)
	if err != nil {
		h.fail(w, r, "get expense", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "parse id", err)
		return
	}
	var req updateExpenseRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, "decode expense", err)
		return
	}
	actor := actorOf(r)
	e, err := h.svc.Expenses.UpdateExpense(r.Context(), expenses.UpdateInput{
		OrganizationID: actor.OrganizationID,
		ExpenseID:      id,
		ActorID:        actor.UserID,
		Amount:         req.Amount,
		TaxAmount:      req.TaxAmount,
		Category:       req.Category,
		Description:    req.Description,
		Vendor:         req.Vendor,
		ExpenseDate:    req.ExpenseDate.ptr(),
	})
	if err != nil {
		h.fail(w, r, "update expense", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) approveExpense(w http.ResponseWriter, r *http.Request) {
	h.expenseTransition(w, r, "approve expense", h.svc.Expenses.ApproveExpense)
}

func (h *Handler) rejectExpense(w http.ResponseWriter, r *http.Request) {
	h.expenseTransition(w, r, "reject expense", h.svc.Expenses.RejectExpense)
}

type expenseTransitionFunc func(ctx context.Context, organizationID, expenseID, actorID int64) (expenses.Expense, error)

func (h *Handler) expenseTransition(w http.ResponseWriter, r *http.Request, op string, fn expenseTransitionFunc) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "parse id", err)
		return
	}
	actor := actorOf(r)
	e, err := fn(r.Context(), actor.OrganizationID, id, actor.UserID)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) payExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, "parse id", err)
		return
	}
	var req payExpenseRequest
	if err := h.decodeOptional(r, &req); err != nil {
		h.fail(w, r, "decode pay", err)
		return
	}
	actor := actorOf(r)
	e, err := h.svc.Expenses.MarkExpensePaid(r.Context(), expenses.MarkPaidInput{
		OrganizationID: actor.OrganizationID,
		ExpenseID:      id,
		PaymentID:      req.PaymentID,
		ActorID:        actor.UserID,
	})
	if err != nil {
		h.fail(w, r, "pay expense", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}
