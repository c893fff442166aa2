package ledgertest

import (
	"context"
	"sort"
	"time"

	"github.com/nekorytaylor666/stroika-sub000/internal/budgets"
	"github.com/nekorytaylor666/stroika-sub000/internal/expenses"
	"github.com/nekorytaylor666/stroika-sub000/internal/payments"
)

// Payments returns the payment repository.
func (s *Store) Payments() payments.Repository { return paymentRepo{s} }

type paymentRepo struct{ s *Store }

func (t *tables) payment(org, id int64) (payments.Payment, error) {
	p, ok := t.payments[id]
	if !ok || p.OrganizationID != org {
		return payments.Payment{}, payments.ErrPaymentNotFound
	}
	return p, nil
}

func (r paymentRepo) Get(ctx context.Context, organizationID, id int64) (payments.Payment, error) {
	var p payments.Payment
	err := r.s.read(ctx, func(t *tables) error {
		var err error
		p, err = t.payment(organizationID, id)
		return err
	})
	return p, err
}

func (r paymentRepo) List(ctx context.Context, filter payments.ListFilter) ([]payments.Payment, error) {
	var out []payments.Payment
	err := r.s.read(ctx, func(t *tables) error {
		for _, p := range t.payments {
			if p.OrganizationID != filter.OrganizationID || !projectMatches(filter.ProjectID, p.ProjectID) {
				continue
			}
			if filter.Status != "" && p.Status != filter.Status {
				continue
			}
			if filter.Direction != "" && p.Direction != filter.Direction {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaymentDate.Equal(out[j].PaymentDate) {
			return out[i].PaymentDate.After(out[j].PaymentDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

func (r paymentRepo) Totals(ctx context.Context, organizationID int64, projectID *int64) (payments.Totals, error) {
	var out payments.Totals
	err := r.s.read(ctx, func(t *tables) error {
		for _, p := range t.payments {
			if p.OrganizationID != organizationID || !projectMatches(projectID, p.ProjectID) {
				continue
			}
			switch {
			case p.Status == payments.StatusConfirmed && p.Direction == payments.DirectionIncoming:
				out.ConfirmedIncoming = out.ConfirmedIncoming.Add(p.Amount)
			case p.Status == payments.StatusConfirmed && p.Direction == payments.DirectionOutgoing:
				out.ConfirmedOutgoing = out.ConfirmedOutgoing.Add(p.Amount)
			case p.Status == payments.StatusPending && p.Direction == payments.DirectionIncoming:
				out.PendingIncoming = out.PendingIncoming.Add(p.Amount)
			case p.Status == payments.StatusPending && p.Direction == payments.DirectionOutgoing:
				out.PendingOutgoing = out.PendingOutgoing.Add(p.Amount)
			}
		}
		return nil
	})
	return out, err
}

func (r paymentRepo) WithTx(ctx context.Context, fn func(context.Context, payments.TxRepository) error) error {
	return r.s.WithinTx(ctx, func(ctx context.Context) error {
		return fn(ctx, paymentTx{r.s})
	})
}

type paymentTx struct{ s *Store }

func (r paymentTx) NextNumber(_ context.Context, organizationID int64, at time.Time) (int64, error) {
	return r.s.data.nextSequence(organizationID, payments.SequenceScope, at), nil
}

func (r paymentTx) Insert(_ context.Context, p payments.Payment) (payments.Payment, error) {
	p.ID = r.s.data.nextID("payments")
	p.PaymentDate = day(p.PaymentDate)
	p.CreatedAt = r.s.now()
	r.s.data.payments[p.ID] = p
	return p, nil
}

func (r paymentTx) GetForUpdate(_ context.Context, organizationID, id int64) (payments.Payment, error) {
	return r.s.data.payment(organizationID, id)
}

func (r paymentTx) MarkConfirmed(_ context.Context, id, entryID, actorID int64, at time.Time) error {
	p, ok := r.s.data.payments[id]
	if !ok || p.Status != payments.StatusPending {
		return payments.ErrAlreadyConfirmed
	}
	p.Status = payments.StatusConfirmed
	p.RelatedJournalEntryID = &entryID
	p.ConfirmedBy = &actorID
	p.ConfirmedAt = &at
	r.s.data.payments[id] = p
	return nil
}

func (r paymentTx) MarkCancelled(_ context.Context, id int64) error {
	p, ok := r.s.data.payments[id]
	if !ok || p.Status == payments.StatusCancelled {
		return payments.ErrPaymentCancelled
	}
	p.Status = payments.StatusCancelled
	r.s.data.payments[id] = p
	return nil
}

// Expenses returns the expense repository.
func (s *Store) Expenses() expenses.Repository { return expenseRepo{s} }

type expenseRepo struct{ s *Store }

func (t *tables) expense(org, id int64) (expenses.Expense, error) {
	e, ok := t.expenses[id]
	if !ok || e.OrganizationID != org {
		return expenses.Expense{}, expenses.ErrExpenseNotFound
	}
	return e, nil
}

func (r expenseRepo) Get(ctx context.Context, organizationID, id int64) (expenses.Expense, error) {
	var e expenses.Expense
	err := r.s.read(ctx, func(t *tables) error {
		var err error
		e, err = t.expense(organizationID, id)
		return err
	})
	return e, err
}

func (r expenseRepo) List(ctx context.Context, filter expenses.ListFilter) ([]expenses.Expense, error) {
	var out []expenses.Expense
	err := r.s.read(ctx, func(t *tables) error {
		for _, e := range t.expenses {
			if e.OrganizationID != filter.OrganizationID || !projectMatches(filter.ProjectID, e.ProjectID) {
				continue
			}
			if filter.Status != "" && e.Status != filter.Status {
				continue
			}
			if filter.Category != "" && e.Category != filter.Category {
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpenseDate.Equal(out[j].ExpenseDate) {
			return out[i].ExpenseDate.After(out[j].ExpenseDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

func (r expenseRepo) Totals(ctx context.Context, organizationID int64, projectID *int64) (expenses.Totals, error) {
	var out expenses.Totals
	err := r.s.read(ctx, func(t *tables) error {
		for _, e := range t.expenses {
			if e.OrganizationID != organizationID || !projectMatches(projectID, e.ProjectID) {
				continue
			}
			if e.Status != expenses.StatusRejected {
				out.Total = out.Total.Add(e.Amount)
			}
			if e.Status == expenses.StatusPaid {
				out.Paid = out.Paid.Add(e.Amount)
			}
		}
		return nil
	})
	return out, err
}

func (r expenseRepo) WithTx(ctx context.Context, fn func(context.Context, expenses.TxRepository) error) error {
	return r.s.WithinTx(ctx, func(ctx context.Context) error {
		return fn(ctx, expenseTx{r.s})
	})
}

type expenseTx struct{ s *Store }

func (r expenseTx) Insert(_ context.Context, e expenses.Expense) (expenses.Expense, error) {
	e.ID = r.s.data.nextID("expenses")
	e.ExpenseDate = day(e.ExpenseDate)
	e.CreatedAt = r.s.now()
	e.UpdatedAt = e.CreatedAt
	r.s.data.expenses[e.ID] = e
	return e, nil
}

func (r expenseTx) GetForUpdate(_ context.Context, organizationID, id int64) (expenses.Expense, error) {
	return r.s.data.expense(organizationID, id)
}

func (r expenseTx) Update(_ context.Context, e expenses.Expense) error {
	current, ok := r.s.data.expenses[e.ID]
	if !ok || current.Status == expenses.StatusPaid {
		return expenses.ErrAlreadyPaid
	}
	current.Amount = e.Amount
	current.TaxAmount = e.TaxAmount
	current.Category = e.Category
	current.Description = e.Description
	current.Vendor = e.Vendor
	current.ExpenseDate = day(e.ExpenseDate)
	current.UpdatedAt = e.UpdatedAt
	r.s.data.expenses[e.ID] = current
	return nil
}

func (r expenseTx) SetStatus(_ context.Context, id int64, status expenses.Status, at time.Time) error {
	if e, ok := r.s.data.expenses[id]; ok {
		e.Status = status
		e.UpdatedAt = at
		r.s.data.expenses[id] = e
	}
	return nil
}

func (r expenseTx) SettledBy(_ context.Context, organizationID, paymentID int64) (int64, bool, error) {
	for _, e := range r.s.data.expenses {
		if e.OrganizationID == organizationID && e.PaymentID != nil && *e.PaymentID == paymentID {
			return e.ID, true, nil
		}
	}
	return 0, false, nil
}

func (r expenseTx) MarkPaid(ctx context.Context, id, paymentID, entryID, actorID int64, at time.Time) error {
	e, ok := r.s.data.expenses[id]
	if !ok || (e.Status != expenses.StatusPending && e.Status != expenses.StatusApproved) {
		return expenses.ErrAlreadyPaid
	}
	if other, used, _ := r.SettledBy(ctx, e.OrganizationID, paymentID); used && other != id {
		return expenses.ErrPaymentInUse
	}
	e.Status = expenses.StatusPaid
	e.PaymentID = &paymentID
	e.RelatedJournalEntryID = &entryID
	e.PaidBy = &actorID
	e.PaidAt = &at
	e.UpdatedAt = at
	r.s.data.expenses[id] = e
	return nil
}

// Budgets returns the budget repository.
func (s *Store) Budgets() budgets.Repository { return budgetRepo{s} }

type budgetRepo struct{ s *Store }

func (t *tables) budget(org, id int64) (budgets.Budget, error) {
	b, ok := t.budgets[id]
	if !ok || b.OrganizationID != org {
		return budgets.Budget{}, budgets.ErrBudgetNotFound
	}
	b.Lines = append([]budgets.Line(nil), b.Lines...)
	for i := range b.Lines {
		b.Lines[i].AccountCode = t.accounts[b.Lines[i].AccountID].Code
	}
	return b, nil
}

func (t *tables) projectBudgets(org, project int64) []budgets.Budget {
	var out []budgets.Budget
	for _, b := range t.budgets {
		if b.OrganizationID == org && b.ProjectID == project {
			b.Lines = nil
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveDate.Equal(out[j].EffectiveDate) {
			return out[i].EffectiveDate.After(out[j].EffectiveDate)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r budgetRepo) Get(ctx context.Context, organizationID, id int64) (budgets.Budget, error) {
	var b budgets.Budget
	err := r.s.read(ctx, func(t *tables) error {
		var err error
		b, err = t.budget(organizationID, id)
		return err
	})
	return b, err
}

func (r budgetRepo) ListByProject(ctx context.Context, organizationID, projectID int64) ([]budgets.Budget, error) {
	var out []budgets.Budget
	err := r.s.read(ctx, func(t *tables) error {
		out = t.projectBudgets(organizationID, projectID)
		return nil
	})
	return out, err
}

func (r budgetRepo) Active(ctx context.Context, organizationID, projectID int64) (budgets.Budget, error) {
	var b budgets.Budget
	err := r.s.read(ctx, func(t *tables) error {
		for _, candidate := range t.projectBudgets(organizationID, projectID) {
			if candidate.Status == budgets.StatusApproved || candidate.Status == budgets.StatusRevised {
				var err error
				b, err = t.budget(organizationID, candidate.ID)
				return err
			}
		}
		return budgets.ErrNoActiveBudget
	})
	return b, err
}

func (r budgetRepo) RevisionsForProject(ctx context.Context, organizationID, projectID int64) ([]budgets.Revision, error) {
	var out []budgets.Revision
	err := r.s.read(ctx, func(t *tables) error {
		for _, rev := range t.revisions {
			original := t.budgets[rev.OriginalBudgetID]
			if original.OrganizationID == organizationID && original.ProjectID == projectID {
				out = append(out, rev)
			}
		}
		return nil
	})
	return out, err
}

func (r budgetRepo) WithTx(ctx context.Context, fn func(context.Context, budgets.TxRepository) error) error {
	return r.s.WithinTx(ctx, func(ctx context.Context) error {
		return fn(ctx, budgetTx{r.s})
	})
}

type budgetTx struct{ s *Store }

func (r budgetTx) Insert(_ context.Context, b budgets.Budget) (budgets.Budget, error) {
	t := r.s.data
	b.ID = t.nextID("project_budgets")
	b.EffectiveDate = day(b.EffectiveDate)
	b.CreatedAt = r.s.now()
	b.Lines = append([]budgets.Line(nil), b.Lines...)
	for i := range b.Lines {
		b.Lines[i].ID = t.nextID("budget_lines")
		b.Lines[i].BudgetID = b.ID
	}
	t.budgets[b.ID] = b
	return b, nil
}

func (r budgetTx) GetForUpdate(_ context.Context, organizationID, id int64) (budgets.Budget, error) {
	return r.s.data.budget(organizationID, id)
}

func (r budgetTx) Approve(_ context.Context, id, actorID int64) error {
	b, ok := r.s.data.budgets[id]
	if !ok || b.Status != budgets.StatusDraft {
		return budgets.ErrBudgetNotDraft
	}
	b.Status = budgets.StatusApproved
	b.ApprovedBy = &actorID
	r.s.data.budgets[id] = b
	return nil
}

func (r budgetTx) InsertRevision(_ context.Context, rev budgets.Revision) (budgets.Revision, error) {
	rev.ID = r.s.data.nextID("budget_revisions")
	rev.CreatedAt = r.s.now()
	r.s.data.revisions = append(r.s.data.revisions, rev)
	return rev, nil
}
