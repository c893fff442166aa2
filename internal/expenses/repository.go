package expenses

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
)

// Repository persists expenses.
type Repository interface {
	Get(ctx context.Context, organizationID, id int64) (Expense, error)
	List(ctx context.Context, filter ListFilter) ([]Expense, error)
	Totals(ctx context.Context, organizationID int64, projectID *int64) (Totals, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	Insert(ctx context.Context, e Expense) (Expense, error)
	GetForUpdate(ctx context.Context, organizationID, id int64) (Expense, error)
	Update(ctx context.Context, e Expense) error
	SetStatus(ctx context.Context, id int64, status Status, at time.Time) error
	// SettledBy returns the expense already settled by paymentID, if any.
	SettledBy(ctx context.Context, organizationID, paymentID int64) (int64, bool, error)
	// MarkPaid fails with ErrAlreadyPaid unless the row is pending or approved,
	// and with ErrPaymentInUse when paymentID settles another expense.
	MarkPaid(ctx context.Context, id, paymentID, entryID, actorID int64, at time.Time) error
}

type repository struct {
	tx *db.TxManager
}

// NewRepository returns the Postgres implementation.
func NewRepository(tx *db.TxManager) Repository {
	return &repository{tx: tx}
}

const expenseColumns = `id, organization_id, project_id, amount, tax_amount, category, description, vendor, expense_date,
status, payment_id, related_journal_entry_id, created_by, paid_by, paid_at, created_at, updated_at`

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	var tax decimal.NullDecimal
	err := row.Scan(&e.ID, &e.OrganizationID, &e.ProjectID, &e.Amount, &tax, &e.Category, &e.Description, &e.Vendor, &e.ExpenseDate,
		&e.Status, &e.PaymentID, &e.RelatedJournalEntryID, &e.CreatedBy, &e.PaidBy, &e.PaidAt, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Expense{}, ErrExpenseNotFound
	}
	if err != nil {
		return Expense{}, err
	}
	if tax.Valid {
		e.TaxAmount = &tax.Decimal
	}
	return e, nil
}

func (r *repository) Get(ctx context.Context, organizationID, id int64) (Expense, error) {
	return scanExpense(r.tx.Conn(ctx).QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE organization_id=$1 AND id=$2`, organizationID, id))
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Expense, error) {
	rows, err := r.tx.Conn(ctx).Query(ctx, `SELECT `+expenseColumns+` FROM expenses
WHERE organization_id=$1
  AND ($2::bigint IS NULL OR project_id = $2)
  AND ($3 = '' OR status = $3)
  AND ($4 = '' OR category = $4)
ORDER BY expense_date DESC, id DESC`, filter.OrganizationID, filter.ProjectID, string(filter.Status), filter.Category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repository) Totals(ctx context.Context, organizationID int64, projectID *int64) (Totals, error) {
	var t Totals
	err := r.tx.Conn(ctx).QueryRow(ctx, `SELECT
	COALESCE(SUM(amount) FILTER (WHERE status <> 'rejected'), 0),
	COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0)
FROM expenses WHERE organization_id=$1 AND ($2::bigint IS NULL OR project_id = $2)`, organizationID, projectID).Scan(&t.Total, &t.Paid)
	return t, err
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.tx.WithinTxIsolation(ctx, db.LedgerWriteIsolation, func(ctx context.Context) error {
		return fn(ctx, &txRepository{q: r.tx.Conn(ctx)})
	})
}

type txRepository struct {
	q db.Querier
}

func (r *txRepository) Insert(ctx context.Context, e Expense) (Expense, error) {
	err := r.q.QueryRow(ctx, `INSERT INTO expenses (organization_id, project_id, amount, tax_amount, category, description, vendor, expense_date, status, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id, created_at, updated_at`,
		e.OrganizationID, e.ProjectID, e.Amount, e.TaxAmount, e.Category, e.Description, e.Vendor, e.ExpenseDate, e.Status, e.CreatedBy).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *txRepository) GetForUpdate(ctx context.Context, organizationID, id int64) (Expense, error) {
	return scanExpense(r.q.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE organization_id=$1 AND id=$2 FOR UPDATE`, organizationID, id))
}

func (r *txRepository) Update(ctx context.Context, e Expense) error {
	cmd, err := r.q.Exec(ctx, `UPDATE expenses SET amount=$2, tax_amount=$3, category=$4, description=$5, vendor=$6, expense_date=$7, updated_at=$8
WHERE id=$1 AND status <> 'paid'`, e.ID, e.Amount, e.TaxAmount, e.Category, e.Description, e.Vendor, e.ExpenseDate, e.UpdatedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyPaid
	}
	return nil
}

func (r *txRepository) SetStatus(ctx context.Context, id int64, status Status, at time.Time) error {
	_, err := r.q.Exec(ctx, `UPDATE expenses SET status=$2, updated_at=$3 WHERE id=$1`, id, status, at)
	return err
}

func (r *txRepository) MarkPaid(ctx context.Context, id, paymentID, entryID, actorID int64, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `UPDATE expenses SET status='paid', payment_id=$2, related_journal_entry_id=$3, paid_by=$4, paid_at=$5, updated_at=$5
WHERE id=$1 AND status IN ('pending','approved')`, id, paymentID, entryID, actorID, at)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_expenses_payment") {
			return ErrPaymentInUse
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyPaid
	}
	return nil
}

func (r *txRepository) SettledBy(ctx context.Context, organizationID, paymentID int64) (int64, bool, error) {
	var id int64
	err := r.q.QueryRow(ctx, `SELECT id FROM expenses WHERE organization_id=$1 AND payment_id=$2`, organizationID, paymentID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}
