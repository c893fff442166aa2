package budgets

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
)

// Repository persists budgets and their revision chain.
type Repository interface {
	Get(ctx context.Context, organizationID, id int64) (Budget, error)
	ListByProject(ctx context.Context, organizationID, projectID int64) ([]Budget, error)
	// Active returns the approved or revised budget with the latest
	// effective date, ties broken by the higher id.
	Active(ctx context.Context, organizationID, projectID int64) (Budget, error)
	RevisionsForProject(ctx context.Context, organizationID, projectID int64) ([]Revision, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	Insert(ctx context.Context, b Budget) (Budget, error)
	GetForUpdate(ctx context.Context, organizationID, id int64) (Budget, error)
	// Approve only succeeds from draft.
	Approve(ctx context.Context, id, actorID int64) error
	InsertRevision(ctx context.Context, rev Revision) (Revision, error)
}

type repository struct {
	tx *db.TxManager
}

// NewRepository returns the Postgres implementation.
func NewRepository(tx *db.TxManager) Repository {
	return &repository{tx: tx}
}

const budgetColumns = `id, organization_id, project_id, name, total_budget, status, effective_date, created_by, approved_by, created_at`

func scanBudget(row pgx.Row) (Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.OrganizationID, &b.ProjectID, &b.Name, &b.TotalBudget, &b.Status, &b.EffectiveDate, &b.CreatedBy, &b.ApprovedBy, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Budget{}, ErrBudgetNotFound
	}
	return b, err
}

func loadLines(ctx context.Context, q db.Querier, budgetID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT l.id, l.budget_id, l.account_id, a.code, l.category, l.description, l.planned_amount, l.allocated_amount, l.spent_amount
FROM budget_lines l JOIN accounts a ON a.id = l.account_id
WHERE l.budget_id=$1 ORDER BY l.id`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.BudgetID, &l.AccountID, &l.AccountCode, &l.Category, &l.Description, &l.PlannedAmount, &l.AllocatedAmount, &l.SpentAmount); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) withLines(ctx context.Context, q db.Querier, b Budget, err error) (Budget, error) {
	if err != nil {
		return Budget{}, err
	}
	b.Lines, err = loadLines(ctx, q, b.ID)
	return b, err
}

func (r *repository) Get(ctx context.Context, organizationID, id int64) (Budget, error) {
	q := r.tx.Conn(ctx)
	b, err := scanBudget(q.QueryRow(ctx, `SELECT `+budgetColumns+` FROM project_budgets WHERE organization_id=$1 AND id=$2`, organizationID, id))
	return r.withLines(ctx, q, b, err)
}

func (r *repository) ListByProject(ctx context.Context, organizationID, projectID int64) ([]Budget, error) {
	rows, err := r.tx.Conn(ctx).Query(ctx, `SELECT `+budgetColumns+` FROM project_budgets
WHERE organization_id=$1 AND project_id=$2 ORDER BY effective_date DESC, id DESC`, organizationID, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) Active(ctx context.Context, organizationID, projectID int64) (Budget, error) {
	q := r.tx.Conn(ctx)
	b, err := scanBudget(q.QueryRow(ctx, `SELECT `+budgetColumns+` FROM project_budgets
WHERE organization_id=$1 AND project_id=$2 AND status IN ('approved','revised')
ORDER BY effective_date DESC, id DESC LIMIT 1`, organizationID, projectID))
	if errors.Is(err, ErrBudgetNotFound) {
		return Budget{}, ErrNoActiveBudget
	}
	return r.withLines(ctx, q, b, err)
}

func (r *repository) RevisionsForProject(ctx context.Context, organizationID, projectID int64) ([]Revision, error) {
	rows, err := r.tx.Conn(ctx).Query(ctx, `SELECT r.id, r.original_budget_id, r.new_budget_id, r.change_amount, r.reason, r.created_by, r.created_at
FROM budget_revisions r JOIN project_budgets b ON b.id = r.original_budget_id
WHERE b.organization_id=$1 AND b.project_id=$2 ORDER BY r.id`, organizationID, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Revision
	for rows.Next() {
		var rev Revision
		if err := rows.Scan(&rev.ID, &rev.OriginalBudgetID, &rev.NewBudgetID, &rev.ChangeAmount, &rev.Reason, &rev.CreatedBy, &rev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		return fn(ctx, &txRepository{q: r.tx.Conn(ctx)})
	})
}

type txRepository struct {
	q db.Querier
}

func (r *txRepository) Insert(ctx context.Context, b Budget) (Budget, error) {
	if err := r.q.QueryRow(ctx, `INSERT INTO project_budgets (organization_id, project_id, name, total_budget, status, effective_date, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at`,
		b.OrganizationID, b.ProjectID, b.Name, b.TotalBudget, b.Status, b.EffectiveDate, b.CreatedBy).Scan(&b.ID, &b.CreatedAt); err != nil {
		return Budget{}, err
	}
	for i := range b.Lines {
		line := &b.Lines[i]
		line.BudgetID = b.ID
		if err := r.q.QueryRow(ctx, `INSERT INTO budget_lines (budget_id, account_id, category, description, planned_amount, allocated_amount, spent_amount)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
			b.ID, line.AccountID, line.Category, line.Description, line.PlannedAmount, line.AllocatedAmount, line.SpentAmount).Scan(&line.ID); err != nil {
			return Budget{}, err
		}
	}
	return b, nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, organizationID, id int64) (Budget, error) {
	b, err := scanBudget(r.q.QueryRow(ctx, `SELECT `+budgetColumns+` FROM project_budgets WHERE organization_id=$1 AND id=$2 FOR UPDATE`, organizationID, id))
	if err != nil {
		return Budget{}, err
	}
	b.Lines, err = loadLines(ctx, r.q, b.ID)
	return b, err
}

func (r *txRepository) Approve(ctx context.Context, id, actorID int64) error {
	cmd, err := r.q.Exec(ctx, `UPDATE project_budgets SET status='approved', approved_by=$2 WHERE id=$1 AND status='draft'`, id, actorID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrBudgetNotDraft
	}
	return nil
}

func (r *txRepository) InsertRevision(ctx context.Context, rev Revision) (Revision, error) {
	err := r.q.QueryRow(ctx, `INSERT INTO budget_revisions (original_budget_id, new_budget_id, change_amount, reason, created_by)
VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at`,
		rev.OriginalBudgetID, rev.NewBudgetID, rev.ChangeAmount, rev.Reason, rev.CreatedBy).Scan(&rev.ID, &rev.CreatedAt)
	return rev, err
}

