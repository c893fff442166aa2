package balances

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/periods"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
)

// Repository reads posted lines and maintains the account_balances cache.
type Repository interface {
	GetCached(ctx context.Context, accountID, projectKey int64, period periods.Month) (AccountBalance, bool, error)
	SaveCached(ctx context.Context, b AccountBalance) error
	// WithAccountLock runs fn while holding a share lock on the account row,
	// serializing recomputes against invalidation by posting.
	WithAccountLock(ctx context.Context, accountID int64, fn func(context.Context) error) error
	SumPosted(ctx context.Context, filter SumFilter) (Sums, error)
	Activity(ctx context.Context, filter ActivityFilter) ([]AccountActivity, error)
	CashMovements(ctx context.Context, filter ActivityFilter) ([]CashMovement, error)
	PostedDebits(ctx context.Context, organizationID, projectID int64, accountIDs []int64) (map[int64]decimal.Decimal, error)
}

type repository struct {
	tx *db.TxManager
}

// NewRepository returns the Postgres implementation.
func NewRepository(tx *db.TxManager) Repository {
	return &repository{tx: tx}
}

func (r *repository) GetCached(ctx context.Context, accountID, projectKey int64, period periods.Month) (AccountBalance, bool, error) {
	b := AccountBalance{AccountID: accountID, Period: period}
	var project int64
	err := r.tx.Conn(ctx).QueryRow(ctx, `SELECT project_id, opening_balance, total_debits, total_credits, closing_balance, last_updated
FROM account_balances WHERE account_id=$1 AND project_id=$2 AND period=$3`, accountID, projectKey, period.String()).
		Scan(&project, &b.OpeningBalance, &b.TotalDebits, &b.TotalCredits, &b.ClosingBalance, &b.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return AccountBalance{}, false, nil
	}
	if err != nil {
		return AccountBalance{}, false, err
	}
	if project != 0 {
		b.ProjectID = &project
	}
	return b, true, nil
}

func (r *repository) SaveCached(ctx context.Context, b AccountBalance) error {
	_, err := r.tx.Conn(ctx).Exec(ctx, `INSERT INTO account_balances (account_id, project_id, period, opening_balance, total_debits, total_credits, closing_balance, last_updated)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (account_id, project_id, period) DO UPDATE SET
	opening_balance=EXCLUDED.opening_balance, total_debits=EXCLUDED.total_debits,
	total_credits=EXCLUDED.total_credits, closing_balance=EXCLUDED.closing_balance,
	last_updated=EXCLUDED.last_updated`,
		b.AccountID, projectKey(b.ProjectID), b.Period.String(), b.OpeningBalance, b.TotalDebits, b.TotalCredits, b.ClosingBalance, b.LastUpdated)
	return err
}

// WithAccountLock uses ReadCommitted so sums issued after the lock is granted
// see entries committed while waiting.
func (r *repository) WithAccountLock(ctx context.Context, accountID int64, fn func(context.Context) error) error {
	return r.tx.WithinTxIsolation(ctx, pgx.ReadCommitted, func(ctx context.Context) error {
		if _, err := r.tx.Conn(ctx).Exec(ctx, `SELECT id FROM accounts WHERE id=$1 FOR SHARE`, accountID); err != nil {
			return err
		}
		return fn(ctx)
	})
}

func (r *repository) SumPosted(ctx context.Context, filter SumFilter) (Sums, error) {
	var s Sums
	err := r.tx.Conn(ctx).QueryRow(ctx, `SELECT COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l JOIN journal_entries e ON e.id = l.journal_entry_id
WHERE l.account_id=$1 AND e.status='posted'
  AND ($2::bigint IS NULL OR e.project_id = $2)
  AND ($3::date IS NULL OR e.entry_date >= $3)
  AND e.entry_date < $4`, filter.AccountID, filter.ProjectID, filter.From, filter.To).Scan(&s.Debit, &s.Credit)
	return s, err
}

func (r *repository) Activity(ctx context.Context, filter ActivityFilter) ([]AccountActivity, error) {
	rows, err := r.tx.Conn(ctx).Query(ctx, `SELECT a.id, a.code, a.name, a.type, a.category,
	COALESCE(SUM(l.debit) FILTER (WHERE e.id IS NOT NULL AND e.entry_date < $3), 0),
	COALESCE(SUM(l.credit) FILTER (WHERE e.id IS NOT NULL AND e.entry_date < $3), 0),
	COALESCE(SUM(l.debit) FILTER (WHERE e.id IS NOT NULL AND ($3::date IS NULL OR e.entry_date >= $3)), 0),
	COALESCE(SUM(l.credit) FILTER (WHERE e.id IS NOT NULL AND ($3::date IS NULL OR e.entry_date >= $3)), 0)
FROM accounts a
LEFT JOIN journal_lines l ON l.account_id = a.id
LEFT JOIN journal_entries e ON e.id = l.journal_entry_id
	AND e.status = 'posted'
	AND e.entry_date < $4
	AND ($2::bigint IS NULL OR e.project_id = $2)
WHERE a.organization_id = $1
GROUP BY a.id, a.code, a.name, a.type, a.category
ORDER BY a.code`, filter.OrganizationID, filter.ProjectID, filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountActivity
	for rows.Next() {
		var a AccountActivity
		if err := rows.Scan(&a.AccountID, &a.Code, &a.Name, &a.Type, &a.Category, &a.OpeningDebit, &a.OpeningCredit, &a.Debit, &a.Credit); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) CashMovements(ctx context.Context, filter ActivityFilter) ([]CashMovement, error) {
	rows, err := r.tx.Conn(ctx).Query(ctx, `SELECT e.type, COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.journal_entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.organization_id = $1 AND e.status = 'posted'
  AND LOWER(a.category) IN ('cash', 'bank')
  AND ($2::bigint IS NULL OR e.project_id = $2)
  AND ($3::date IS NULL OR e.entry_date >= $3)
  AND e.entry_date < $4
GROUP BY e.type
ORDER BY e.type`, filter.OrganizationID, filter.ProjectID, filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CashMovement
	for rows.Next() {
		var m CashMovement
		if err := rows.Scan(&m.EntryType, &m.Inflow, &m.Outflow); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) PostedDebits(ctx context.Context, organizationID, projectID int64, accountIDs []int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal, len(accountIDs))
	if len(accountIDs) == 0 {
		return out, nil
	}
	rows, err := r.tx.Conn(ctx).Query(ctx, `SELECT l.account_id, COALESCE(SUM(l.debit),0)
FROM journal_lines l JOIN journal_entries e ON e.id = l.journal_entry_id
WHERE e.organization_id = $1 AND e.project_id = $2 AND e.status = 'posted' AND l.account_id = ANY($3)
GROUP BY l.account_id`, organizationID, projectID, accountIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var sum decimal.Decimal
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, err
		}
		out[id] = sum
	}
	return out, rows.Err()
}
