package ledgertest

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/balances"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/periods"
)

// Balances returns the balance cache and posted-line reader.
func (s *Store) Balances() balances.Repository { return balanceRepo{s} }

type balanceRepo struct{ s *Store }

// postedLines calls fn for every line of a posted entry of the organization
// matching project. org 0 matches every organization.
func (t *tables) postedLines(org int64, project *int64, fn func(journals.JournalEntry, journals.JournalLine)) {
	ids := make([]int64, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		e := t.entries[id]
		if e.Status != journals.EntryStatusPosted {
			continue
		}
		if org != 0 && e.OrganizationID != org {
			continue
		}
		if !projectMatches(project, e.ProjectID) {
			continue
		}
		for _, line := range e.Lines {
			fn(e, line)
		}
	}
}

func (r balanceRepo) GetCached(ctx context.Context, accountID, projectKey int64, period periods.Month) (balances.AccountBalance, bool, error) {
	var (
		b     balances.AccountBalance
		found bool
	)
	err := r.s.read(ctx, func(t *tables) error {
		b, found = t.balances[balanceKey{accountID, projectKey, period.String()}]
		return nil
	})
	return b, found, err
}

func (r balanceRepo) SaveCached(ctx context.Context, b balances.AccountBalance) error {
	return r.s.write(ctx, func(t *tables) error {
		var project int64
		if b.ProjectID != nil {
			project = *b.ProjectID
		}
		t.balances[balanceKey{b.AccountID, project, b.Period.String()}] = b
		return nil
	})
}

func (r balanceRepo) WithAccountLock(ctx context.Context, _ int64, fn func(context.Context) error) error {
	return r.s.WithinTx(ctx, fn)
}

func (r balanceRepo) SumPosted(ctx context.Context, filter balances.SumFilter) (balances.Sums, error) {
	var sums balances.Sums
	err := r.s.read(ctx, func(t *tables) error {
		t.postedLines(0, filter.ProjectID, func(e journals.JournalEntry, line journals.JournalLine) {
			if line.AccountID != filter.AccountID {
				return
			}
			if filter.From != nil && e.Date.Before(*filter.From) {
				return
			}
			if !e.Date.Before(filter.To) {
				return
			}
			sums.Debit = sums.Debit.Add(line.Debit)
			sums.Credit = sums.Credit.Add(line.Credit)
		})
		return nil
	})
	return sums, err
}

func (r balanceRepo) Activity(ctx context.Context, filter balances.ActivityFilter) ([]balances.AccountActivity, error) {
	var out []balances.AccountActivity
	err := r.s.read(ctx, func(t *tables) error {
		chart := t.listAccounts(accounts.ListFilter{OrganizationID: filter.OrganizationID, IncludeInactive: true})
		index := make(map[int64]int, len(chart))
		out = make([]balances.AccountActivity, len(chart))
		for i, a := range chart {
			index[a.ID] = i
			out[i] = balances.AccountActivity{AccountID: a.ID, Code: a.Code, Name: a.Name, Type: a.Type, Category: a.Category}
		}
		t.postedLines(filter.OrganizationID, filter.ProjectID, func(e journals.JournalEntry, line journals.JournalLine) {
			i, ok := index[line.AccountID]
			if !ok || !e.Date.Before(filter.To) {
				return
			}
			row := &out[i]
			if filter.From != nil && e.Date.Before(*filter.From) {
				row.OpeningDebit = row.OpeningDebit.Add(line.Debit)
				row.OpeningCredit = row.OpeningCredit.Add(line.Credit)
				return
			}
			row.Debit = row.Debit.Add(line.Debit)
			row.Credit = row.Credit.Add(line.Credit)
		})
		return nil
	})
	return out, err
}

func (r balanceRepo) CashMovements(ctx context.Context, filter balances.ActivityFilter) ([]balances.CashMovement, error) {
	byType := map[string]*balances.CashMovement{}
	err := r.s.read(ctx, func(t *tables) error {
		t.postedLines(filter.OrganizationID, filter.ProjectID, func(e journals.JournalEntry, line journals.JournalLine) {
			if !accounts.IsCash(t.accounts[line.AccountID].Category) {
				return
			}
			if (filter.From != nil && e.Date.Before(*filter.From)) || !e.Date.Before(filter.To) {
				return
			}
			m, ok := byType[string(e.Type)]
			if !ok {
				m = &balances.CashMovement{EntryType: string(e.Type)}
				byType[string(e.Type)] = m
			}
			m.Inflow = m.Inflow.Add(line.Debit)
			m.Outflow = m.Outflow.Add(line.Credit)
		})
		return nil
	})
	out := make([]balances.CashMovement, 0, len(byType))
	for _, m := range byType {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryType < out[j].EntryType })
	return out, err
}

func (r balanceRepo) PostedDebits(ctx context.Context, organizationID, projectID int64, accountIDs []int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal, len(accountIDs))
	wanted := make(map[int64]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = struct{}{}
	}
	err := r.s.read(ctx, func(t *tables) error {
		t.postedLines(organizationID, &projectID, func(_ journals.JournalEntry, line journals.JournalLine) {
			if _, ok := wanted[line.AccountID]; ok {
				out[line.AccountID] = out[line.AccountID].Add(line.Debit)
			}
		})
		return nil
	})
	return out, err
}
