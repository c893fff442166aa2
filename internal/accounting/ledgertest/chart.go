package ledgertest

import (
	"context"
	"sort"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/mappings"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/periods"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
)

// Accounts returns the chart of accounts repository.
func (s *Store) Accounts() accounts.Repository { return accountRepo{s} }

type accountRepo struct{ s *Store }

func (t *tables) accountByCode(org int64, code string) (accounts.Account, bool) {
	for _, a := range t.accounts {
		if a.OrganizationID == org && a.Code == code {
			return a, true
		}
	}
	return accounts.Account{}, false
}

func (r accountRepo) Insert(ctx context.Context, acc accounts.Account) (accounts.Account, error) {
	err := r.s.write(ctx, func(t *tables) error {
		if _, ok := t.accountByCode(acc.OrganizationID, acc.Code); ok {
			return shared.ErrDuplicateAccount
		}
		acc.ID = t.nextID("accounts")
		acc.CreatedAt = r.s.now()
		acc.UpdatedAt = acc.CreatedAt
		t.accounts[acc.ID] = acc
		return nil
	})
	if err != nil {
		return accounts.Account{}, err
	}
	return acc, nil
}

func (r accountRepo) InsertIfMissing(ctx context.Context, acc accounts.Account) (bool, error) {
	var inserted bool
	err := r.s.write(ctx, func(t *tables) error {
		if _, ok := t.accountByCode(acc.OrganizationID, acc.Code); ok {
			return nil
		}
		acc.ID = t.nextID("accounts")
		acc.IsActive = true
		acc.ParentID = nil
		acc.CreatedAt = r.s.now()
		acc.UpdatedAt = acc.CreatedAt
		t.accounts[acc.ID] = acc
		inserted = true
		return nil
	})
	return inserted, err
}

func (r accountRepo) GetByCode(ctx context.Context, organizationID int64, code string) (accounts.Account, error) {
	var acc accounts.Account
	err := r.s.read(ctx, func(t *tables) error {
		a, ok := t.accountByCode(organizationID, code)
		if !ok {
			return &shared.AccountNotFoundError{Code: code}
		}
		acc = a
		return nil
	})
	return acc, err
}

func (r accountRepo) GetByID(ctx context.Context, organizationID, id int64) (accounts.Account, error) {
	var acc accounts.Account
	err := r.s.read(ctx, func(t *tables) error {
		a, ok := t.accounts[id]
		if !ok || a.OrganizationID != organizationID {
			return &shared.AccountNotFoundError{ID: id}
		}
		acc = a
		return nil
	})
	return acc, err
}

func (r accountRepo) List(ctx context.Context, filter accounts.ListFilter) ([]accounts.Account, error) {
	var out []accounts.Account
	err := r.s.read(ctx, func(t *tables) error {
		out = t.listAccounts(filter)
		return nil
	})
	return out, err
}

func (t *tables) listAccounts(filter accounts.ListFilter) []accounts.Account {
	var out []accounts.Account
	for _, a := range t.accounts {
		if a.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if !filter.IncludeInactive && !a.IsActive {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (r accountRepo) SetActive(ctx context.Context, organizationID int64, code string, active bool) (accounts.Account, error) {
	var acc accounts.Account
	err := r.s.write(ctx, func(t *tables) error {
		a, ok := t.accountByCode(organizationID, code)
		if !ok {
			return &shared.AccountNotFoundError{Code: code}
		}
		a.IsActive = active
		a.UpdatedAt = r.s.now()
		t.accounts[a.ID] = a
		acc = a
		return nil
	})
	return acc, err
}

func (r accountRepo) Organizations(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.s.read(ctx, func(t *tables) error {
		seen := make(map[int64]bool)
		for _, a := range t.accounts {
			if !seen[a.OrganizationID] {
				seen[a.OrganizationID] = true
				ids = append(ids, a.OrganizationID)
			}
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, err
}

func (r accountRepo) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return r.s.WithinTx(ctx, fn)
}

// Mappings returns the account mapping repository.
func (s *Store) Mappings() mappings.Repository { return mappingRepo{s} }

type mappingRepo struct{ s *Store }

func (r mappingRepo) Get(ctx context.Context, organizationID int64, module, key string) (mappings.AccountMapping, error) {
	var m mappings.AccountMapping
	err := r.s.read(ctx, func(t *tables) error {
		found, ok := t.mappings[mappingKey{organizationID, module, key}]
		if !ok {
			return mappings.ErrMappingNotFound
		}
		m = found
		return nil
	})
	return m, err
}

func (r mappingRepo) Upsert(ctx context.Context, m mappings.AccountMapping) error {
	return r.s.write(ctx, func(t *tables) error {
		k := mappingKey{m.OrganizationID, m.Module, m.Key}
		now := r.s.now()
		if existing, ok := t.mappings[k]; ok {
			existing.AccountCode = m.AccountCode
			existing.UpdatedAt = now
			t.mappings[k] = existing
			return nil
		}
		m.CreatedAt, m.UpdatedAt = now, now
		t.mappings[k] = m
		return nil
	})
}

func (r mappingRepo) InsertIfMissing(ctx context.Context, m mappings.AccountMapping) error {
	return r.s.write(ctx, func(t *tables) error {
		k := mappingKey{m.OrganizationID, m.Module, m.Key}
		if _, ok := t.mappings[k]; ok {
			return nil
		}
		m.CreatedAt = r.s.now()
		m.UpdatedAt = m.CreatedAt
		t.mappings[k] = m
		return nil
	})
}

func (r mappingRepo) List(ctx context.Context, organizationID int64) ([]mappings.AccountMapping, error) {
	var out []mappings.AccountMapping
	err := r.s.read(ctx, func(t *tables) error {
		for k, m := range t.mappings {
			if k.org == organizationID {
				out = append(out, m)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Module != out[j].Module {
			return out[i].Module < out[j].Module
		}
		return out[i].Key < out[j].Key
	})
	return out, err
}

// Periods returns the accounting period repository.
func (s *Store) Periods() periods.Repository { return periodRepo{s} }

type periodRepo struct{ s *Store }

func (r periodRepo) Get(ctx context.Context, organizationID int64, month periods.Month) (periods.Period, error) {
	p := periods.Period{OrganizationID: organizationID, Month: month, Status: periods.PeriodStatusOpen}
	err := r.s.read(ctx, func(t *tables) error {
		if found, ok := t.periods[periodKey{organizationID, month.String()}]; ok {
			p = found
		}
		return nil
	})
	return p, err
}

func (r periodRepo) Upsert(ctx context.Context, p periods.Period) error {
	return r.s.write(ctx, func(t *tables) error {
		p.UpdatedAt = r.s.now()
		t.periods[periodKey{p.OrganizationID, p.Month.String()}] = p
		return nil
	})
}

func (r periodRepo) List(ctx context.Context, organizationID int64) ([]periods.Period, error) {
	var out []periods.Period
	err := r.s.read(ctx, func(t *tables) error {
		for k, p := range t.periods {
			if k.org == organizationID {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Month.String() < out[j].Month.String() })
	return out, err
}
