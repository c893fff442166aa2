package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
)

// MappingSeeder installs default account mappings alongside the standard chart.
type MappingSeeder interface {
	SeedDefaults(ctx context.Context, organizationID int64) error
}

// Service is the chart of accounts lookup keyed by (organization, code).
type Service struct {
	repo    Repository
	mapping MappingSeeder
}

// NewService constructs the chart service. mapping may be nil.
func NewService(repo Repository, mapping MappingSeeder) *Service {
	return &Service{repo: repo, mapping: mapping}
}

// List returns the organization's accounts ordered by code.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Account, error) {
	return s.repo.List(ctx, filter)
}

// Organizations lists every organization that has a chart.
func (s *Service) Organizations(ctx context.Context) ([]int64, error) {
	return s.repo.Organizations(ctx)
}

// Lookup resolves an account by code within the organization.
func (s *Service) Lookup(ctx context.Context, organizationID int64, code string) (Account, error) {
	if err := ValidateCode(code); err != nil {
		return Account{}, err
	}
	return s.repo.GetByCode(ctx, organizationID, code)
}

// LookupByID resolves an account by id within the organization.
func (s *Service) LookupByID(ctx context.Context, organizationID, id int64) (Account, error) {
	return s.repo.GetByID(ctx, organizationID, id)
}

// Require resolves every code, mapping missing accounts to ErrChartNotInitialized.
func (s *Service) Require(ctx context.Context, organizationID int64, codes ...string) ([]Account, error) {
	out := make([]Account, 0, len(codes))
	for _, code := range codes {
		acc, err := s.Lookup(ctx, organizationID, code)
		if err != nil {
			if shared.IsAccountNotFound(err) {
				return nil, shared.ChartNotInitialized(code)
			}
			return nil, err
		}
		out = append(out, acc)
	}
	return out, nil
}

// Create adds an account after validating code format and parent.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	acc := Account{
		OrganizationID: in.OrganizationID,
		Code:           in.Code,
		Name:           in.Name,
		Type:           in.Type,
		Category:       in.Category,
		IsActive:       true,
		Description:    in.Description,
	}
	var created Account
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		if in.ParentCode != "" {
			parent, err := s.repo.GetByCode(ctx, in.OrganizationID, in.ParentCode)
			if err != nil {
				return fmt.Errorf("accounting: parent account: %w", err)
			}
			acc.ParentID = &parent.ID
		}
		var err error
		created, err = s.repo.Insert(ctx, acc)
		return err
	})
	return created, err
}

// Deactivate hides an account from new postings. Accounts are never deleted.
func (s *Service) Deactivate(ctx context.Context, organizationID int64, code string) (Account, error) {
	if err := ValidateCode(code); err != nil {
		return Account{}, err
	}
	return s.repo.SetActive(ctx, organizationID, code, false)
}

// SeedStandardChart inserts the standard chart, skipping codes that already exist.
func (s *Service) SeedStandardChart(ctx context.Context, organizationID int64) (int, error) {
	if organizationID == 0 {
		return 0, errors.New("accounting: organization required")
	}
	inserted := 0
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		inserted = 0
		for _, tpl := range StandardChart {
			ok, err := s.repo.InsertIfMissing(ctx, Account{
				OrganizationID: organizationID,
				Code:           tpl.Code,
				Name:           tpl.Name,
				Type:           tpl.Type,
				Category:       tpl.Category,
				IsActive:       true,
				Description:    tpl.Description,
			})
			if err != nil {
				return fmt.Errorf("seed %s: %w", tpl.Code, err)
			}
			if ok {
				inserted++
			}
		}
		if s.mapping != nil {
			return s.mapping.SeedDefaults(ctx, organizationID)
		}
		return nil
	})
	return inserted, err
}
