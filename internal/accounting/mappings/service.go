package mappings

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Service resolves integration keys to account codes.
type Service struct {
	repo Repository
}

// NewService constructs the mapping service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve returns the account code for module/key. Explicit rows win over
// Defaults; unknown expense categories fall back to the module default key.
func (s *Service) Resolve(ctx context.Context, organizationID int64, module, key string) (string, error) {
	module, key = normalize(module, key)
	if module == "" || key == "" {
		return "", errors.New("accounting: module and key required")
	}
	candidates := []string{key}
	if key != KeyDefault {
		candidates = append(candidates, KeyDefault)
	}
	for _, k := range candidates {
		m, err := s.repo.Get(ctx, organizationID, module, k)
		if err == nil {
			return m.AccountCode, nil
		}
		if !errors.Is(err, ErrMappingNotFound) {
			return "", err
		}
		if code, ok := Defaults[module][k]; ok {
			return code, nil
		}
	}
	return "", fmt.Errorf("%s/%s: %w", module, key, ErrMappingNotFound)
}

// Set stores an explicit mapping.
func (s *Service) Set(ctx context.Context, organizationID int64, module, key, accountCode string) error {
	module, key = normalize(module, key)
	if module == "" || key == "" || accountCode == "" {
		return errors.New("accounting: module, key and account code required")
	}
	return s.repo.Upsert(ctx, AccountMapping{OrganizationID: organizationID, Module: module, Key: key, AccountCode: accountCode})
}

// SeedDefaults writes Defaults as explicit rows without overriding existing ones.
func (s *Service) SeedDefaults(ctx context.Context, organizationID int64) error {
	modules := make([]string, 0, len(Defaults))
	for module := range Defaults {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	for _, module := range modules {
		keys := make([]string, 0, len(Defaults[module]))
		for key := range Defaults[module] {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if err := s.repo.InsertIfMissing(ctx, AccountMapping{
				OrganizationID: organizationID,
				Module:         module,
				Key:            key,
				AccountCode:    Defaults[module][key],
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// List returns explicit mappings.
func (s *Service) List(ctx context.Context, organizationID int64) ([]AccountMapping, error) {
	return s.repo.List(ctx, organizationID)
}
