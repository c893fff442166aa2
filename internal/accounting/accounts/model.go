package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// DebitNormal reports whether the type increases on debit.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Signed converts raw debit/credit totals into a balance on the type's normal side.
func (t AccountType) Signed(debit, credit decimal.Decimal) decimal.Decimal {
	if t.DebitNormal() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// Well-known categories used by reports.
const (
	CategoryCash        = "cash"
	CategoryBank        = "bank"
	CategoryReceivables = "receivables"
	CategoryPayables    = "payables"
)

// IsCash reports whether the category counts as cash for the cash-flow statement.
func IsCash(category string) bool {
	c := strings.ToLower(category)
	return c == CategoryCash || c == CategoryBank
}

// Account models a chart of accounts node.
type Account struct {
	ID             int64       `json:"id"`
	OrganizationID int64       `json:"organization_id"`
	Code           string      `json:"code"`
	Name           string      `json:"name"`
	Type           AccountType `json:"type"`
	Category       string      `json:"category"`
	ParentID       *int64      `json:"parent_id,omitempty"`
	IsActive       bool        `json:"is_active"`
	Description    string      `json:"description"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// CreateInput describes a new account.
type CreateInput struct {
	OrganizationID int64
	Code           string
	Name           string
	Type           AccountType
	Category       string
	ParentCode     string
	Description    string
}

// Validate checks the fields that do not need the store.
func (in CreateInput) Validate() error {
	if in.OrganizationID == 0 {
		return fmt.Errorf("accounting: organization required: %w", core.ErrValidation)
	}
	if err := ValidateCode(in.Code); err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("accounting: account name required: %w", core.ErrValidation)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("accounting: invalid account type %q: %w", in.Type, core.ErrValidation)
	}
	if in.ParentCode != "" {
		if err := ValidateCode(in.ParentCode); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCode accepts digit groups separated by dots, e.g. "51" or "26.01".
func ValidateCode(code string) error {
	if code == "" || len(code) > 16 {
		return fmt.Errorf("%q: %w", code, shared.ErrMalformedAccountCode)
	}
	for _, part := range strings.Split(code, ".") {
		if part == "" {
			return fmt.Errorf("%q: %w", code, shared.ErrMalformedAccountCode)
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return fmt.Errorf("%q: %w", code, shared.ErrMalformedAccountCode)
			}
		}
	}
	return nil
}

// ListFilter narrows account listings.
type ListFilter struct {
	OrganizationID  int64
	Type            AccountType
	IncludeInactive bool
}
