package ledgerhttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/platform/httpx"
)

// Date accepts "2006-01-02" or RFC3339 in request bodies.
type Date struct {
	time.Time
}

// UnmarshalJSON parses a date or timestamp string.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q", raw)
	}
	d.Time = t.UTC()
	return nil
}

func (d *Date) value() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}

func (d *Date) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

type createAccountRequest struct {
	Code        string `json:"code" validate:"required,max=16"`
	Name        string `json:"name" validate:"required,max=255"`
	Type        string `json:"type" validate:"required,oneof=asset liability equity revenue expense"`
	Category    string `json:"category" validate:"max=64"`
	ParentCode  string `json:"parent_code" validate:"max=16"`
	Description string `json:"description"`
}

type setMappingRequest struct {
	Module      string `json:"module" validate:"required,oneof=PAYMENT EXPENSE payment expense"`
	Key         string `json:"key" validate:"required,max=64"`
	AccountCode string `json:"account_code" validate:"required,max=16"`
}

type entryLineRequest struct {
	AccountCode   string           `json:"account_code" validate:"required,max=16"`
	Debit         decimal.Decimal  `json:"debit"`
	Credit        decimal.Decimal  `json:"credit"`
	Description   string           `json:"description"`
	AnalyticsCode string           `json:"analytics_code" validate:"max=64"`
	TaxAmount     *decimal.Decimal `json:"tax_amount"`
}

type createEntryRequest struct {
	ProjectID   *int64             `json:"project_id" validate:"omitempty,gt=0"`
	Date        Date               `json:"date"`
	Description string             `json:"description" validate:"max=500"`
	Type        string             `json:"type" validate:"required"`
	Post        bool               `json:"post"`
	Lines       []entryLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type reverseRequest struct {
	Description string `json:"description" validate:"max=500"`
	Date        *Date  `json:"date"`
}

type createPaymentRequest struct {
	ProjectID    *int64          `json:"project_id" validate:"omitempty,gt=0"`
	Amount       decimal.Decimal `json:"amount"`
	Direction    string          `json:"direction" validate:"required,oneof=incoming outgoing"`
	Type         string          `json:"type" validate:"max=64"`
	Method       string          `json:"method" validate:"max=64"`
	Counterparty string          `json:"counterparty" validate:"max=255"`
	Description  string          `json:"description" validate:"max=500"`
	PaymentDate  *Date           `json:"payment_date"`
}

type createExpenseRequest struct {
	ProjectID   *int64           `json:"project_id" validate:"omitempty,gt=0"`
	Amount      decimal.Decimal  `json:"amount"`
	TaxAmount   *decimal.Decimal `json:"tax_amount"`
	Category    string           `json:"category" validate:"required,max=64"`
	Description string           `json:"description" validate:"max=500"`
	Vendor      string           `json:"vendor" validate:"max=255"`
	ExpenseDate *Date            `json:"expense_date"`
}

type updateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	TaxAmount   *decimal.Decimal `json:"tax_amount"`
	Category    *string          `json:"category" validate:"omitempty,min=1,max=64"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Vendor      *string          `json:"vendor" validate:"omitempty,max=255"`
	ExpenseDate *Date            `json:"expense_date"`
}

type payExpenseRequest struct {
	PaymentID *int64 `json:"payment_id" validate:"omitempty,gt=0"`
}

type budgetLineRequest struct {
	AccountCode     string          `json:"account_code" validate:"required,max=16"`
	Category        string          `json:"category" validate:"max=64"`
	Description     string          `json:"description" validate:"max=500"`
	PlannedAmount   decimal.Decimal `json:"planned_amount"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
}

type createBudgetRequest struct {
	ProjectID     int64               `json:"project_id" validate:"required,gt=0"`
	Name          string              `json:"name" validate:"required,max=255"`
	TotalBudget   *decimal.Decimal    `json:"total_budget"`
	EffectiveDate *Date               `json:"effective_date"`
	Lines         []budgetLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type createRevisionRequest struct {
	Name          string              `json:"name" validate:"max=255"`
	Reason        string              `json:"reason" validate:"required,max=500"`
	TotalBudget   *decimal.Decimal    `json:"total_budget"`
	EffectiveDate *Date               `json:"effective_date"`
	Lines         []budgetLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// listResponse wraps collections so the envelope can grow.
type listResponse[T any] struct {
	Items []T `json:"items"`
}

func list[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items}
}

func pathID(r *http.Request, name string) (int64, error) {
	return httpx.PathInt64(r, name)
}

func queryDatePtr(r *http.Request, name string) (*time.Time, error) {
	if r.URL.Query().Get(name) == "" {
		return nil, nil
	}
	t, err := httpx.QueryDate(r, name, time.Time{})
	if err != nil {
		return nil, err
	}
	return &t, nil
}
