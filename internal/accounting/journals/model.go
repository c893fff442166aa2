package journals

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies entries; the cash-flow statement buckets by it.
type EntryType string

const (
	EntryTypePayment    EntryType = "payment"
	EntryTypeExpense    EntryType = "expense"
	EntryTypeRevenue    EntryType = "revenue"
	EntryTypeTransfer   EntryType = "transfer"
	EntryTypeAdjustment EntryType = "adjustment"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryTypePayment, EntryTypeExpense, EntryTypeRevenue, EntryTypeTransfer, EntryTypeAdjustment:
		return true
	}
	return false
}

// EntryStatus enumerates journal lifecycle values.
type EntryStatus string

const (
	EntryStatusDraft     EntryStatus = "draft"
	EntryStatusPosted    EntryStatus = "posted"
	EntryStatusCancelled EntryStatus = "cancelled"
)

// JournalEntry captures posting metadata.
type JournalEntry struct {
	ID               int64         `json:"id"`
	OrganizationID   int64         `json:"organization_id"`
	ProjectID        *int64        `json:"project_id,omitempty"`
	EntryNumber      string        `json:"entry_number"`
	Date             time.Time     `json:"date"`
	Description      string        `json:"description"`
	Type             EntryType     `json:"type"`
	Status           EntryStatus   `json:"status"`
	RelatedPaymentID *int64        `json:"related_payment_id,omitempty"`
	CreatedBy        int64         `json:"created_by"`
	ApprovedBy       *int64        `json:"approved_by,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	PostedAt         *time.Time    `json:"posted_at,omitempty"`
	CancelledAt      *time.Time    `json:"cancelled_at,omitempty"`
	Lines            []JournalLine `json:"lines"`
}

// JournalLine stores debit or credit amount for an account.
type JournalLine struct {
	ID             int64            `json:"id"`
	JournalEntryID int64            `json:"journal_entry_id"`
	AccountID      int64            `json:"account_id"`
	AccountCode    string           `json:"account_code"`
	Debit          decimal.Decimal  `json:"debit"`
	Credit         decimal.Decimal  `json:"credit"`
	Description    string           `json:"description,omitempty"`
	AnalyticsCode  string           `json:"analytics_code,omitempty"`
	TaxAmount      *decimal.Decimal `json:"tax_amount,omitempty"`
}

// AccountIDs returns the distinct accounts referenced by the entry's lines.
func (e JournalEntry) AccountIDs() []int64 {
	seen := make(map[int64]struct{}, len(e.Lines))
	out := make([]int64, 0, len(e.Lines))
	for _, line := range e.Lines {
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		seen[line.AccountID] = struct{}{}
		out = append(out, line.AccountID)
	}
	return out
}

// Totals sums persisted lines.
func (e JournalEntry) Totals() (debit, credit decimal.Decimal) {
	for _, line := range e.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// Imbalance describes a posted entry whose lines no longer balance.
type Imbalance struct {
	EntryID     int64           `json:"entry_id"`
	EntryNumber string          `json:"entry_number"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// ListFilter narrows entry listings.
type ListFilter struct {
	OrganizationID int64
	ProjectID      *int64
	Status         EntryStatus
	Type           EntryType
	From           *time.Time
	To             *time.Time
	Limit          int
	Offset         int
}
