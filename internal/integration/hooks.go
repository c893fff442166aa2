package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/mappings"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
	"github.com/nekorytaylor666/stroika-sub000/internal/expenses"
	"github.com/nekorytaylor666/stroika-sub000/internal/payments"
)

// Source modules of generated entries.
const (
	SourcePayment = "PAYMENT"
	SourceExpense = "EXPENSE"
)

// Ledger exposes journal operations required by integrations.
type Ledger interface {
	CreateAndPost(ctx context.Context, in journals.CreateEntryInput) (journals.JournalEntry, error)
	CancelEntry(ctx context.Context, in journals.CancelInput) (journals.JournalEntry, error)
}

// AccountMapper resolves integration keys to account codes.
type AccountMapper interface {
	Resolve(ctx context.Context, organizationID int64, module, key string) (string, error)
}

// Chart confirms that resolved codes exist in the organization's chart.
type Chart interface {
	Require(ctx context.Context, organizationID int64, codes ...string) ([]accounts.Account, error)
}

// Hooks turn payment and expense transitions into balanced journal entries.
// They are the only place that knows which accounts a business document hits.
type Hooks struct {
	ledger Ledger
	mapper AccountMapper
	chart  Chart
}

// NewHooks constructs integration hooks.
func NewHooks(ledger Ledger, mapper AccountMapper, chart Chart) *Hooks {
	return &Hooks{ledger: ledger, mapper: mapper, chart: chart}
}

var (
	_ payments.Poster = (*Hooks)(nil)
	_ expenses.Poster = (*Hooks)(nil)
)

// resolveAccounts maps keys to codes and checks every code exists.
func (h *Hooks) resolveAccounts(ctx context.Context, organizationID int64, keys ...[2]string) ([]string, error) {
	codes := make([]string, 0, len(keys))
	for _, k := range keys {
		code, err := h.mapper.Resolve(ctx, organizationID, k[0], k[1])
		if err != nil {
			if errors.Is(err, mappings.ErrMappingNotFound) {
				return nil, shared.ChartNotInitialized(k[0] + "/" + k[1])
			}
			return nil, err
		}
		codes = append(codes, code)
	}
	if _, err := h.chart.Require(ctx, organizationID, codes...); err != nil {
		return nil, err
	}
	return codes, nil
}

// post treats an already linked source as success and returns the linked entry.
func (h *Hooks) post(ctx context.Context, in journals.CreateEntryInput) (int64, error) {
	if in.Source == nil {
		return 0, errors.New("integration: source ref required")
	}
	entry, err := h.ledger.CreateAndPost(ctx, in)
	if err != nil {
		if errors.Is(err, shared.ErrSourceAlreadyLinked) && entry.ID != 0 {
			return entry.ID, nil
		}
		return 0, err
	}
	return entry.ID, nil
}

// PostPaymentConfirmed posts Dr bank / Cr receivables for incoming payments
// and Dr payables / Cr bank for outgoing ones.
func (h *Hooks) PostPaymentConfirmed(ctx context.Context, p payments.Payment, actorID int64) (int64, error) {
	counterKey := mappings.KeyReceivables
	if p.Direction == payments.DirectionOutgoing {
		counterKey = mappings.KeyPayables
	}
	codes, err := h.resolveAccounts(ctx, p.OrganizationID,
		[2]string{mappings.ModulePayment, mappings.KeyBank},
		[2]string{mappings.ModulePayment, counterKey},
	)
	if err != nil {
		return 0, err
	}
	bank, counter := codes[0], codes[1]
	amount := p.Amount.Round(2)
	var lines []journals.LineInput
	switch p.Direction {
	case payments.DirectionIncoming:
		lines = []journals.LineInput{
			{AccountCode: bank, Debit: amount, Description: p.Counterparty},
			{AccountCode: counter, Credit: amount, Description: p.Counterparty},
		}
	case payments.DirectionOutgoing:
		lines = []journals.LineInput{
			{AccountCode: counter, Debit: amount, Description: p.Counterparty},
			{AccountCode: bank, Credit: amount, Description: p.Counterparty},
		}
	default:
		return 0, payments.ErrInvalidDirection
	}
	ref := journals.NewSourceRef(SourcePayment, p.ID)
	paymentID := p.ID
	description := p.Description
	if description == "" {
		description = fmt.Sprintf("Payment %s", p.Number)
	}
	return h.post(ctx, journals.CreateEntryInput{
		OrganizationID:   p.OrganizationID,
		ProjectID:        p.ProjectID,
		Date:             p.PaymentDate,
		Description:      description,
		Type:             journals.EntryTypePayment,
		RelatedPaymentID: &paymentID,
		CreatedBy:        actorID,
		Lines:            lines,
		Source:           &ref,
	})
}

// CancelPaymentPosting cancels the entry posted for a confirmed payment.
func (h *Hooks) CancelPaymentPosting(ctx context.Context, p payments.Payment, actorID int64, reason string) error {
	if p.RelatedJournalEntryID == nil {
		return nil
	}
	if reason == "" {
		reason = fmt.Sprintf("payment %s cancelled", p.Number)
	}
	_, err := h.ledger.CancelEntry(ctx, journals.CancelInput{
		OrganizationID: p.OrganizationID,
		EntryID:        *p.RelatedJournalEntryID,
		ActorID:        actorID,
		Reason:         reason,
	})
	if errors.Is(err, shared.ErrAlreadyCancelled) {
		return nil
	}
	return err
}

// PostExpenseRecognized posts Dr expense account (by category) / Cr payables.
// The settling payment later moves payables against bank.
func (h *Hooks) PostExpenseRecognized(ctx context.Context, e expenses.Expense, actorID int64) (int64, error) {
	codes, err := h.resolveAccounts(ctx, e.OrganizationID,
		[2]string{mappings.ModuleExpense, e.Category},
		[2]string{mappings.ModulePayment, mappings.KeyPayables},
	)
	if err != nil {
		return 0, err
	}
	amount := e.Amount.Round(2)
	var tax *decimal.Decimal
	if e.TaxAmount != nil {
		t := e.TaxAmount.Round(2)
		tax = &t
	}
	ref := journals.NewSourceRef(SourceExpense, e.ID)
	description := e.Description
	if description == "" {
		description = fmt.Sprintf("Expense #%d (%s)", e.ID, e.Category)
	}
	return h.post(ctx, journals.CreateEntryInput{
		OrganizationID: e.OrganizationID,
		ProjectID:      e.ProjectID,
		Date:           e.ExpenseDate,
		Description:    description,
		Type:           journals.EntryTypeExpense,
		CreatedBy:      actorID,
		Lines: []journals.LineInput{
			{AccountCode: codes[0], Debit: amount, Description: e.Vendor, AnalyticsCode: e.Category, TaxAmount: tax},
			{AccountCode: codes[1], Credit: amount, Description: e.Vendor},
		},
		Source: &ref,
	})
}
