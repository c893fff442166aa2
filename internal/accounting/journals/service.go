package journals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// DefaultEntryPrefix prefixes generated entry numbers.
const DefaultEntryPrefix = "JE"

// ModuleReversal is the source module of reversal entries.
const ModuleReversal = "REVERSAL"

// AccountResolver resolves account codes within an organization.
type AccountResolver interface {
	Lookup(ctx context.Context, organizationID int64, code string) (accounts.Account, error)
}

// PeriodGuard rejects postings into locked months.
type PeriodGuard interface {
	EnsureOpen(ctx context.Context, organizationID int64, date time.Time) error
}

// AuditPort records journal lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log core.AuditLog) error
}

// CacheInvalidator drops derived report data of an organization.
type CacheInvalidator interface {
	Bump(ctx context.Context, organizationID int64) error
}

// Metrics counts journal transitions.
type Metrics interface {
	ObserveJournal(action string)
}

// Service is the journal engine.
type Service struct {
	repo     Repository
	accounts AccountResolver
	guard    PeriodGuard
	audit    AuditPort
	cache    CacheInvalidator
	metrics  Metrics
	logger   *slog.Logger
	prefix   string
	now      func() time.Time
}

// NewService wires the journal engine. guard and audit may be nil.
func NewService(repo Repository, resolver AccountResolver, guard PeriodGuard, audit AuditPort) *Service {
	return &Service{
		repo:     repo,
		accounts: resolver,
		guard:    guard,
		audit:    audit,
		logger:   slog.Default(),
		prefix:   DefaultEntryPrefix,
		now:      time.Now,
	}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithCache attaches the report cache bumped after every post and cancel.
func (s *Service) WithCache(cache CacheInvalidator) {
	s.cache = cache
}

// WithMetrics attaches transition counters.
func (s *Service) WithMetrics(m Metrics) {
	s.metrics = m
}

// WithLogger replaces the default logger.
func (s *Service) WithLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// WithEntryPrefix changes the entry number prefix.
func (s *Service) WithEntryPrefix(prefix string) {
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		s.prefix = prefix
	}
}

// GetEntry returns an entry with its lines.
func (s *Service) GetEntry(ctx context.Context, organizationID, id int64) (JournalEntry, error) {
	return s.repo.GetEntry(ctx, organizationID, id)
}

// ListEntries returns entry headers matching filter.
func (s *Service) ListEntries(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	return s.repo.ListEntries(ctx, filter)
}

// CheckIntegrity lists posted entries whose persisted lines do not balance.
func (s *Service) CheckIntegrity(ctx context.Context, organizationID int64) ([]Imbalance, error) {
	return s.repo.FindUnbalancedPosted(ctx, organizationID)
}

// CreateEntry validates and persists a draft entry. Drafts do not touch balances.
func (s *Service) CreateEntry(ctx context.Context, in CreateEntryInput) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if in.Source != nil {
			if _, found, err := tx.FindSource(ctx, in.OrganizationID, *in.Source); err != nil {
				return err
			} else if found {
				return shared.ErrSourceAlreadyLinked
			}
		}
		var err error
		entry, err = s.insertDraft(ctx, tx, in)
		if err != nil {
			return err
		}
		if in.Source != nil {
			if err := tx.LinkSource(ctx, in.OrganizationID, *in.Source, entry.ID); err != nil {
				return err
			}
		}
		s.afterCommit(ctx, "journal.create", entry, in.CreatedBy, nil)
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

// PostEntry moves a draft to posted and invalidates cached balances of every
// referenced account in the same transaction.
func (s *Service) PostEntry(ctx context.Context, in PostInput) (JournalEntry, error) {
	if in.EntryID == 0 {
		return JournalEntry{}, fmt.Errorf("accounting: entry id required: %w", core.ErrValidation)
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, in.OrganizationID, in.EntryID)
		if err != nil {
			return err
		}
		entry, err = s.post(ctx, tx, current, in.ActorID)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

// CreateAndPost creates and posts an entry in one transaction. When in.Source
// is already linked the existing entry is returned with ErrSourceAlreadyLinked.
func (s *Service) CreateAndPost(ctx context.Context, in CreateEntryInput) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	duplicate := false
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if in.Source != nil {
			existingID, found, err := tx.FindSource(ctx, in.OrganizationID, *in.Source)
			if err != nil {
				return err
			}
			if found {
				entry, err = tx.GetEntryForUpdate(ctx, in.OrganizationID, existingID)
				duplicate = err == nil
				return err
			}
		}
		draft, err := s.insertDraft(ctx, tx, in)
		if err != nil {
			return err
		}
		if in.Source != nil {
			if err := tx.LinkSource(ctx, in.OrganizationID, *in.Source, draft.ID); err != nil {
				return err
			}
		}
		entry, err = s.post(ctx, tx, draft, in.CreatedBy)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if duplicate {
		return entry, shared.ErrSourceAlreadyLinked
	}
	return entry, nil
}

// CancelEntry cancels a draft or posted entry. Cancelling a posted entry
// removes its contribution to balances.
func (s *Service) CancelEntry(ctx context.Context, in CancelInput) (JournalEntry, error) {
	if in.EntryID == 0 {
		return JournalEntry{}, fmt.Errorf("accounting: entry id required: %w", core.ErrValidation)
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, in.OrganizationID, in.EntryID)
		if err != nil {
			return err
		}
		if current.Status == EntryStatusCancelled {
			return shared.ErrAlreadyCancelled
		}
		wasPosted := current.Status == EntryStatusPosted
		if wasPosted && s.guard != nil {
			if err := s.guard.EnsureOpen(ctx, current.OrganizationID, current.Date); err != nil {
				return err
			}
		}
		now := s.now()
		if err := tx.MarkCancelled(ctx, current.ID, now); err != nil {
			return err
		}
		if wasPosted {
			if err := tx.InvalidateBalances(ctx, current.AccountIDs()); err != nil {
				return err
			}
		}
		current.Status = EntryStatusCancelled
		current.CancelledAt = &now
		entry = current
		s.afterCommit(ctx, "journal.cancel", entry, in.ActorID, map[string]any{
			"reason":     in.Reason,
			"was_posted": wasPosted,
		})
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

// ReverseEntry posts an adjustment entry that mirrors a posted entry's lines.
// A posted entry can be reversed once.
func (s *Service) ReverseEntry(ctx context.Context, in ReverseInput) (JournalEntry, error) {
	if in.EntryID == 0 {
		return JournalEntry{}, fmt.Errorf("accounting: entry id required: %w", core.ErrValidation)
	}
	original, err := s.repo.GetEntry(ctx, in.OrganizationID, in.EntryID)
	if err != nil {
		return JournalEntry{}, err
	}
	if original.Status != EntryStatusPosted {
		return JournalEntry{}, shared.ErrNotPosted
	}
	date := s.now()
	if in.Date != nil {
		date = *in.Date
	}
	description := in.Description
	if description == "" {
		description = fmt.Sprintf("Reversal of %s", original.EntryNumber)
	}
	ref := NewSourceRef(ModuleReversal, original.ID)
	reversal, err := s.CreateAndPost(ctx, CreateEntryInput{
		OrganizationID: original.OrganizationID,
		ProjectID:      original.ProjectID,
		Date:           date,
		Description:    description,
		Type:           EntryTypeAdjustment,
		CreatedBy:      in.ActorID,
		Lines:          reverseLines(original.Lines),
		Source:         &ref,
	})
	if err != nil {
		return JournalEntry{}, err
	}
	return reversal, nil
}

func (s *Service) insertDraft(ctx context.Context, tx TxRepository, in CreateEntryInput) (JournalEntry, error) {
	lines, err := s.resolveLines(ctx, in.OrganizationID, in.Lines)
	if err != nil {
		return JournalEntry{}, err
	}
	seq, err := tx.NextEntrySequence(ctx, in.OrganizationID, in.Date)
	if err != nil {
		return JournalEntry{}, err
	}
	return tx.InsertEntry(ctx, JournalEntry{
		OrganizationID:   in.OrganizationID,
		ProjectID:        in.ProjectID,
		EntryNumber:      core.FormatDocumentNumber(s.prefix, in.Date, seq),
		Date:             in.Date,
		Description:      in.Description,
		Type:             in.Type,
		Status:           EntryStatusDraft,
		RelatedPaymentID: in.RelatedPaymentID,
		CreatedBy:        in.CreatedBy,
		Lines:            lines,
	})
}

func (s *Service) resolveLines(ctx context.Context, organizationID int64, inputs []LineInput) ([]JournalLine, error) {
	cache := make(map[string]accounts.Account, len(inputs))
	lines := make([]JournalLine, 0, len(inputs))
	for _, in := range inputs {
		code := strings.TrimSpace(in.AccountCode)
		acc, ok := cache[code]
		if !ok {
			var err error
			acc, err = s.accounts.Lookup(ctx, organizationID, code)
			if err != nil {
				return nil, err
			}
			cache[code] = acc
		}
		lines = append(lines, JournalLine{
			AccountID:     acc.ID,
			AccountCode:   acc.Code,
			Debit:         in.Debit,
			Credit:        in.Credit,
			Description:   in.Description,
			AnalyticsCode: in.AnalyticsCode,
			TaxAmount:     in.TaxAmount,
		})
	}
	return lines, nil
}

// post re-validates persisted lines before the status change.
func (s *Service) post(ctx context.Context, tx TxRepository, entry JournalEntry, actorID int64) (JournalEntry, error) {
	switch entry.Status {
	case EntryStatusPosted:
		return JournalEntry{}, shared.ErrAlreadyPosted
	case EntryStatusCancelled:
		return JournalEntry{}, shared.ErrAlreadyCancelled
	}
	debit, credit := entry.Totals()
	if len(entry.Lines) == 0 || (debit.IsZero() && credit.IsZero()) {
		return JournalEntry{}, shared.ErrEmptyOrZeroEntry
	}
	if err := CheckBalance(debit, credit); err != nil {
		return JournalEntry{}, err
	}
	if s.guard != nil {
		if err := s.guard.EnsureOpen(ctx, entry.OrganizationID, entry.Date); err != nil {
			return JournalEntry{}, err
		}
	}
	now := s.now()
	if err := tx.MarkPosted(ctx, entry.ID, actorID, now); err != nil {
		return JournalEntry{}, err
	}
	if err := tx.InvalidateBalances(ctx, entry.AccountIDs()); err != nil {
		return JournalEntry{}, err
	}
	entry.Status = EntryStatusPosted
	entry.ApprovedBy = &actorID
	entry.PostedAt = &now
	s.afterCommit(ctx, "journal.post", entry, actorID, map[string]any{"debit": debit.StringFixed(2)})
	return entry, nil
}

// afterCommit defers audit, metrics and cache invalidation until the
// outermost transaction commits.
func (s *Service) afterCommit(ctx context.Context, action string, entry JournalEntry, actorID int64, meta map[string]any) {
	db.AfterCommit(ctx, func(ctx context.Context) {
		if s.metrics != nil {
			s.metrics.ObserveJournal(action)
		}
		if s.cache != nil && action != "journal.create" {
			if err := s.cache.Bump(ctx, entry.OrganizationID); err != nil {
				s.logger.Warn("bump report cache", slog.Int64("organization_id", entry.OrganizationID), slog.Any("error", err))
			}
		}
		if s.audit == nil {
			return
		}
		if meta == nil {
			meta = map[string]any{}
		}
		meta["entry_number"] = entry.EntryNumber
		meta["status"] = string(entry.Status)
		if err := s.audit.Record(ctx, core.AuditLog{
			OrganizationID: entry.OrganizationID,
			ActorID:        actorID,
			Action:         action,
			Entity:         "journal_entry",
			EntityID:       fmt.Sprintf("%d", entry.ID),
			Meta:           meta,
			At:             s.now(),
		}); err != nil {
			s.logger.Warn("record journal audit", slog.String("action", action), slog.Any("error", err))
		}
	})
}

func reverseLines(lines []JournalLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountCode:   line.AccountCode,
			Debit:         line.Credit,
			Credit:        line.Debit,
			Description:   line.Description,
			AnalyticsCode: line.AnalyticsCode,
			TaxAmount:     line.TaxAmount,
		})
	}
	return out
}

// IsDuplicate reports whether err only signals an already-linked source.
func IsDuplicate(err error) bool {
	return errors.Is(err, shared.ErrSourceAlreadyLinked)
}
