package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
	jobmetrics "github.com/nekorytaylor666/stroika-sub000/internal/jobs"
)

// ErrUnbalancedLedger reports posted entries whose lines no longer balance.
var ErrUnbalancedLedger = errors.New("gl integrity: unbalanced posted entries")

// IntegrityChecker lists posted entries that fail the balance check.
type IntegrityChecker interface {
	CheckIntegrity(ctx context.Context, organizationID int64) ([]journals.Imbalance, error)
}

// RunGLIntegrityCheck scans one organization and logs every imbalance found.
func RunGLIntegrityCheck(ctx context.Context, checker IntegrityChecker, organizationID int64, logger *slog.Logger) ([]journals.Imbalance, error) {
	if logger == nil {
		logger = slog.Default()
	}
	issues, err := checker.CheckIntegrity(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	for _, issue := range issues {
		logger.Error("unbalanced posted entry",
			slog.Int64("organization_id", organizationID),
			slog.Int64("entry_id", issue.EntryID),
			slog.String("entry_number", issue.EntryNumber),
			slog.String("debit", issue.Debit.StringFixed(2)),
			slog.String("credit", issue.Credit.StringFixed(2)),
		)
	}
	return issues, nil
}

// GLIntegrityJob runs RunGLIntegrityCheck on a schedule. Findings fail the run
// without retry since rerunning cannot repair the data.
type GLIntegrityJob struct {
	base
	Checker IntegrityChecker
	Orgs    OrganizationLister
}

// NewGLIntegrityJob wires the integrity handler.
func NewGLIntegrityJob(checker IntegrityChecker, orgs OrganizationLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *GLIntegrityJob {
	return &GLIntegrityJob{
		base:    base{Logger: logger, Metrics: metrics},
		Checker: checker,
		Orgs:    orgs,
	}
}

// Handle processes TaskGLIntegrity tasks.
func (j *GLIntegrityJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Checker == nil {
		return errors.New("gl integrity: handler not configured")
	}
	var payload GLIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("gl integrity: decode payload: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskGLIntegrity)
	defer func() { resultErr = tracker.End(resultErr) }()

	logger := j.logger(TaskGLIntegrity)
	orgs, err := scope(ctx, j.Orgs, payload.OrganizationID)
	if err != nil {
		logger.Error("load organizations", slog.Any("error", err))
		return err
	}
	found := 0
	for _, org := range orgs {
		issues, err := RunGLIntegrityCheck(ctx, j.Checker, org, logger)
		if err != nil {
			return err
		}
		j.metrics().AddImbalances(org, len(issues))
		found += len(issues)
	}
	if found > 0 {
		return fmt.Errorf("%w: %d entries: %w", ErrUnbalancedLedger, found, asynq.SkipRetry)
	}
	logger.Info("gl integrity check passed", slog.Int("organizations", len(orgs)))
	return nil
}
