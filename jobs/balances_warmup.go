package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/periods"
	jobmetrics "github.com/nekorytaylor666/stroika-sub000/internal/jobs"
)

// BalanceWarmer recomputes materialized balances of one organization.
type BalanceWarmer interface {
	Warm(ctx context.Context, organizationID int64, month periods.Month) (int, error)
}

// BalancesWarmupJob refreshes the balance cache after period activity so
// report reads hit precomputed rows.
type BalancesWarmupJob struct {
	base
	Balances BalanceWarmer
	Orgs     OrganizationLister
	// OrgTimeout bounds the work spent on a single organization.
	OrgTimeout time.Duration
}

// NewBalancesWarmupJob wires the warmup handler.
func NewBalancesWarmupJob(balances BalanceWarmer, orgs OrganizationLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *BalancesWarmupJob {
	return &BalancesWarmupJob{
		base:       base{Logger: logger, Metrics: metrics},
		Balances:   balances,
		Orgs:       orgs,
		OrgTimeout: 30 * time.Second,
	}
}

// Handle processes TaskBalancesWarmup tasks.
func (j *BalancesWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Balances == nil {
		return errors.New("balances warmup: handler not configured")
	}
	var payload BalancesWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("balances warmup: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	month := periods.MonthOf(j.now())
	if payload.Period != "" {
		m, err := periods.ParseMonth(payload.Period)
		if err != nil {
			return fmt.Errorf("balances warmup: %v: %w", err, asynq.SkipRetry)
		}
		month = m
	}

	tracker := j.metrics().Track(TaskBalancesWarmup)
	defer func() { resultErr = tracker.End(resultErr) }()

	logger := j.logger(TaskBalancesWarmup).With(slog.String("period", month.String()))
	orgs, err := scope(ctx, j.Orgs, payload.OrganizationID)
	if err != nil {
		logger.Error("load organizations", slog.Any("error", err))
		return err
	}
	started := time.Now()
	total := 0
	for _, org := range orgs {
		warmed, err := j.warm(ctx, org, month)
		if err != nil {
			logger.Error("warm balances", slog.Int64("organization_id", org), slog.Any("error", err))
			return err
		}
		total += warmed
	}
	j.metrics().AddProcessed(TaskBalancesWarmup, int64(total))
	logger.Info("completed balances warmup", slog.Int("organizations", len(orgs)), slog.Int("accounts", total), slog.Duration("duration", time.Since(started)))
	return nil
}

func (j *BalancesWarmupJob) warm(ctx context.Context, organizationID int64, month periods.Month) (int, error) {
	if j.OrgTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.OrgTimeout)
		defer cancel()
	}
	return j.Balances.Warm(ctx, organizationID, month)
}
