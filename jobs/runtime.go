package jobs

import (
	"context"
	"log/slog"
	"time"

	jobmetrics "github.com/nekorytaylor666/stroika-sub000/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// OrganizationLister enumerates organizations that own a chart of accounts.
type OrganizationLister interface {
	Organizations(ctx context.Context) ([]int64, error)
}

// base carries the logger, metrics and clock shared by every job.
type base struct {
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

func (b *base) logger(job string) *slog.Logger {
	if b.Logger != nil {
		return b.Logger.With(slog.String("job", job))
	}
	return slog.Default().With(slog.String("job", job))
}

func (b *base) metrics() *jobmetrics.Metrics {
	if b.Metrics != nil {
		return b.Metrics
	}
	return defaultJobMetrics
}

func (b *base) now() time.Time {
	if b.clock != nil {
		return b.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the job clock.
func (b *base) WithClock(clock func() time.Time) {
	b.clock = clock
}

// scope returns the single requested organization, or all of them when zero.
func scope(ctx context.Context, orgs OrganizationLister, organizationID int64) ([]int64, error) {
	if organizationID != 0 || orgs == nil {
		return []int64{organizationID}, nil
	}
	return orgs.Organizations(ctx)
}
