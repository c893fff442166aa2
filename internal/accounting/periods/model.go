package periods

import (
	"fmt"
	"time"

	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
	PeriodStatusLocked PeriodStatus = "LOCKED"
)

// Period is the posting status of one calendar month.
type Period struct {
	OrganizationID int64        `json:"organization_id"`
	Month          Month        `json:"period"`
	Status         PeriodStatus `json:"status"`
	ChangedBy      *int64       `json:"changed_by,omitempty"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Month is a calendar month in YYYY-MM form.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(raw string) (Month, error) {
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return Month{}, fmt.Errorf("accounting: invalid period %q: %w", raw, core.ErrValidation)
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Start is the first instant of the month in UTC.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first instant of the following month; ranges are half-open.
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

// LastDay is the final calendar day of the month.
func (m Month) LastDay() time.Time {
	return m.End().AddDate(0, 0, -1)
}

// MarshalText renders the month as YYYY-MM.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses YYYY-MM.
func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ValidateTransition checks status changes. Reopening a locked period requires an override.
func ValidateTransition(current, target PeriodStatus, override bool) bool {
	if current == target {
		return true
	}
	switch current {
	case PeriodStatusOpen:
		return target == PeriodStatusClosed || target == PeriodStatusLocked
	case PeriodStatusClosed:
		return target == PeriodStatusOpen || target == PeriodStatusLocked
	case PeriodStatusLocked:
		return override && (target == PeriodStatusClosed || target == PeriodStatusOpen)
	}
	return false
}
