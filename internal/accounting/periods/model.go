package periods

import "time"

// PeriodType is the granularity of a budget period.
type PeriodType string

const (
	PeriodTypeYear    PeriodType = "YEAR"
	PeriodTypeQuarter PeriodType = "QUARTER"
	PeriodTypeMonth   PeriodType = "MONTH"
	PeriodTypeCustom  PeriodType = "CUSTOM"
)

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusDraft    PeriodStatus = "DRAFT"
	PeriodStatusActive   PeriodStatus = "ACTIVE"
	PeriodStatusClosed   PeriodStatus = "CLOSED"
	PeriodStatusArchived PeriodStatus = "ARCHIVED"
)

// Period represents a budget/fiscal window. Start and end are inclusive dates.
type Period struct {
	ID         int64
	Code       string
	Name       string
	FiscalYear int
	PeriodType PeriodType
	StartDate  time.Time
	EndDate    time.Time
	Status     PeriodStatus
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Contains reports whether date falls on or between the period bounds.
func (p Period) Contains(date time.Time) bool {
	d := truncateDay(date)
	return !d.Before(truncateDay(p.StartDate)) && !d.After(truncateDay(p.EndDate))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
