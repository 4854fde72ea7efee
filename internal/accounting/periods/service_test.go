package periods

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

type stubRepo struct {
	periods []Period
}

func (r stubRepo) GetByID(ctx context.Context, id int64) (Period, error) {
	for _, p := range r.periods {
		if p.ID == id {
			return p, nil
		}
	}
	return Period{}, shared.NotFound("budget_period", id)
}

func (r stubRepo) GetByCode(ctx context.Context, code string) (Period, error) {
	for _, p := range r.periods {
		if p.Code == code {
			return p, nil
		}
	}
	return Period{}, shared.NotFound("budget_period", code)
}

func (r stubRepo) FindByDate(ctx context.Context, date time.Time) ([]Period, error) {
	var out []Period
	for _, p := range r.periods {
		if p.Contains(date) {
			out = append(out, p)
		}
	}
	return out, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestContainsIsInclusive(t *testing.T) {
	p := Period{StartDate: day(2025, 1, 1), EndDate: day(2025, 1, 31)}
	assert.True(t, p.Contains(day(2025, 1, 1)))
	assert.True(t, p.Contains(day(2025, 1, 31).Add(23*time.Hour)))
	assert.False(t, p.Contains(day(2025, 2, 1)))
	assert.False(t, p.Contains(day(2024, 12, 31)))
}

func TestFindActiveByDateSkipsInactive(t *testing.T) {
	svc := NewService(stubRepo{periods: []Period{
		{ID: 1, Code: "2025-01", StartDate: day(2025, 1, 1), EndDate: day(2025, 1, 31), Status: PeriodStatusClosed},
		{ID: 2, Code: "FY2025", StartDate: day(2025, 1, 1), EndDate: day(2025, 12, 31), Status: PeriodStatusActive, IsActive: true},
	}})
	p, err := svc.FindActiveByDate(context.Background(), day(2025, 1, 15))
	require.NoError(t, err)
	assert.Equal(t, "FY2025", p.Code)

	_, err = svc.FindActiveByDate(context.Background(), day(2026, 1, 1))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
