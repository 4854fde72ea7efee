package periods

import (
	"context"
	"time"

	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

// Service is the read-only budget period lookup.
type Service struct {
	repo Repository
}

// NewService wires the lookup.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetByID resolves a period.
func (s *Service) GetByID(ctx context.Context, id int64) (Period, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByCode resolves a period by code.
func (s *Service) GetByCode(ctx context.Context, code string) (Period, error) {
	return s.repo.GetByCode(ctx, code)
}

// FindByDate lists every period containing date.
func (s *Service) FindByDate(ctx context.Context, date time.Time) ([]Period, error) {
	return s.repo.FindByDate(ctx, date)
}

// FindActiveByDate returns the narrowest active period containing date.
func (s *Service) FindActiveByDate(ctx context.Context, date time.Time) (Period, error) {
	list, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		return Period{}, err
	}
	for _, p := range list {
		if p.IsActive && p.Status == PeriodStatusActive && p.Contains(date) {
			return p, nil
		}
	}
	return Period{}, shared.NotFound("budget_period", date.Format(time.DateOnly))
}
