package variance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-gl/internal/budget"
	"github.com/odyssey-erp/odyssey-gl/internal/dimension"
	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

// BudgetSource loads budgets.
type BudgetSource interface {
	Get(ctx context.Context, id int64) (budget.Budget, error)
	ListByStatus(ctx context.Context, status budget.Status) ([]budget.Budget, error)
}

// PeriodSource resolves budget periods.
type PeriodSource interface {
	GetByID(ctx context.Context, id int64) (periods.Period, error)
}

// AccountSource resolves GL accounts.
type AccountSource interface {
	GetByID(ctx context.Context, id int64) (accounts.Account, error)
}

// Ledger reads lines that reached the ledger on an account within [from, to].
type Ledger interface {
	PostedLines(ctx context.Context, accountID int64, from, to time.Time) ([]journals.PostedLine, error)
}

// Store persists variance records.
type Store interface {
	// Replace deletes the budget's records (only those of date when non-nil)
	// and inserts rows in one transaction.
	Replace(ctx context.Context, budgetID int64, date *time.Time, rows []Variance) ([]Variance, error)
	List(ctx context.Context, filter Filter) ([]Variance, error)
}

// Service computes and serves budget variances.
type Service struct {
	budgets  BudgetSource
	periods  PeriodSource
	accounts AccountSource
	ledger   Ledger
	store    Store
	keys     []dimension.Key
	logger   *slog.Logger
	now      func() time.Time
	flight   singleflight.Group
}

// NewService wires the analyzer.
func NewService(budgets BudgetSource, periods PeriodSource, accts AccountSource, ledger Ledger, store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		budgets:  budgets,
		periods:  periods,
		accounts: accts,
		ledger:   ledger,
		store:    store,
		keys:     DefaultMatchKeys,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the evaluation clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithMatchKeys overrides the dimensions compared between budget and ledger.
func (s *Service) WithMatchKeys(keys []dimension.Key) {
	if len(keys) > 0 {
		s.keys = append([]dimension.Key(nil), keys...)
	}
}

func (s *Service) evaluationDate() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// compute evaluates every line of an ACTIVE budget as of date.
func (s *Service) compute(ctx context.Context, budgetID int64, date time.Time) ([]Variance, error) {
	b, err := s.budgets.Get(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if b.Status != budget.StatusActive {
		return nil, fmt.Errorf("variance: budget %s is %s: %w", b.Code, b.Status, shared.ErrBudgetNotActive)
	}
	period, err := s.periods.GetByID(ctx, b.PeriodID)
	if err != nil {
		return nil, fmt.Errorf("variance: period of budget %s: %w", b.Code, err)
	}
	rows := make([]Variance, 0, len(b.Lines))
	ledgerCache := make(map[int64][]journals.PostedLine)
	for _, line := range b.Lines {
		acct, err := s.accounts.GetByID(ctx, line.AccountID)
		if err != nil {
			return nil, err
		}
		posted, ok := ledgerCache[acct.ID]
		if !ok {
			posted, err = s.ledger.PostedLines(ctx, acct.ID, period.StartDate, date)
			if err != nil {
				return nil, fmt.Errorf("variance: ledger for %s: %w", acct.Code, err)
			}
			ledgerCache[acct.ID] = posted
		}
		rows = append(rows, Evaluate(b, line, acct, posted, s.keys, date))
	}
	return rows, nil
}

// Calculate stores one record per budget line, replacing the records the
// budget already had for today.
func (s *Service) Calculate(ctx context.Context, budgetID int64) ([]Variance, error) {
	date := s.evaluationDate()
	rows, err := s.compute(ctx, budgetID, date)
	if err != nil {
		return nil, err
	}
	saved, err := s.store.Replace(ctx, budgetID, &date, rows)
	if err != nil {
		return nil, err
	}
	s.logger.Info("variance calculated", slog.Int64("budget_id", budgetID), slog.Int("lines", len(saved)))
	return saved, nil
}

// Refresh discards every record of the budget and recalculates. Concurrent
// refreshes of one budget share a single run.
func (s *Service) Refresh(ctx context.Context, budgetID int64) ([]Variance, error) {
	v, err, joined := s.flight.Do(strconv.FormatInt(budgetID, 10), func() (any, error) {
		date := s.evaluationDate()
		rows, err := s.compute(ctx, budgetID, date)
		if err != nil {
			return nil, err
		}
		return s.store.Replace(ctx, budgetID, nil, rows)
	})
	if err != nil {
		return nil, err
	}
	rows := v.([]Variance)
	s.logger.Info("variance refreshed", slog.Int64("budget_id", budgetID), slog.Int("lines", len(rows)), slog.Bool("joined", joined))
	return append([]Variance(nil), rows...), nil
}

// RefreshActive refreshes every ACTIVE budget and reports how many succeeded.
func (s *Service) RefreshActive(ctx context.Context) (int, error) {
	active, err := s.budgets.ListByStatus(ctx, budget.StatusActive)
	if err != nil {
		return 0, err
	}
	var errs []error
	refreshed := 0
	for _, b := range active {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.Refresh(ctx, b.ID); err != nil {
			s.logger.Error("variance refresh", slog.Int64("budget_id", b.ID), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("budget %s: %w", b.Code, err))
			continue
		}
		refreshed++
	}
	return refreshed, errors.Join(errs...)
}

// Summary aggregates the most recent records of a budget.
func (s *Service) Summary(ctx context.Context, budgetID int64) (Summary, error) {
	rows, err := s.store.List(ctx, Filter{BudgetID: budgetID})
	if err != nil {
		return Summary{}, err
	}
	return Summarize(budgetID, Latest(rows)), nil
}

// List returns every stored record of a budget.
func (s *Service) List(ctx context.Context, budgetID int64) ([]Variance, error) {
	return s.store.List(ctx, Filter{BudgetID: budgetID})
}

// ListByType returns the budget's records of one classification.
func (s *Service) ListByType(ctx context.Context, budgetID int64, t Type) ([]Variance, error) {
	return s.store.List(ctx, Filter{BudgetID: budgetID, Type: t})
}

// Favorable returns the budget's favorable records.
func (s *Service) Favorable(ctx context.Context, budgetID int64) ([]Variance, error) {
	return s.ListByType(ctx, budgetID, Favorable)
}

// Unfavorable returns the budget's unfavorable records.
func (s *Service) Unfavorable(ctx context.Context, budgetID int64) ([]Variance, error) {
	return s.ListByType(ctx, budgetID, Unfavorable)
}

// ForAccount returns records on an account across budgets.
func (s *Service) ForAccount(ctx context.Context, accountID int64) ([]Variance, error) {
	return s.store.List(ctx, Filter{AccountID: accountID})
}

// ForDimension returns records tagged with key=ref.
func (s *Service) ForDimension(ctx context.Context, key dimension.Key, ref int64) ([]Variance, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("variance: unknown dimension %q", key)
	}
	return s.store.List(ctx, Filter{DimensionKey: key, DimensionRef: ref})
}

// Export renders the latest records of a budget, largest variance first.
func (s *Service) Export(ctx context.Context, budgetID int64) ([][]string, error) {
	rows, err := s.store.List(ctx, Filter{BudgetID: budgetID})
	if err != nil {
		return nil, err
	}
	rows = Latest(rows)
	SortByMagnitude(rows)
	return ExportRows(rows), nil
}
