package budget

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

type memStore struct {
	budgets  map[int64]Budget
	accounts map[int64]accounts.Account
	nextID   int64
	nextLine int64
}

func newMemStore(list ...accounts.Account) *memStore {
	s := &memStore{budgets: map[int64]Budget{}, accounts: map[int64]accounts.Account{}}
	for _, a := range list {
		s.accounts[a.ID] = a
	}
	return s
}

func cloneBudget(b Budget) Budget {
	b.Lines = append([]Line(nil), b.Lines...)
	for i := range b.Lines {
		b.Lines[i].Dimensions = b.Lines[i].Dimensions.Clone()
	}
	return b
}

func (s *memStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	saved := make(map[int64]Budget, len(s.budgets))
	for id, b := range s.budgets {
		saved[id] = cloneBudget(b)
	}
	nextID, nextLine := s.nextID, s.nextLine
	if err := fn(ctx, s); err != nil {
		s.budgets, s.nextID, s.nextLine = saved, nextID, nextLine
		return err
	}
	return nil
}

func (s *memStore) InsertBudget(ctx context.Context, b Budget) (Budget, error) {
	for _, existing := range s.budgets {
		if existing.Code == b.Code {
			return Budget{}, &shared.DuplicateCodeError{Entity: entity, Code: b.Code}
		}
	}
	s.nextID++
	b.ID = s.nextID
	s.budgets[b.ID] = cloneBudget(b)
	return b, nil
}

func (s *memStore) GetBudget(ctx context.Context, id int64) (Budget, error) {
	b, ok := s.budgets[id]
	if !ok {
		return Budget{}, shared.NotFound(entity, id)
	}
	return cloneBudget(b), nil
}

func (s *memStore) GetBudgetForUpdate(ctx context.Context, id int64) (Budget, error) {
	return s.GetBudget(ctx, id)
}

func (s *memStore) GetBudgetByCode(ctx context.Context, code string) (Budget, error) {
	for _, b := range s.budgets {
		if b.Code == code {
			return cloneBudget(b), nil
		}
	}
	return Budget{}, shared.NotFound(entity, code)
}

func (s *memStore) ListBudgets(ctx context.Context, filter ListFilter) ([]Budget, error) {
	var out []Budget
	for _, b := range s.budgets {
		if filter.PeriodID != 0 && b.PeriodID != filter.PeriodID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, cloneBudget(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *memStore) UpdateBudget(ctx context.Context, b Budget) error {
	current, ok := s.budgets[b.ID]
	if !ok {
		return shared.NotFound(entity, b.ID)
	}
	lines := current.Lines
	current = cloneBudget(b)
	current.Lines = lines
	s.budgets[b.ID] = current
	return nil
}

func (s *memStore) ReplaceLines(ctx context.Context, budgetID int64, lines []Line) error {
	b, ok := s.budgets[budgetID]
	if !ok {
		return shared.NotFound(entity, budgetID)
	}
	for i := range lines {
		s.nextLine++
		lines[i].ID = s.nextLine
		lines[i].BudgetID = budgetID
	}
	b.Lines = append([]Line(nil), lines...)
	s.budgets[budgetID] = b
	return nil
}

func (s *memStore) DeleteBudget(ctx context.Context, id int64) error {
	if _, ok := s.budgets[id]; !ok {
		return shared.NotFound(entity, id)
	}
	delete(s.budgets, id)
	return nil
}

func (s *memStore) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return accounts.Account{}, shared.NotFound("gl_account", id)
	}
	return a, nil
}

func (s *memStore) TotalBudgetedForAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, b := range s.budgets {
		if b.Status != StatusActive {
			continue
		}
		for _, l := range b.Lines {
			if l.AccountID == accountID {
				total = total.Add(l.Amount)
			}
		}
	}
	return total, nil
}

type stubPeriods map[int64]periods.Period

func (p stubPeriods) GetByID(ctx context.Context, id int64) (periods.Period, error) {
	period, ok := p[id]
	if !ok {
		return periods.Period{}, shared.NotFound("budget_period", id)
	}
	return period, nil
}

type recordingApprovals struct {
	logs []shared.ApprovalLog
}

func (r *recordingApprovals) Record(ctx context.Context, log shared.ApprovalLog) error {
	r.logs = append(r.logs, log)
	return nil
}
