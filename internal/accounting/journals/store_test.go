package journals

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

// memStore is a transactional in-memory repository. WithTx snapshots the state
// and restores it when fn fails, mirroring a database rollback.
type memStore struct {
	entries  map[int64]Entry
	accounts map[int64]accounts.Account
	nextID   int64
	nextLine int64
}

func newMemStore(list ...accounts.Account) *memStore {
	s := &memStore{entries: map[int64]Entry{}, accounts: map[int64]accounts.Account{}}
	for _, a := range list {
		s.accounts[a.ID] = a
	}
	return s
}

func (s *memStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	entries := make(map[int64]Entry, len(s.entries))
	for id, e := range s.entries {
		entries[id] = cloneEntry(e)
	}
	accts := make(map[int64]accounts.Account, len(s.accounts))
	for id, a := range s.accounts {
		accts[id] = a
	}
	nextID, nextLine := s.nextID, s.nextLine
	if err := fn(ctx, s); err != nil {
		s.entries, s.accounts, s.nextID, s.nextLine = entries, accts, nextID, nextLine
		return err
	}
	return nil
}

func cloneEntry(e Entry) Entry {
	e.Lines = append([]Line(nil), e.Lines...)
	for i := range e.Lines {
		e.Lines[i].Dimensions = e.Lines[i].Dimensions.Clone()
	}
	return e
}

func (s *memStore) balance(id int64) decimal.Decimal {
	return s.accounts[id].CurrentBalance
}

func (s *memStore) InsertEntry(ctx context.Context, e Entry) (Entry, error) {
	for _, existing := range s.entries {
		if existing.Number == e.Number {
			return Entry{}, &shared.DuplicateCodeError{Entity: entity, Code: e.Number}
		}
	}
	s.nextID++
	e.ID = s.nextID
	s.entries[e.ID] = cloneEntry(e)
	return e, nil
}

func (s *memStore) GetEntry(ctx context.Context, id int64) (Entry, error) {
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, shared.NotFound(entity, id)
	}
	return cloneEntry(e), nil
}

func (s *memStore) GetEntryForUpdate(ctx context.Context, id int64) (Entry, error) {
	return s.GetEntry(ctx, id)
}

func (s *memStore) GetEntryByNumber(ctx context.Context, number string) (Entry, error) {
	for _, e := range s.entries {
		if e.Number == number {
			return cloneEntry(e), nil
		}
	}
	return Entry{}, shared.NotFound(entity, number)
}

func (s *memStore) ListEntries(ctx context.Context, filter ListFilter) ([]Entry, error) {
	var out []Entry
	for _, e := range s.entries {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.SourceType != "" && e.SourceType != filter.SourceType {
			continue
		}
		out = append(out, cloneEntry(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) UpdateEntry(ctx context.Context, e Entry) error {
	current, ok := s.entries[e.ID]
	if !ok {
		return shared.NotFound(entity, e.ID)
	}
	lines := current.Lines
	current = cloneEntry(e)
	current.Lines = lines
	s.entries[e.ID] = current
	return nil
}

func (s *memStore) InsertLine(ctx context.Context, entryID int64, l Line) (Line, error) {
	e, ok := s.entries[entryID]
	if !ok {
		return Line{}, shared.NotFound(entity, entryID)
	}
	s.nextLine++
	l.ID = s.nextLine
	l.EntryID = entryID
	e.Lines = append(e.Lines, l)
	s.entries[entryID] = e
	return l, nil
}

func (s *memStore) ReplaceLines(ctx context.Context, entryID int64, lines []Line) error {
	e, ok := s.entries[entryID]
	if !ok {
		return shared.NotFound(entity, entryID)
	}
	e.Lines = nil
	s.entries[entryID] = e
	for i := range lines {
		if lines[i].ID != 0 {
			lines[i].EntryID = entryID
			e = s.entries[entryID]
			e.Lines = append(e.Lines, lines[i])
			s.entries[entryID] = e
			continue
		}
		saved, err := s.InsertLine(ctx, entryID, lines[i])
		if err != nil {
			return err
		}
		lines[i] = saved
	}
	return nil
}

func (s *memStore) DeleteEntry(ctx context.Context, id int64) (int, error) {
	e, ok := s.entries[id]
	if !ok {
		return 0, shared.NotFound(entity, id)
	}
	delete(s.entries, id)
	return len(e.Lines), nil
}

func (s *memStore) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return accounts.Account{}, shared.NotFound("gl_account", id)
	}
	return a, nil
}

func (s *memStore) ApplyBalanceDelta(ctx context.Context, accountID int64, delta decimal.Decimal) error {
	a, ok := s.accounts[accountID]
	if !ok {
		return shared.NotFound("gl_account", accountID)
	}
	a.CurrentBalance = a.CurrentBalance.Add(delta)
	s.accounts[accountID] = a
	return nil
}

func (s *memStore) LinesByAccount(ctx context.Context, accountID int64) ([]PostedLine, error) {
	var out []PostedLine
	for _, e := range s.entries {
		for _, l := range e.Lines {
			if l.AccountID == accountID {
				out = append(out, PostedLine{EntryID: e.ID, EntryNumber: e.Number, EntryDate: e.EntryDate, EntryStatus: e.Status, Line: l})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) TrialBalance(ctx context.Context) ([]TrialBalanceRow, error) {
	rows := map[int64]*TrialBalanceRow{}
	for id, a := range s.accounts {
		rows[id] = &TrialBalanceRow{AccountID: id, AccountCode: a.Code, NormalBalance: a.NormalBalance, CurrentBalance: a.CurrentBalance}
	}
	for _, e := range s.entries {
		if e.Status != StatusPosted && e.Status != StatusReversed {
			continue
		}
		for _, l := range e.Lines {
			row := rows[l.AccountID]
			row.Debit = row.Debit.Add(l.Debit)
			row.Credit = row.Credit.Add(l.Credit)
		}
	}
	out := make([]TrialBalanceRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountCode < out[j].AccountCode })
	return out, nil
}
