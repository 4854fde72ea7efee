package accounts

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrAccountCycle indicates the parent links loop back on themselves.
var ErrAccountCycle = errors.New("accounts: parent hierarchy contains a cycle")

// Service is the read-only chart of accounts lookup.
type Service struct {
	repo Repository
}

// NewService wires the lookup.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetByID resolves an account by id.
func (s *Service) GetByID(ctx context.Context, id int64) (Account, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByCode resolves an account by its unique code.
func (s *Service) GetByCode(ctx context.Context, code string) (Account, error) {
	return s.repo.GetByCode(ctx, code)
}

// List returns the flat chart.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// Chart loads the full hierarchy and verifies it is acyclic.
func (s *Service) Chart(ctx context.Context) (*Chart, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewChart(list)
}

// Chart is an in-memory view of the account tree.
type Chart struct {
	byID     map[int64]Account
	children map[int64][]int64
	roots    []int64
}

// NewChart indexes accounts and rejects parent cycles.
func NewChart(list []Account) (*Chart, error) {
	c := &Chart{byID: make(map[int64]Account, len(list)), children: make(map[int64][]int64)}
	for _, a := range list {
		c.byID[a.ID] = a
	}
	for _, a := range list {
		if a.ParentID == nil {
			c.roots = append(c.roots, a.ID)
			continue
		}
		if _, ok := c.byID[*a.ParentID]; !ok {
			return nil, fmt.Errorf("accounts: %s references unknown parent %d", a.Code, *a.ParentID)
		}
		c.children[*a.ParentID] = append(c.children[*a.ParentID], a.ID)
	}
	for _, a := range list {
		if _, err := c.Path(a.ID); err != nil {
			return nil, err
		}
	}
	c.sortIDs(c.roots)
	for parent := range c.children {
		c.sortIDs(c.children[parent])
	}
	return c, nil
}

// Get returns the account with id.
func (c *Chart) Get(id int64) (Account, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// Roots returns top-level accounts ordered by sort order then code.
func (c *Chart) Roots() []Account {
	return c.resolve(c.roots)
}

// Children returns the direct children of parentID.
func (c *Chart) Children(parentID int64) []Account {
	return c.resolve(c.children[parentID])
}

// Path walks from the root down to id.
func (c *Chart) Path(id int64) ([]Account, error) {
	var path []Account
	seen := make(map[int64]struct{})
	current, ok := c.byID[id]
	for ok {
		if _, dup := seen[current.ID]; dup {
			return nil, fmt.Errorf("%w at %s", ErrAccountCycle, current.Code)
		}
		seen[current.ID] = struct{}{}
		path = append(path, current)
		if current.ParentID == nil {
			break
		}
		current, ok = c.byID[*current.ParentID]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

func (c *Chart) resolve(ids []int64) []Account {
	out := make([]Account, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Chart) sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := c.byID[ids[i]], c.byID[ids[j]]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.Code < b.Code
	})
}
