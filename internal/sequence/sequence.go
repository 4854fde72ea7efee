// Package sequence issues gap-tolerant, strictly increasing document numbers
// per series (journal entries, budgets).
package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	// SeriesJournal numbers journal entries.
	SeriesJournal = "JE"
	// SeriesBudget numbers generated budget codes.
	SeriesBudget = "BUD"
)

// Generator hands out the next value of a series. Implementations serialise
// callers of the same series.
type Generator interface {
	Next(ctx context.Context, series string) (int64, error)
}

// Format renders a number as prefix followed by six zero-padded digits.
func Format(prefix string, n int64) string {
	return fmt.Sprintf("%s%06d", prefix, n)
}

// Numberer binds a generator to a series and its display prefix.
type Numberer struct {
	gen    Generator
	series string
	prefix string
}

// NewNumberer builds a Numberer. An empty prefix defaults to the series name.
func NewNumberer(gen Generator, series, prefix string) *Numberer {
	if prefix == "" {
		prefix = series
	}
	return &Numberer{gen: gen, series: series, prefix: prefix}
}

// Next returns the next formatted number.
func (n *Numberer) Next(ctx context.Context) (string, error) {
	if n == nil || n.gen == nil {
		return "", errors.New("sequence: numberer not configured")
	}
	v, err := n.gen.Next(ctx, n.series)
	if err != nil {
		return "", fmt.Errorf("sequence: next %s: %w", n.series, err)
	}
	return Format(n.prefix, v), nil
}

// MemoryGenerator keeps counters in process. Used by tests and the memory backend.
type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryGenerator builds an empty generator.
func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{counters: make(map[string]int64)}
}

// Next increments the series counter under a mutex.
func (g *MemoryGenerator) Next(ctx context.Context, series string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	series = strings.TrimSpace(series)
	if series == "" {
		return 0, errors.New("sequence: series required")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters[series]++
	return g.counters[series], nil
}
