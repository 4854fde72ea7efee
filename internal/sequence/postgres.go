package sequence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGGenerator keeps counters in the sequences table. The upsert takes the row
// lock, so concurrent callers of one series queue behind each other.
type PGGenerator struct {
	db Querier
}

// NewPGGenerator builds a Postgres generator.
func NewPGGenerator(db Querier) *PGGenerator {
	return &PGGenerator{db: db}
}

// Next increments and returns the series counter.
func (g *PGGenerator) Next(ctx context.Context, series string) (int64, error) {
	if series == "" {
		return 0, errors.New("sequence: series required")
	}
	var value int64
	err := g.db.QueryRow(ctx, `INSERT INTO sequences (series, current_value, updated_at) VALUES ($1, 1, NOW())
ON CONFLICT (series) DO UPDATE SET current_value = sequences.current_value + 1, updated_at = NOW()
RETURNING current_value`, series).Scan(&value)
	return value, err
}
