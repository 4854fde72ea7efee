package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

// Repository reads budget periods.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Period, error)
	GetByCode(ctx context.Context, code string) (Period, error)
	FindByDate(ctx context.Context, date time.Time) ([]Period, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed period reader.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const periodColumns = `id, code, name, fiscal_year, period_type, start_date, end_date, status, is_active, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.FiscalYear, &p.PeriodType, &p.StartDate, &p.EndDate, &p.Status, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) GetByID(ctx context.Context, id int64) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM budget_periods WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, shared.NotFound("budget_period", id)
	}
	return p, err
}

func (r *repository) GetByCode(ctx context.Context, code string) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM budget_periods WHERE code=$1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, shared.NotFound("budget_period", code)
	}
	return p, err
}

// FindByDate returns every period covering date, narrowest first.
func (r *repository) FindByDate(ctx context.Context, date time.Time) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM budget_periods
WHERE $1::date BETWEEN start_date AND end_date
ORDER BY (end_date - start_date) ASC, start_date DESC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
