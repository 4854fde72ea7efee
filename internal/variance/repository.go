package variance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-gl/internal/dimension"
	"github.com/odyssey-erp/odyssey-gl/internal/platform/db"
)

// Repository persists variance records in Postgres.
type Repository struct {
	pool       *pgxpool.Pool
	maxRetries int
}

// NewRepository constructs a repo.
func NewRepository(pool *pgxpool.Pool, maxRetries int) *Repository {
	if maxRetries < 0 {
		maxRetries = db.DefaultMaxRetries
	}
	return &Repository{pool: pool, maxRetries: maxRetries}
}

// Replace implements Store.
func (r *Repository) Replace(ctx context.Context, budgetID int64, date *time.Time, rows []Variance) ([]Variance, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("variance repository not initialised")
	}
	var saved []Variance
	err := db.WithTxRetries(ctx, r.pool, r.maxRetries, func(tx pgx.Tx) error {
		saved = make([]Variance, 0, len(rows))
		var err error
		if date != nil {
			_, err = tx.Exec(ctx, `DELETE FROM budget_variances WHERE budget_id=$1 AND variance_date=$2::date`, budgetID, *date)
		} else {
			_, err = tx.Exec(ctx, `DELETE FROM budget_variances WHERE budget_id=$1`, budgetID)
		}
		if err != nil {
			return err
		}
		for _, v := range rows {
			dims := v.Dimensions
			if dims == nil {
				dims = dimension.Set{}
			}
			err := tx.QueryRow(ctx, `INSERT INTO budget_variances (budget_id, budget_line_id, account_id, account_code, variance_date,
budgeted_amount, actual_amount, variance_amount, variance_percentage, variance_type, dimensions)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id, created_at`,
				budgetID, v.BudgetLineID, v.AccountID, v.AccountCode, v.VarianceDate, v.BudgetedAmount, v.ActualAmount,
				v.VarianceAmount, v.VariancePercentage, v.Type, dims).Scan(&v.ID, &v.CreatedAt)
			if err != nil {
				return fmt.Errorf("variance: insert %s: %w", v.AccountCode, err)
			}
			saved = append(saved, v)
		}
		return nil
	})
	return saved, err
}

// List implements Store.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Variance, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.BudgetID != 0 {
		add("budget_id=$%d", filter.BudgetID)
	}
	if filter.AccountID != 0 {
		add("account_id=$%d", filter.AccountID)
	}
	if filter.Type != "" {
		add("variance_type=$%d", filter.Type)
	}
	if filter.DimensionKey != "" {
		args = append(args, string(filter.DimensionKey), filter.DimensionRef)
		conds = append(conds, fmt.Sprintf("dimensions @> jsonb_build_object($%d::text, $%d::bigint)", len(args)-1, len(args)))
	}
	query := `SELECT id, budget_id, budget_line_id, account_id, account_code, variance_date, budgeted_amount, actual_amount,
variance_amount, variance_percentage, variance_type, dimensions, created_at FROM budget_variances`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY variance_date DESC, budget_id, id`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Variance
	for rows.Next() {
		var v Variance
		if err := rows.Scan(&v.ID, &v.BudgetID, &v.BudgetLineID, &v.AccountID, &v.AccountCode, &v.VarianceDate,
			&v.BudgetedAmount, &v.ActualAmount, &v.VarianceAmount, &v.VariancePercentage, &v.Type, &v.Dimensions, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
