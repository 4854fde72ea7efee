package budget

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/dimension"
	"github.com/odyssey-erp/odyssey-gl/internal/platform/db"
	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

// Repository persists budgets in Postgres.
type Repository struct {
	pool       *pgxpool.Pool
	maxRetries int
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool, maxRetries int) *Repository {
	if maxRetries < 0 {
		maxRetries = db.DefaultMaxRetries
	}
	return &Repository{pool: pool, maxRetries: maxRetries}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("budget repository not initialised")
	}
	return db.WithTxRetries(ctx, r.pool, r.maxRetries, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// LastCode returns the highest numeric suffix issued under prefix.
func (r *Repository) LastCode(ctx context.Context, prefix string) (int64, error) {
	var last int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(SUBSTRING(code FROM $2)::BIGINT), 0)
FROM budgets WHERE code ~ ('^' || $1::text || '[0-9]+$')`, prefix, len(prefix)+1).Scan(&last)
	return last, err
}

const budgetColumns = `id, code, name, description, budget_period_id, budget_type, status, version, notes,
submitted_at, approved_at, approved_by, created_at, updated_at`

func scanBudget(row pgx.Row) (Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.Code, &b.Name, &b.Description, &b.PeriodID, &b.Type, &b.Status, &b.Version, &b.Notes,
		&b.SubmittedAt, &b.ApprovedAt, &b.ApprovedBy, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *txRepository) InsertBudget(ctx context.Context, b Budget) (Budget, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO budgets (code, name, description, budget_period_id, budget_type, status, version, notes, total_amount)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id, created_at, updated_at`,
		b.Code, b.Name, b.Description, b.PeriodID, b.Type, b.Status, b.Version, b.Notes, b.TotalAmount()).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return Budget{}, &shared.DuplicateCodeError{Entity: entity, Code: b.Code}
		}
		return Budget{}, err
	}
	return b, nil
}

func (r *txRepository) getBudget(ctx context.Context, where string, arg any, lock bool) (Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE ` + where
	if lock {
		query += ` FOR UPDATE`
	}
	b, err := scanBudget(r.tx.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Budget{}, shared.NotFound(entity, arg)
		}
		return Budget{}, err
	}
	b.Lines, err = r.lines(ctx, b.ID)
	if err != nil {
		return Budget{}, err
	}
	return b, nil
}

func (r *txRepository) GetBudget(ctx context.Context, id int64) (Budget, error) {
	return r.getBudget(ctx, "id=$1", id, false)
}

func (r *txRepository) GetBudgetForUpdate(ctx context.Context, id int64) (Budget, error) {
	return r.getBudget(ctx, "id=$1", id, true)
}

func (r *txRepository) GetBudgetByCode(ctx context.Context, code string) (Budget, error) {
	return r.getBudget(ctx, "code=$1", code, false)
}

func (r *txRepository) lines(ctx context.Context, budgetID int64) ([]Line, error) {
	rows, err := r.tx.Query(ctx, `SELECT l.id, l.budget_id, l.line_number, l.account_id, a.code, l.amount, l.dimensions, l.notes
FROM budget_lines l JOIN gl_accounts a ON a.id = l.account_id
WHERE l.budget_id=$1 ORDER BY l.line_number`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.BudgetID, &l.LineNumber, &l.AccountID, &l.AccountCode, &l.Amount, &l.Dimensions, &l.Notes); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *txRepository) ListBudgets(ctx context.Context, filter ListFilter) ([]Budget, error) {
	var (
		conds []string
		args  []any
	)
	if filter.PeriodID != 0 {
		args = append(args, filter.PeriodID)
		conds = append(conds, fmt.Sprintf("budget_period_id=$%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status=$%d", len(args)))
	}
	query := `SELECT ` + budgetColumns + ` FROM budgets`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY code`
	rows, err := r.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var out []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Lines, err = r.lines(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *txRepository) UpdateBudget(ctx context.Context, b Budget) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE budgets SET name=$2, description=$3, budget_type=$4, status=$5, version=$6, notes=$7,
submitted_at=$8, approved_at=$9, approved_by=$10, total_amount=$11, updated_at=NOW() WHERE id=$1`,
		b.ID, b.Name, b.Description, b.Type, b.Status, b.Version, b.Notes, b.SubmittedAt, b.ApprovedAt, b.ApprovedBy, b.TotalAmount())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFound(entity, b.ID)
	}
	return nil
}

func (r *txRepository) ReplaceLines(ctx context.Context, budgetID int64, lines []Line) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM budget_lines WHERE budget_id=$1`, budgetID); err != nil {
		return err
	}
	for i := range lines {
		dims := lines[i].Dimensions
		if dims == nil {
			dims = dimension.Set{}
		}
		err := r.tx.QueryRow(ctx, `INSERT INTO budget_lines (budget_id, line_number, account_id, amount, dimensions, notes)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
			budgetID, lines[i].LineNumber, lines[i].AccountID, lines[i].Amount, dims, lines[i].Notes).Scan(&lines[i].ID)
		if err != nil {
			return err
		}
		lines[i].BudgetID = budgetID
	}
	return nil
}

func (r *txRepository) DeleteBudget(ctx context.Context, id int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM budgets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFound(entity, id)
	}
	return nil
}

func (r *txRepository) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	a, err := accounts.ScanAccount(r.tx.QueryRow(ctx, `SELECT `+accounts.Columns+` FROM gl_accounts WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return accounts.Account{}, shared.NotFound("gl_account", id)
	}
	return a, err
}

func (r *txRepository) TotalBudgetedForAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(l.amount), 0) FROM budget_lines l
JOIN budgets b ON b.id = l.budget_id
WHERE b.status='ACTIVE' AND l.account_id=$1`, accountID).Scan(&total)
	return total, err
}
