package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

// Repository reads the chart of accounts.
type Repository interface {
	List(ctx context.Context) ([]Account, error)
	GetByID(ctx context.Context, id int64) (Account, error)
	GetByCode(ctx context.Context, code string) (Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed chart reader.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// Columns shared by every account query; other packages scanning gl_accounts
// rows inside their own transactions reuse them through ScanAccount.
const Columns = `id, code, name, COALESCE(description, ''), type, category, normal_balance, parent_id,
allow_direct_posting, require_department, require_cost_center, require_business_object,
current_balance, is_active, sort_order, created_at, updated_at`

// ScanAccount scans one row selected with Columns.
func ScanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Description, &a.Type, &a.Category, &a.NormalBalance, &a.ParentID,
		&a.AllowDirectPosting, &a.RequireDepartment, &a.RequireCostCenter, &a.RequireBusinessObject,
		&a.CurrentBalance, &a.IsActive, &a.SortOrder, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+Columns+` FROM gl_accounts ORDER BY sort_order, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := ScanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id int64) (Account, error) {
	a, err := ScanAccount(r.db.QueryRow(ctx, `SELECT `+Columns+` FROM gl_accounts WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.NotFound("gl_account", id)
	}
	return a, err
}

func (r *repository) GetByCode(ctx context.Context, code string) (Account, error) {
	a, err := ScanAccount(r.db.QueryRow(ctx, `SELECT `+Columns+` FROM gl_accounts WHERE code=$1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.NotFound("gl_account", code)
	}
	return a, err
}
