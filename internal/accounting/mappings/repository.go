package mappings

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

// Repository looks up persisted mappings.
type Repository interface {
	Get(ctx context.Context, module, key string) (AccountMapping, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres backed lookup.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// Get resolves an account mapping for the specified key.
func (r *repository) Get(ctx context.Context, module, key string) (AccountMapping, error) {
	if module == "" || key == "" {
		return AccountMapping{}, errors.New("mappings: module and key required")
	}
	normalized := strings.ToUpper(module)
	var mapping AccountMapping
	err := r.db.QueryRow(ctx, `SELECT module, key, account_code, created_at, updated_at FROM account_mappings WHERE module=$1 AND key=$2`, normalized, key).
		Scan(&mapping.Module, &mapping.Key, &mapping.AccountCode, &mapping.CreatedAt, &mapping.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountMapping{}, shared.NotFound("account_mapping", normalized+"/"+key)
		}
		return AccountMapping{}, err
	}
	return mapping, nil
}

// Resolver falls back to the built-in codes when no row overrides them.
type Resolver struct {
	repo Repository
}

// NewResolver wraps repo. A nil repo serves defaults only.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Code returns the account code configured for module/key.
func (r *Resolver) Code(ctx context.Context, module, key string) (string, error) {
	if r.repo != nil {
		m, err := r.repo.Get(ctx, module, key)
		if err == nil {
			return m.AccountCode, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return "", err
		}
	}
	if code, ok := Default(module, key); ok {
		return code, nil
	}
	return "", shared.NotFound("account_mapping", strings.ToUpper(module)+"/"+key)
}
