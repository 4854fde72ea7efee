package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the ledger schema. Statements are idempotent so Migrate can run on
// every deploy.
const Schema = `
CREATE TABLE IF NOT EXISTS gl_accounts (
	id BIGSERIAL PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	description TEXT,
	type TEXT NOT NULL CHECK (type IN ('ASSET','LIABILITY','EQUITY','REVENUE','EXPENSE','COST_OF_SALES')),
	category TEXT NOT NULL,
	normal_balance TEXT NOT NULL CHECK (normal_balance IN ('DEBIT','CREDIT')),
	parent_id BIGINT REFERENCES gl_accounts(id),
	allow_direct_posting BOOLEAN NOT NULL DEFAULT TRUE,
	require_department BOOLEAN NOT NULL DEFAULT FALSE,
	require_cost_center BOOLEAN NOT NULL DEFAULT FALSE,
	require_business_object BOOLEAN NOT NULL DEFAULT FALSE,
	current_balance NUMERIC(20,4) NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	sort_order INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS budget_periods (
	id BIGSERIAL PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	fiscal_year INT NOT NULL,
	period_type TEXT NOT NULL CHECK (period_type IN ('YEAR','QUARTER','MONTH','CUSTOM')),
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	status TEXT NOT NULL DEFAULT 'DRAFT' CHECK (status IN ('DRAFT','ACTIVE','CLOSED','ARCHIVED')),
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (start_date <= end_date)
);

CREATE TABLE IF NOT EXISTS journal_entries (
	id BIGSERIAL PRIMARY KEY,
	entry_number TEXT NOT NULL UNIQUE,
	entry_date DATE NOT NULL,
	posting_date DATE,
	entry_type TEXT NOT NULL,
	source_type TEXT,
	source_document_id UUID,
	source_document_number TEXT,
	description TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'DRAFT' CHECK (status IN ('DRAFT','VALIDATED','POSTED','REVERSED','DELETED')),
	total_debit NUMERIC(20,4) NOT NULL DEFAULT 0,
	total_credit NUMERIC(20,4) NOT NULL DEFAULT 0,
	reversal_of_id BIGINT REFERENCES journal_entries(id),
	reversed_by_id BIGINT REFERENCES journal_entries(id),
	budget_period_id BIGINT REFERENCES budget_periods(id),
	created_by BIGINT,
	posted_by BIGINT,
	posted_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_journal_entries_status_date ON journal_entries (status, entry_date);
CREATE INDEX IF NOT EXISTS idx_journal_entries_source ON journal_entries (source_type, source_document_id);

CREATE TABLE IF NOT EXISTS journal_entry_lines (
	id BIGSERIAL PRIMARY KEY,
	entry_id BIGINT NOT NULL REFERENCES journal_entries(id) ON DELETE CASCADE,
	line_number INT NOT NULL,
	account_id BIGINT NOT NULL REFERENCES gl_accounts(id),
	debit NUMERIC(20,4) NOT NULL DEFAULT 0 CHECK (debit >= 0),
	credit NUMERIC(20,4) NOT NULL DEFAULT 0 CHECK (credit >= 0),
	dimensions JSONB NOT NULL DEFAULT '{}'::jsonb,
	description TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	UNIQUE (entry_id, line_number) DEFERRABLE INITIALLY DEFERRED
);
CREATE INDEX IF NOT EXISTS idx_journal_entry_lines_account ON journal_entry_lines (account_id);

CREATE TABLE IF NOT EXISTS budgets (
	id BIGSERIAL PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	budget_period_id BIGINT NOT NULL REFERENCES budget_periods(id),
	budget_type TEXT NOT NULL CHECK (budget_type IN ('REVENUE','EXPENSE','CAPITAL','CASH_FLOW','COMPREHENSIVE')),
	status TEXT NOT NULL DEFAULT 'DRAFT',
	total_amount NUMERIC(20,4) NOT NULL DEFAULT 0,
	version INT NOT NULL DEFAULT 1,
	notes TEXT NOT NULL DEFAULT '',
	submitted_at TIMESTAMPTZ,
	approved_at TIMESTAMPTZ,
	approved_by BIGINT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS budget_lines (
	id BIGSERIAL PRIMARY KEY,
	budget_id BIGINT NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
	line_number INT NOT NULL,
	account_id BIGINT NOT NULL REFERENCES gl_accounts(id),
	amount NUMERIC(20,4) NOT NULL,
	dimensions JSONB NOT NULL DEFAULT '{}'::jsonb,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS budget_variances (
	id BIGSERIAL PRIMARY KEY,
	budget_id BIGINT NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
	budget_line_id BIGINT,
	account_id BIGINT NOT NULL REFERENCES gl_accounts(id),
	account_code TEXT NOT NULL,
	variance_date DATE NOT NULL,
	budgeted_amount NUMERIC(20,4) NOT NULL,
	actual_amount NUMERIC(20,4) NOT NULL,
	variance_amount NUMERIC(20,4) NOT NULL,
	variance_percentage NUMERIC(24,4) NOT NULL,
	variance_type TEXT NOT NULL CHECK (variance_type IN ('FAVORABLE','UNFAVORABLE','NEUTRAL')),
	dimensions JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_budget_variances_budget_date ON budget_variances (budget_id, variance_date);
ALTER TABLE budget_variances ALTER COLUMN variance_percentage TYPE NUMERIC(24,4);

CREATE TABLE IF NOT EXISTS sequences (
	series TEXT PRIMARY KEY,
	current_value BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS account_mappings (
	module TEXT NOT NULL,
	key TEXT NOT NULL,
	account_code TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (module, key)
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id BIGSERIAL PRIMARY KEY,
	actor_id BIGINT NOT NULL DEFAULT 0,
	action TEXT NOT NULL,
	entity TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	meta JSONB,
	occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS approvals (
	id BIGSERIAL PRIMARY KEY,
	module TEXT NOT NULL,
	ref_id BIGINT NOT NULL,
	actor_id BIGINT NOT NULL DEFAULT 0,
	action TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS idempotency_keys (
	key TEXT PRIMARY KEY,
	module TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("platform/db: migrate: %w", err)
	}
	return nil
}
