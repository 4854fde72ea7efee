package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-gl/internal/budget"
	"github.com/odyssey-erp/odyssey-gl/internal/integration"
	jobmetrics "github.com/odyssey-erp/odyssey-gl/internal/jobs"
	"github.com/odyssey-erp/odyssey-gl/internal/observability"
	"github.com/odyssey-erp/odyssey-gl/internal/sequence"
	"github.com/odyssey-erp/odyssey-gl/internal/shared"
	"github.com/odyssey-erp/odyssey-gl/internal/variance"
	"github.com/odyssey-erp/odyssey-gl/jobs"
)

// Ledger is the wired set of services shared by the worker and glctl.
type Ledger struct {
	Accounts  *accounts.Service
	Periods   *periods.Service
	Journals  *journals.Service
	Budgets   *budget.Service
	Variance  *variance.Service
	Hooks     *integration.Hooks
	Refresh   *variance.RefreshJob
	Integrity *jobs.GLIntegrityJob
}

// LedgerDeps carries the infrastructure the ledger runs on. Redis is only
// required by the redis sequence backend.
type LedgerDeps struct {
	Config     *Config
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Logger     *slog.Logger
	Metrics    *observability.Metrics
	JobMetrics *jobmetrics.Metrics
}

// NewLedger wires repositories and services.
func NewLedger(deps LedgerDeps) (*Ledger, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	accountRepo := accounts.NewRepository(deps.Pool)
	periodRepo := periods.NewRepository(deps.Pool)
	journalRepo := journals.NewRepository(deps.Pool, cfg.TxMaxRetries)
	budgetRepo := budget.NewRepository(deps.Pool, cfg.TxMaxRetries)

	gen, err := newGenerator(cfg, deps, journalRepo, budgetRepo)
	if err != nil {
		return nil, err
	}

	audit := shared.NewAuditLogger(deps.Pool, logger)
	approvals := shared.NewApprovalRecorder(deps.Pool, logger)

	accountService := accounts.NewService(accountRepo)
	periodService := periods.NewService(periodRepo)

	journalService := journals.NewService(journalRepo, sequence.NewNumberer(gen, sequence.SeriesJournal, cfg.JournalNumberPrefix), audit, logger)
	if deps.Metrics != nil {
		journalService.WithEvents(deps.Metrics)
	}
	budgetService := budget.NewService(budgetRepo, periodService, sequence.NewNumberer(gen, sequence.SeriesBudget, cfg.BudgetCodePrefix), approvals, audit, logger)

	varianceService := variance.NewService(budgetService, periodService, accountService, journalRepo, variance.NewRepository(deps.Pool, cfg.TxMaxRetries), logger)
	varianceService.WithMatchKeys(cfg.MatchKeys())

	hooks := integration.NewHooks(journalService, periodService, accountService,
		mappings.NewResolver(mappings.NewRepository(deps.Pool)), shared.NewIdempotencyStore(deps.Pool), logger)

	return &Ledger{
		Accounts:  accountService,
		Periods:   periodService,
		Journals:  journalService,
		Budgets:   budgetService,
		Variance:  varianceService,
		Hooks:     hooks,
		Refresh:   variance.NewRefreshJob(varianceService, logger, deps.JobMetrics),
		Integrity: jobs.NewGLIntegrityJob(journalRepo, journalService, logger, deps.JobMetrics),
	}, nil
}

type lastIssued interface {
	LastNumber(ctx context.Context, prefix string) (int64, error)
}

type lastCode interface {
	LastCode(ctx context.Context, prefix string) (int64, error)
}

func newGenerator(cfg *Config, deps LedgerDeps, entries lastIssued, budgets lastCode) (sequence.Generator, error) {
	switch cfg.SequenceBackend {
	case SequencePostgres:
		return sequence.NewPGGenerator(deps.Pool), nil
	case SequenceRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("app: redis sequence backend needs REDIS_ADDR")
		}
		return sequence.NewRedisGenerator(deps.Redis, seeder(cfg, entries, budgets), cfg.SequenceLockTTL), nil
	case SequenceMemory:
		return sequence.NewMemoryGenerator(), nil
	default:
		return nil, fmt.Errorf("app: unknown sequence backend %q", cfg.SequenceBackend)
	}
}

// seeder recovers the last issued number from Postgres when the Redis counter is gone.
func seeder(cfg *Config, entries lastIssued, budgets lastCode) sequence.Seeder {
	return func(ctx context.Context, series string) (int64, error) {
		switch series {
		case sequence.SeriesJournal:
			return entries.LastNumber(ctx, cfg.JournalNumberPrefix)
		case sequence.SeriesBudget:
			return budgets.LastCode(ctx, cfg.BudgetCodePrefix)
		default:
			return 0, nil
		}
	}
}
