package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-gl/internal/app"
	"github.com/odyssey-erp/odyssey-gl/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-gl/internal/platform/db"
)

// env holds the connections a command opened. close releases all of them.
type env struct {
	cfg    *app.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
	redis  *redis.Client
	ledger *app.Ledger
}

// openEnv loads config and connects to Postgres. The ledger is wired only
// when withLedger is set; Redis is dialled when the sequence backend needs it.
func openEnv(ctx context.Context, withLedger bool) (*env, error) {
	if err := app.GuardRuntime("glctl"); err != nil {
		return nil, err
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: app.NewLogger(cfg)}
	if e.pool, err = db.New(ctx, cfg.PGDSN, cfg.PoolOptions()); err != nil {
		return nil, err
	}
	if cfg.SequenceBackend == app.SequenceRedis {
		if e.redis, err = cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}); err != nil {
			e.close()
			return nil, err
		}
	}
	if withLedger {
		if e.ledger, err = app.NewLedger(app.LedgerDeps{Config: cfg, Pool: e.pool, Redis: e.redis, Logger: e.logger}); err != nil {
			e.close()
			return nil, err
		}
	}
	return e, nil
}

func (e *env) close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.pool != nil {
		e.pool.Close()
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
}

func loadOnlyConfig() (*app.Config, error) {
	if err := app.GuardRuntime("glctl"); err != nil {
		return nil, err
	}
	return app.LoadConfig()
}
