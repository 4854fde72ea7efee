package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-gl/internal/observability"
	"github.com/odyssey-erp/odyssey-gl/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-gl/jobs"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IntegrityChecker runs the ledger integrity checks on demand.
type IntegrityChecker interface {
	Run(ctx context.Context) (jobs.IntegrityReport, error)
}

// RouterParams groups dependencies for building the ops router.
type RouterParams struct {
	Logger    *slog.Logger
	Config    *Config
	Metrics   *observability.Metrics
	Checks    map[string]Pinger
	Jobs      *jobs.Handler
	Integrity IntegrityChecker
}

// NewRouter constructs the ops chi.Router. It carries health, metrics and
// job endpoints only.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		status := make(map[string]string, len(params.Checks))
		code := http.StatusOK
		for name, p := range params.Checks {
			if err := p.Ping(r.Context()); err != nil {
				logger.Warn("readiness check failed", slog.String("check", name), slog.Any("error", err))
				status[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		httpx.JSON(w, code, status)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.Jobs != nil {
		r.Route("/jobs", params.Jobs.MountRoutes)
	}
	if params.Integrity != nil {
		r.Get("/ledger/integrity", func(w http.ResponseWriter, r *http.Request) {
			report, err := params.Integrity.Run(r.Context())
			if err != nil {
				logger.Error("integrity check", slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
			code := http.StatusOK
			if !report.OK() {
				code = http.StatusConflict
			}
			httpx.JSON(w, code, report)
		})
	}
	return r
}
