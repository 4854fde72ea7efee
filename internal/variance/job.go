package variance

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-gl/internal/jobs"
	"github.com/odyssey-erp/odyssey-gl/internal/shared"
	"github.com/odyssey-erp/odyssey-gl/jobs"
)

// Refresher is the part of Service the job drives.
type Refresher interface {
	Refresh(ctx context.Context, budgetID int64) ([]Variance, error)
	RefreshActive(ctx context.Context) (int, error)
}

// RefreshJob processes variance refresh tasks.
type RefreshJob struct {
	service Refresher
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewRefreshJob constructs a job handler.
func NewRefreshJob(service Refresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *RefreshJob {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = jobs.DefaultMetrics()
	}
	return &RefreshJob{service: service, logger: logger.With(slog.String("job", jobs.TaskVarianceRefresh)), metrics: metrics}
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *RefreshJob) Handle(ctx context.Context, task *asynq.Task) (resultErr error) {
	var payload jobs.VarianceRefreshPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	tracker := j.metrics.Track(jobs.TaskVarianceRefresh)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if payload.BudgetID == 0 {
		n, err := j.service.RefreshActive(ctx)
		j.metrics.AddRefreshed(n)
		if err != nil {
			j.logger.Error("variance refresh", slog.Int("refreshed", n), slog.Any("error", err))
			return err
		}
		j.logger.Info("variance refresh completed", slog.Int("refreshed", n))
		return nil
	}

	rows, err := j.service.Refresh(ctx, payload.BudgetID)
	if err != nil {
		j.logger.Error("variance refresh", slog.Int64("budget_id", payload.BudgetID), slog.Any("error", err))
		if errors.Is(err, shared.ErrBudgetNotActive) || errors.Is(err, shared.ErrNotFound) {
			return errors.Join(err, asynq.SkipRetry)
		}
		return err
	}
	j.metrics.AddRefreshed(1)
	j.logger.Info("variance refresh completed", slog.Int64("budget_id", payload.BudgetID), slog.Int("lines", len(rows)))
	return nil
}
