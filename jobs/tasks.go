package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-gl/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskVarianceRefresh regenerates budget variance records.
	TaskVarianceRefresh = "variance:refresh"
	// TaskGLIntegrity verifies that the ledger still balances.
	TaskGLIntegrity = "gl:integrity"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DefaultMetrics returns the process-wide job metrics.
func DefaultMetrics() *jobmetrics.Metrics {
	return defaultJobMetrics
}

// VarianceRefreshPayload selects the budget to refresh; zero means every
// ACTIVE budget.
type VarianceRefreshPayload struct {
	BudgetID int64 `json:"budget_id"`
}

// NewVarianceRefreshTask constructs an Asynq task.
func NewVarianceRefreshTask(payload VarianceRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVarianceRefresh, data), nil
}

// GLIntegrityPayload configures an integrity run.
type GLIntegrityPayload struct {
	// FailOnViolation makes the task fail (and retry) when violations exist.
	FailOnViolation bool `json:"fail_on_violation"`
}

// NewGLIntegrityTask constructs an Asynq task.
func NewGLIntegrityTask(payload GLIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGLIntegrity, data), nil
}
