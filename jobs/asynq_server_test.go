package jobs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, nil).MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0}`, rr.Body.String())
}

func TestVarianceRefreshTaskPayload(t *testing.T) {
	task, err := NewVarianceRefreshTask(VarianceRefreshPayload{BudgetID: 12})
	require.NoError(t, err)
	assert.Equal(t, TaskVarianceRefresh, task.Type())
	var payload VarianceRefreshPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, int64(12), payload.BudgetID)
}

func TestNewWorkerRejectsBadCron(t *testing.T) {
	task, err := NewGLIntegrityTask(GLIntegrityPayload{})
	require.NoError(t, err)
	_, err = NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"},
		Cron:      []CronRegistration{{Spec: "not a cron", Task: task}},
	})
	assert.Error(t, err)
}
