package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-gl/internal/dimension"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := loadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, SequencePostgres, cfg.SequenceBackend)
	assert.Equal(t, "JE", cfg.JournalNumberPrefix)
	assert.Equal(t, "BUD", cfg.BudgetCodePrefix)
	assert.Equal(t, 3, cfg.TxMaxRetries)
	assert.Equal(t, int32(10), cfg.PoolOptions().MaxConns)
	assert.Equal(t, []dimension.Key{dimension.Department, dimension.CostCenter}, cfg.MatchKeys())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvValidates(t *testing.T) {
	cases := map[string][2]string{
		"unknown backend":      {"SEQUENCE_BACKEND", "etcd"},
		"bad log format":       {"LOG_FORMAT", "xml"},
		"bad log level":        {"LOG_LEVEL", "loud"},
		"unknown dimension":    {"VARIANCE_MATCH_DIMENSIONS", "department,region"},
		"no retries":           {"TX_MAX_RETRIES", "0"},
		"min above max conns":  {"PG_MIN_CONNS", "50"},
		"empty journal prefix": {"JOURNAL_NUMBER_PREFIX", ""},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := loadFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestMemorySequencesRejectedInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SEQUENCE_BACKEND", "Memory")
	_, err := loadFromEnv()
	assert.Error(t, err)

	t.Setenv("SEQUENCE_BACKEND", "redis")
	cfg, err := loadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestCustomMatchKeys(t *testing.T) {
	t.Setenv("VARIANCE_MATCH_DIMENSIONS", "Department, series")
	cfg, err := loadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []dimension.Key{dimension.Department, dimension.Series}, cfg.MatchKeys())
}

func TestJSONLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{AppEnv: "test", LogFormat: "json", LogLevel: "warn"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "test", rec["env"])
}
