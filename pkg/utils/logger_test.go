package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "payroll.log")

	logger, err := NewLogger(LoggerConfig{Level: "debug", OutputPath: path, Format: "json"})
	require.NoError(t, err)
	logger.Info("run created", zap.Int64("run_id", 1))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"run created"`)
	assert.Contains(t, string(data), `"run_id":1`)
}

func TestNewLogger_BadLevelFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "loud", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
}

func TestKVLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	kv := NewKVLogger(zap.New(core))

	kv.Info("Salary run transitioned", "run_id", int64(3), "to", "PREPARED")
	kv.Error("Failed to record run history", "error", "disk full")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Salary run transitioned", entries[0].Message)
	assert.Equal(t, "PREPARED", entries[0].ContextMap()["to"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)

	// nil logger is a no-op
	NewKVLogger(nil).Info("ignored")
}
