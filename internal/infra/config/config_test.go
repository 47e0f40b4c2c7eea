package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "pose.smoothing", cfg.RabbitMQSmoothingQueue)
	assert.Equal(t, "fiapx.pose", cfg.RabbitMQExchange)
	assert.Equal(t, 7, cfg.SmoothWindow)
	assert.True(t, cfg.SmoothInferLegs)
	assert.Equal(t, "json", cfg.ResultFormat)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SMOOTH_WINDOW", "5")
	t.Setenv("SMOOTH_INFER_LEGS", "false")
	t.Setenv("RESULT_FORMAT", "msgpack")
	t.Setenv("WORKER_COUNT", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.SmoothWindow)
	assert.False(t, cfg.SmoothInferLegs)
	assert.Equal(t, "msgpack", cfg.ResultFormat)
	assert.Equal(t, 8, cfg.WorkerCount)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"SMOOTH_WINDOW":       "4",
		"SMOOTH_PERSON_INDEX": "-1",
		"RESULT_FORMAT":       "xml",
		"WORKER_COUNT":        "many",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
