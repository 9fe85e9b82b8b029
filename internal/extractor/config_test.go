package extractor

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.Set("extractor.input_file", "data/urls.csv")
	v.Set("extractor.output_file", "data/feature_dataset.csv")
	v.Set("extractor.progress_file", "data/extraction_progress.json")
	v.Set("extractor.error_log_file", "extraction_errors.log")
	v.Set("extractor.checkpoint_interval", 100)
	v.Set("extractor.navigation_timeout", "15s")
	v.Set("extractor.ssl_probe_timeout", "5s")
	v.Set("extractor.task_delay", "100ms")
	v.Set("extractor.log_every", 10)
	v.Set("extractor.user_agent", "test-agent")
	v.Set("extractor.max_persist_failures", 3)
	v.Set("extractor.reconnect_attempts", 3)
	v.Set("extractor.reconnect_base_delay", "5s")
	v.Set("extractor.reconnect_growth", 2.0)
	return v
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, "data/urls.csv", cfg.InputFile)
	assert.Equal(t, 100, cfg.CheckpointInterval)
	assert.Equal(t, 15*time.Second, cfg.NavigationTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.TaskDelay)
	assert.Equal(t, 3, cfg.ReconnectAttempts)
	assert.Equal(t, 2.0, cfg.ReconnectGrowth)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"missing input", "extractor.input_file", ""},
		{"missing output", "extractor.output_file", ""},
		{"missing progress", "extractor.progress_file", ""},
		{"zero interval", "extractor.checkpoint_interval", 0},
		{"zero navigation timeout", "extractor.navigation_timeout", "0s"},
		{"negative task delay", "extractor.task_delay", "-1s"},
		{"zero log cadence", "extractor.log_every", 0},
		{"empty user agent", "extractor.user_agent", ""},
		{"zero reconnect attempts", "extractor.reconnect_attempts", 0},
		{"shrinking backoff", "extractor.reconnect_growth", 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := newTestViper()
			v.Set(tc.key, tc.value)
			_, err := LoadConfig(v)
			assert.Error(t, err)
		})
	}
}

func TestConfigReconnectPolicy(t *testing.T) {
	cfg, err := LoadConfig(newTestViper())
	require.NoError(t, err)

	p := cfg.ReconnectPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 5*time.Second, p.BaseDelay)
	assert.Equal(t, 2.0, p.Growth)
	assert.Equal(t, 30*time.Second, p.MaxDelay)
}
