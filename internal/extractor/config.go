package extractor

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures every configuration knob that influences an extraction
// run. All values originate from Viper so the engine can be configured via
// files, env vars, or CLI flags.
type Config struct {
	InputFile          string
	OutputFile         string
	ProgressFile       string
	ErrorLogFile       string
	CheckpointInterval int
	NavigationTimeout  time.Duration
	SSLProbeTimeout    time.Duration
	TaskDelay          time.Duration
	LogEvery           int
	UserAgent          string
	RemoteBrowserURL   string
	MaxPersistFailures int
	ReconnectAttempts  int
	ReconnectBaseDelay time.Duration
	ReconnectGrowth    float64
}

// LoadConfig constructs a Config by reading from Viper.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		InputFile:          v.GetString("extractor.input_file"),
		OutputFile:         v.GetString("extractor.output_file"),
		ProgressFile:       v.GetString("extractor.progress_file"),
		ErrorLogFile:       v.GetString("extractor.error_log_file"),
		CheckpointInterval: v.GetInt("extractor.checkpoint_interval"),
		NavigationTimeout:  v.GetDuration("extractor.navigation_timeout"),
		SSLProbeTimeout:    v.GetDuration("extractor.ssl_probe_timeout"),
		TaskDelay:          v.GetDuration("extractor.task_delay"),
		LogEvery:           v.GetInt("extractor.log_every"),
		UserAgent:          v.GetString("extractor.user_agent"),
		RemoteBrowserURL:   v.GetString("extractor.remote_browser_url"),
		MaxPersistFailures: v.GetInt("extractor.max_persist_failures"),
		ReconnectAttempts:  v.GetInt("extractor.reconnect_attempts"),
		ReconnectBaseDelay: v.GetDuration("extractor.reconnect_base_delay"),
		ReconnectGrowth:    v.GetFloat64("extractor.reconnect_growth"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("extractor.input_file must be set")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("extractor.output_file must be set")
	}
	if c.ProgressFile == "" {
		return fmt.Errorf("extractor.progress_file must be set")
	}
	if c.CheckpointInterval <= 0 {
		return fmt.Errorf("extractor.checkpoint_interval must be > 0")
	}
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("extractor.navigation_timeout must be > 0")
	}
	if c.SSLProbeTimeout <= 0 {
		return fmt.Errorf("extractor.ssl_probe_timeout must be > 0")
	}
	if c.TaskDelay < 0 {
		return fmt.Errorf("extractor.task_delay must be >= 0")
	}
	if c.LogEvery <= 0 {
		return fmt.Errorf("extractor.log_every must be > 0")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("extractor.user_agent must be set")
	}
	if c.MaxPersistFailures <= 0 {
		return fmt.Errorf("extractor.max_persist_failures must be > 0")
	}
	if c.ReconnectAttempts <= 0 {
		return fmt.Errorf("extractor.reconnect_attempts must be > 0")
	}
	if c.ReconnectBaseDelay <= 0 {
		return fmt.Errorf("extractor.reconnect_base_delay must be > 0")
	}
	if c.ReconnectGrowth < 1 {
		return fmt.Errorf("extractor.reconnect_growth must be >= 1")
	}
	return nil
}

// ReconnectPolicy derives the backoff policy from the configured knobs.
func (c Config) ReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts: c.ReconnectAttempts,
		BaseDelay:   c.ReconnectBaseDelay,
		Growth:      c.ReconnectGrowth,
		MaxDelay:    30 * time.Second,
	}
}
