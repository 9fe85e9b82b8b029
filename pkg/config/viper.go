// Package config is responsible for initializing the application's
// configuration. It uses the Viper library to read settings from a config
// file, environment variables, and command-line flags, providing a unified
// configuration system.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/zoror2/Final-repo-Bhargav-Phishin-project/internal/logging"
)

// InitConfig initializes the application's configuration using Viper. It is
// designed to be called once at startup so configuration is available to all
// other packages.
func InitConfig() {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/phishfeatures/")
	viper.AddConfigPath("$HOME/.phishfeatures")

	const defaultUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	viper.SetDefault("extractor.input_file", "data/urls.csv")
	viper.SetDefault("extractor.output_file", "data/feature_dataset.csv")
	viper.SetDefault("extractor.progress_file", "data/extraction_progress.json")
	viper.SetDefault("extractor.error_log_file", "extraction_errors.log")
	viper.SetDefault("extractor.checkpoint_interval", 100)
	viper.SetDefault("extractor.navigation_timeout", "15s")
	viper.SetDefault("extractor.ssl_probe_timeout", "5s")
	viper.SetDefault("extractor.task_delay", "100ms")
	viper.SetDefault("extractor.log_every", 10)
	viper.SetDefault("extractor.user_agent", defaultUA)
	viper.SetDefault("extractor.remote_browser_url", "")
	viper.SetDefault("extractor.max_persist_failures", 3)
	viper.SetDefault("extractor.reconnect_attempts", 3)
	viper.SetDefault("extractor.reconnect_base_delay", "5s")
	viper.SetDefault("extractor.reconnect_growth", 2.0)

	viper.SetDefault("logging.development", false)

	viper.SetEnvPrefix("EXTRACTOR") // e.g., EXTRACTOR_EXTRACTOR_INPUT_FILE
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logging.L.Warn("Config file not found; using defaults and environment variables.")
		} else {
			logging.L.Error("Error reading config file", zap.Error(err))
		}
	} else {
		logging.L.Info("Using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}
