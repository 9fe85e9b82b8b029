// Package cmd defines and implements the CLI commands for the phishfeatures
// executable.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/zoror2/Final-repo-Bhargav-Phishin-project/internal/logging"
	"github.com/zoror2/Final-repo-Bhargav-Phishin-project/pkg/config"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phishfeatures",
		Short: "Resumable feature extraction for phishing-detection datasets.",
		Long: `phishfeatures drives a single headless-browser session over a large,
ordered URL dataset and extracts a fixed 26-field feature vector per URL.
It checkpoints progress so a crashed or interrupted run resumes where it
left off without losing completed work.`,
	}

	cobra.OnInitialize(func() {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		}
		config.InitConfig()
	})

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newProgressCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	logging.InitLogger()

	if err := newRootCmd().Execute(); err != nil {
		logging.L.Fatal("Command execution failed", zap.Error(err))
	}
}
