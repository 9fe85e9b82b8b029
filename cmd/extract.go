package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/zoror2/Final-repo-Bhargav-Phishin-project/internal/checkpoint"
	"github.com/zoror2/Final-repo-Bhargav-Phishin-project/internal/clock/system"
	"github.com/zoror2/Final-repo-Bhargav-Phishin-project/internal/extractor"
	"github.com/zoror2/Final-repo-Bhargav-Phishin-project/internal/input"
	"github.com/zoror2/Final-repo-Bhargav-Phishin-project/internal/logging"
	"github.com/zoror2/Final-repo-Bhargav-Phishin-project/internal/sink"
)

// newExtractCmd creates the 'extract' subcommand, which runs the resumable
// extraction engine until the input is exhausted or the run is interrupted.
func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run the resumable feature extraction engine",
		Long: `Processes every URL in the configured input file sequentially through a
single headless-browser session, appending one 26-field feature row per URL
to the output CSV and checkpointing progress at a fixed interval. A previous
checkpoint, when present, is resumed from automatically. SIGINT/SIGTERM stop
the run cooperatively after the in-flight task and a final checkpoint.`,

		RunE: runExtractCommand,
	}
	return cmd
}

func runExtractCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := extractor.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load extractor config: %w", err)
	}

	logger, err := logging.New(viper.GetBool("logging.development"))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	errorLog, err := logging.NewErrorFile(cfg.ErrorLogFile)
	if err != nil {
		return fmt.Errorf("build error log: %w", err)
	}
	defer func() { _ = errorLog.Sync() }()

	engine := buildEngine(cfg, logger, errorLog)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reason, err := engine.Run(ctx)
	switch reason {
	case extractor.TerminationDone:
		logger.Info("extraction complete; dataset ready")
	case extractor.TerminationInterrupted:
		logger.Warn("extraction interrupted; progress saved, rerun to resume")
	case extractor.TerminationFatal:
		return fmt.Errorf("extraction failed: %w", err)
	}
	return nil
}

func buildEngine(cfg extractor.Config, logger, errorLog *zap.Logger) *extractor.Engine {
	source := input.NewCSVSource(cfg.InputFile)
	store := checkpoint.NewStore(cfg.ProgressFile)
	resultSink := sink.NewCSVSink(cfg.OutputFile, logger)
	probe := extractor.NewSSLProbe(cfg.SSLProbeTimeout)
	featureExtractor := extractor.NewExtractor(probe, cfg.NavigationTimeout, logger)

	sessions := func(ctx context.Context) (extractor.Session, error) {
		return extractor.NewChromedpSession(ctx, extractor.ChromedpOptions{
			UserAgent:          cfg.UserAgent,
			RemoteAllocatorURL: cfg.RemoteBrowserURL,
			OpTimeout:          10 * time.Second,
		}, logger)
	}

	return extractor.NewEngine(
		cfg,
		source,
		store,
		resultSink,
		sessions,
		featureExtractor,
		system.New(),
		logger,
		errorLog,
	)
}
