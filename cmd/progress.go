package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zoror2/Final-repo-Bhargav-Phishin-project/internal/checkpoint"
	"github.com/zoror2/Final-repo-Bhargav-Phishin-project/internal/extractor"
	"github.com/zoror2/Final-repo-Bhargav-Phishin-project/internal/sink"
)

// newProgressCmd creates the 'progress' subcommand, an offline monitor that
// reports the current state of a running or paused extraction.
func newProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show extraction progress from the checkpoint and output files",
		RunE:  runProgressCommand,
	}
	return cmd
}

func runProgressCommand(*cobra.Command, []string) error {
	cfg, err := extractor.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load extractor config: %w", err)
	}

	cp, found, err := checkpoint.NewStore(cfg.ProgressFile).Load()
	if err != nil {
		return fmt.Errorf("read checkpoint: %w", err)
	}

	fmt.Println("EXTRACTION PROGRESS")
	fmt.Printf("Checked at: %s\n\n", time.Now().Format(time.RFC3339))

	if !found {
		fmt.Printf("No checkpoint at %s - extraction not started or no checkpoint yet\n", cfg.ProgressFile)
	} else {
		fmt.Printf("Checkpoint:          %s\n", cfg.ProgressFile)
		fmt.Printf("Run ID:              %s\n", cp.RunID)
		fmt.Printf("Last index:          %d\n", cp.LastProcessedIndex)
		fmt.Printf("Total processed:     %d\n", cp.TotalProcessed)
		fmt.Printf("Successful:          %d\n", cp.Successful)
		fmt.Printf("Failed:              %d\n", cp.Failed)
		fmt.Printf("SSL valid:           %d\n", cp.SSLValid)
		fmt.Printf("SSL invalid:         %d\n", cp.SSLInvalid)
		fmt.Printf("Timeout errors:      %d\n", cp.TimeoutErrors)
		fmt.Printf("WebDriver errors:    %d\n", cp.WebDriverErrors)
		fmt.Printf("Last update:         %s\n", cp.Timestamp.Format(time.RFC3339))
		fmt.Printf("Elapsed:             %s\n", (time.Duration(cp.ElapsedSeconds) * time.Second).String())
		if cp.TotalProcessed > 0 {
			fmt.Printf("Success rate:        %.2f%%\n", float64(cp.Successful)/float64(cp.TotalProcessed)*100)
		}
	}

	fmt.Println()
	rows, err := sink.NewCSVSink(cfg.OutputFile, nil).CountRows()
	if err != nil {
		return fmt.Errorf("read output: %w", err)
	}
	info, statErr := os.Stat(cfg.OutputFile)
	if statErr != nil {
		fmt.Printf("No output file at %s yet\n", cfg.OutputFile)
		return nil
	}
	fmt.Printf("Output file:         %s\n", cfg.OutputFile)
	fmt.Printf("Rows written:        %d\n", rows)
	fmt.Printf("File size:           %.2f MB\n", float64(info.Size())/(1024*1024))
	return nil
}
