package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veeresh/va-bot/internal/config"
	"github.com/veeresh/va-bot/internal/pipeline"
)

var (
	runSequential bool
	runUseBrowser bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one daily report cycle",
	Long:  `Run every connector task, build and encrypt the daily report, and dispatch the approval request. The process stays alive until the approval window resolves.`,
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runSequential, "sequential", false, "Run tasks one after another instead of concurrently")
	runCmd.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Render the PDF with a headless browser (requires Chrome)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg, runUseBrowser)
	if err != nil {
		return err
	}

	outcome, err := p.Run(cmd.Context(), pipeline.Options{Parallel: !runSequential})
	if err != nil {
		return err
	}

	fmt.Printf("Report %s generated (total %.2f INR). Waiting out the approval window...\n", outcome.ReportID, outcome.Total)

	// A one-shot run must outlive its own deadline timer, otherwise the
	// auto-resume path can never fire.
	waitForResolution(p, outcome.ReportID, cfg.ApprovalWindow)
	return nil
}
