package main

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/veeresh/va-bot/internal/config"
	"github.com/veeresh/va-bot/internal/pipeline"
	"github.com/veeresh/va-bot/internal/server"
)

var (
	serveUseBrowser bool
	serveCronSpec   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the daily schedule",
	Long:  `Serve the trigger and approval endpoints and run the report pipeline on the daily schedule (10:00 in the configured timezone by default).`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveUseBrowser, "use-browser", false, "Render PDFs with a headless browser (requires Chrome)")
	serveCmd.Flags().StringVar(&serveCronSpec, "schedule", "0 10 * * *", "Cron expression for the daily report job")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg, serveUseBrowser)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	scheduler := cron.New(cron.WithLocation(loc))
	_, err = scheduler.AddFunc(serveCronSpec, func() {
		log.Printf("scheduled daily report starting")
		if _, err := p.Run(context.Background(), pipeline.Options{Parallel: true}); err != nil {
			log.Printf("scheduled daily report failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()
	log.Printf("scheduler started: daily report at %q (%s)", serveCronSpec, cfg.Timezone)

	srv, err := server.New(cfg, p)
	if err != nil {
		return err
	}
	return srv.Start()
}
