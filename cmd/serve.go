package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"sjsage522/partsworker/logger"
	"sjsage522/partsworker/server"
	"sjsage522/partsworker/services/jobs"
	"sjsage522/partsworker/services/worker"
)

var servePort *string

func init() {
	servePort = serveCmd.Flags().String("port", "", "Port to listen on (defaults to PORT).")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--port <port>]",
	Short: "Runs the HTTP job API that scrapes in the background.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		port := *servePort
		if port == "" {
			port = cfg.Port
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		services, err := initializeServices(ctx, cfg, cfg.DBPath)
		if err != nil {
			return err
		}
		defer services.Cleanup()

		w := worker.NewWorker(services.ScraperFactory(cfg), cfg.JobTimeout, services.sinks()...)
		manager := jobs.NewManager(ctx, w)

		logger.ForServer().Info().
			Str("environment", cfg.Environment).
			Str("site", cfg.SiteBaseURL).
			Dur("job_timeout", cfg.JobTimeout).
			Msg("Starting application")

		return server.New(manager).ListenAndServe(ctx, port)
	},
}
