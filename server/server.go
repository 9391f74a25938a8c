package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"sjsage522/partsworker/logger"
	"sjsage522/partsworker/services/jobs"
)

// ServiceName is reported by the health endpoint
const ServiceName = "onderdelenlijn-scraper"

// Server exposes the job API
type Server struct {
	jobs *jobs.Manager
	log  *logger.Logger
}

// New creates a job API server backed by manager
func New(manager *jobs.Manager) *Server {
	return &Server{
		jobs: manager,
		log:  logger.ForServer(),
	}
}

// Handler returns the routed handler with recovery and request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /scrape", s.handleScrape)
	mux.HandleFunc("GET /status/{id}", s.handleStatus)
	mux.HandleFunc("GET /results/{id}", s.handleResults)
	mux.HandleFunc("GET /health", handleHealth)

	return Chain(mux,
		Recover(s.log),
		RequestLogger(s.log),
	)
}

// ListenAndServe serves on port until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("port", port).Msg("Job API starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.log.Info().Msg("Shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return err
	}
	return s.jobs.Shutdown(shutCtx)
}
