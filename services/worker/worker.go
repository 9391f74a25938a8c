package worker

import (
	"context"
	stderrors "errors"
	"time"

	"sjsage522/partsworker/internal/crawler"
	"sjsage522/partsworker/internal/export"
	"sjsage522/partsworker/logger"
	"sjsage522/partsworker/pkg/errors"
)

// Search is one (plate, part) request
type Search struct {
	Plate string `json:"license_plate"`
	Part  string `json:"part_name"`
}

// Result is everything a search produced, including partial results of
// searches that were truncated or timed out.
type Result struct {
	Search     Search               `json:"search"`
	Vehicle    crawler.VehicleRef   `json:"vehicle"`
	Records    []crawler.PartRecord `json:"records"`
	Complete   bool                 `json:"complete"`
	Truncation string               `json:"truncation,omitempty"`
	Stats      crawler.Stats        `json:"stats"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
}

// Document groups the result's records by category for JSON export
func (r *Result) Document() *export.Document {
	doc := export.NewDocument(r.Vehicle, r.Search.Part, r.StartedAt)
	doc.SearchInfo.Complete = r.Complete
	for _, record := range r.Records {
		doc.Add(record)
	}
	return doc
}

// Sink consumes the result of a finished search
type Sink interface {
	Name() string
	Consume(ctx context.Context, result *Result) error
}

// ScraperFactory creates a scraper for a single search
type ScraperFactory func() (*crawler.Scraper, error)

// Worker runs searches and hands their results to the sinks
type Worker struct {
	newScraper ScraperFactory
	sinks      []Sink
	timeout    time.Duration
	now        func() time.Time
	log        *logger.Logger
}

// NewWorker creates a new worker; a zero timeout means no deadline
func NewWorker(newScraper ScraperFactory, timeout time.Duration, sinks ...Sink) *Worker {
	return &Worker{
		newScraper: newScraper,
		sinks:      sinks,
		timeout:    timeout,
		now:        time.Now,
		log:        logger.ForWorker(),
	}
}

// Run scrapes one search with a fresh scraper. The returned result holds
// whatever was gathered even when an error is returned, unless the plate
// could not be resolved.
func (w *Worker) Run(ctx context.Context, search Search) (*Result, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	log := w.log.WithFields(logger.Fields{"plate": search.Plate, "part": search.Part})

	scraper, err := w.newScraper()
	if err != nil {
		return nil, err
	}
	defer scraper.Close()

	result := &Result{Search: search, StartedAt: w.now()}

	run, err := scraper.Scrape(ctx, search.Plate, search.Part)
	if err != nil {
		log.Warn().Err(err).Msg("Search aborted")
		return nil, err
	}
	result.Vehicle = run.Vehicle
	result.Search.Plate = run.Vehicle.Plate

	for record := range run.Records() {
		result.Records = append(result.Records, record)
	}

	result.Complete = run.Complete()
	result.Stats = run.Stats()
	result.FinishedAt = w.now()
	if truncation := run.Truncation(); truncation != nil {
		result.Truncation = truncation.Error()
	}

	runErr := run.Err()
	if runErr != nil && stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		runErr = errors.NewNetwork(crawler.Provider, "search timed out after "+w.timeout.String(), runErr)
	}

	// Sinks keep partial results too, so they must outlive the search deadline
	sinkCtx := context.WithoutCancel(ctx)
	for _, sink := range w.sinks {
		if err := sink.Consume(sinkCtx, result); err != nil {
			log.Error().Err(err).Str("sink", sink.Name()).Msg("Sink failed")
		}
	}

	event := log.Info()
	if runErr != nil {
		event = log.Warn().Err(runErr)
	}
	event.
		Bool("complete", result.Complete).
		Int("records", len(result.Records)).
		Int("requests", result.Stats.Requests).
		Dur("took", result.FinishedAt.Sub(result.StartedAt)).
		Msg("Search finished")

	return result, runErr
}
