package crawler

import (
	"context"
	"iter"

	"sjsage522/partsworker/logger"
)

// Scraper runs (plate, part) searches against the site. Every Scraper owns
// its Client; create one per concurrent scrape and Close it afterwards.
type Scraper struct {
	client    *Client
	resolver  *Resolver
	navigator *Navigator
	extractor *Extractor
	log       *logger.Logger
}

// NewScraper creates a scraper with its own client
func NewScraper(opts ClientOptions, sel Selectors, maxPages int) (*Scraper, error) {
	client, err := NewClient(opts)
	if err != nil {
		return nil, err
	}

	return &Scraper{
		client:    client,
		resolver:  NewResolver(client, sel),
		navigator: NewNavigator(client, sel, maxPages),
		extractor: NewExtractor(sel, client.BaseURL()),
		log:       logger.ForCrawler(Provider),
	}, nil
}

// Close releases the scraper's connections
func (s *Scraper) Close() {
	s.client.Close()
}

// Scrape resolves the plate and prepares the part search. Plate problems are
// returned right away; listings are only fetched while ranging over Records.
func (s *Scraper) Scrape(ctx context.Context, plate, part string) (*Run, error) {
	ref, err := s.resolver.Resolve(ctx, plate)
	if err != nil {
		return nil, err
	}

	return &Run{
		Vehicle:   ref,
		Part:      part,
		walk:      s.navigator.Search(ctx, ref, part),
		extractor: s.extractor,
		client:    s.client,
		log:       s.log.WithFields(logger.Fields{"plate": ref.Plate, "part": part}),
	}, nil
}

// Stats counts what a run has processed so far
type Stats struct {
	Pages    int `json:"pages"`
	Listings int `json:"listings"`
	Records  int `json:"records"`
	Skipped  int `json:"skipped"`
	Requests int `json:"requests"`
}

// Run is one search in progress
type Run struct {
	Vehicle VehicleRef
	Part    string

	walk      *Walk
	extractor *Extractor
	client    *Client
	stats     Stats
	log       *logger.Logger
}

// Records yields the extracted records in page order, then document order.
// Listings that cannot be extracted are skipped and counted.
func (r *Run) Records() iter.Seq[PartRecord] {
	return func(yield func(PartRecord) bool) {
		for raw := range r.walk.Listings() {
			r.stats.Listings++

			record, ok := r.extractor.Extract(raw)
			if !ok {
				r.stats.Skipped++
				r.log.Debug().Int("page", raw.Page).Int("index", raw.Index).Msg("Skipping listing without title or link")
				continue
			}

			r.stats.Records++
			if !yield(record) {
				return
			}
		}

		r.log.Info().
			Bool("complete", r.walk.Complete()).
			Int("pages", r.walk.Pages()).
			Int("records", r.stats.Records).
			Int("skipped", r.stats.Skipped).
			Msg("Search finished")
	}
}

// Complete reports whether all result pages were walked
func (r *Run) Complete() bool {
	return r.walk.Complete()
}

// Err returns the error that aborted the search, if any
func (r *Run) Err() error {
	return r.walk.Err()
}

// Truncation returns why the search stopped early, if it did
func (r *Run) Truncation() error {
	return r.walk.Truncation()
}

// Stats returns the run's counters
func (r *Run) Stats() Stats {
	s := r.stats
	s.Pages = r.walk.Pages()
	s.Requests = r.client.Requests()
	return s
}
