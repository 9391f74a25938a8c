package crawler

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"sjsage522/partsworker/logger"
	"sjsage522/partsworker/pkg/errors"
)

// DefaultMaxPages stops runaway pagination
const DefaultMaxPages = 50

// Navigator walks the result pages of a part search
type Navigator struct {
	client   *Client
	sel      Selectors
	maxPages int
	log      *logger.Logger
}

// NewNavigator creates a navigator; maxPages <= 0 means DefaultMaxPages
func NewNavigator(client *Client, sel Selectors, maxPages int) *Navigator {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Navigator{
		client:   client,
		sel:      sel,
		maxPages: maxPages,
		log:      logger.ForCrawler(Provider),
	}
}

// Walk is a single pass over the result pages of one search.
// Pages are requested only while the consumer keeps ranging over Listings.
type Walk struct {
	nav   *Navigator
	ctx   context.Context
	ref   VehicleRef
	query string

	started    bool
	complete   bool
	pages      int
	err        error
	truncation error
}

// Search prepares a walk over all listings for query on the vehicle's pages.
// Nothing is requested until Listings is ranged over.
func (n *Navigator) Search(ctx context.Context, ref VehicleRef, query string) *Walk {
	return &Walk{nav: n, ctx: ctx, ref: ref, query: query}
}

// Listings yields listing fragments in page order, then document order.
// A walk can be ranged over once; later calls yield nothing.
func (w *Walk) Listings() iter.Seq[RawListing] {
	return func(yield func(RawListing) bool) {
		if w.started {
			return
		}
		w.started = true
		w.walk(yield)
	}
}

// Complete reports whether every result page was walked
func (w *Walk) Complete() bool {
	return w.complete
}

// Err returns the error that aborted the walk, if any
func (w *Walk) Err() error {
	return w.err
}

// Truncation returns why the walk stopped before the last page, if it did
func (w *Walk) Truncation() error {
	return w.truncation
}

// Pages returns the number of result pages walked
func (w *Walk) Pages() int {
	return w.pages
}

func (w *Walk) walk(yield func(RawListing) bool) {
	n := w.nav
	log := n.log.WithFields(logger.Fields{"plate": w.ref.Plate, "part": w.query})

	slug := PartSlug(w.query)
	if slug == "" {
		w.err = errors.NewValidation(Provider, "part query is empty")
		return
	}

	pc := PageContext{
		Page:     1,
		URL:      strings.TrimSuffix(w.ref.URL, "/") + "/onderdeel/" + slug + "/",
		Category: DirectResultsLabel,
	}

	page, err := n.client.Fetch(w.ctx, pc.URL)
	if err != nil {
		w.stop(pc, err)
		return
	}

	cls := Classify(page.Doc, n.sel)
	switch cls.Kind {
	case PageUnknown:
		w.err = errors.NewUnexpectedFormat(Provider, "search page has neither listings nor categories: "+pc.URL, nil)
		return

	case PageCategory:
		link, ok := MatchCategory(cls.Categories, w.query)
		if !ok {
			log.Info().Int("categories", len(cls.Categories)).Msg("No category matches the part query")
			w.complete = true
			return
		}

		target, ok := absoluteURL(page.URL, link.Href)
		if !ok {
			w.err = errors.NewUnexpectedFormat(Provider, fmt.Sprintf("category %q has no usable link", link.Label), nil)
			return
		}
		log.Info().Str("category", link.Label).Str("url", target).Msg("Entering category")

		pc = PageContext{Page: 1, URL: target, Category: link.Label}
		if page, err = n.client.Fetch(w.ctx, pc.URL); err != nil {
			w.stop(pc, err)
			return
		}

		if cls = Classify(page.Doc, n.sel); cls.Kind != PageDirect {
			w.err = errors.NewUnexpectedFormat(Provider, "category page has no listings container: "+pc.URL, nil)
			return
		}
	}

	// Link pagination requests the working page with page=N
	working := pc.URL
	var prevFirst string

	for {
		if pc.Page > 1 && cls.FirstSource != "" && cls.FirstSource == prevFirst {
			w.truncation = fmt.Errorf("page %d repeats page %d", pc.Page, pc.Page-1)
			log.Warn().Int("page", pc.Page).Str("url", pc.URL).Msg("Result page repeats the previous one, results truncated")
			return
		}
		prevFirst = cls.FirstSource

		if cls.TotalPages > 0 {
			pc.TotalPages = cls.TotalPages
		}

		w.pages++
		log.Debug().
			Int("page", pc.Page).
			Int("total_pages", pc.TotalPages).
			Int("listings", len(cls.Listings)).
			Msg("Walking result page")

		for i, html := range cls.Listings {
			raw := RawListing{
				HTML:     html,
				PageURL:  page.URL.String(),
				Page:     pc.Page,
				Index:    i,
				Category: pc.Category,
			}
			if !yield(raw) {
				return
			}
		}

		if !cls.HasNext() {
			w.complete = true
			return
		}

		if pc.Page >= n.maxPages {
			w.truncation = fmt.Errorf("page limit of %d reached", n.maxPages)
			log.Warn().Int("max_pages", n.maxPages).Msg("Page limit reached, results truncated")
			return
		}

		pc.Page++
		if cls.Next.Kind == PagerPostback {
			pc.URL = page.URL.String()
			if action, ok := absoluteURL(page.URL, cls.Next.Action); ok {
				pc.URL = action
			}
			page, err = n.client.PostForm(w.ctx, pc.URL, cls.Next.Form)
		} else {
			pc.URL = withPage(working, pc.Page)
			page, err = n.client.Fetch(w.ctx, pc.URL)
		}
		if err != nil {
			w.stop(pc, err)
			return
		}

		cls = Classify(page.Doc, n.sel)
		if cls.Kind != PageDirect {
			// A later page without a listing container holds no listings
			cls.Listings = nil
		}
	}
}

// stop ends the walk after a failed request. Cancellation and pages the
// parser does not understand abort; anything else truncates the walk and
// keeps what has been yielded.
func (w *Walk) stop(pc PageContext, err error) {
	if w.ctx.Err() != nil || errors.IsUnexpectedFormat(err) {
		w.err = err
		return
	}

	w.truncation = fmt.Errorf("page %d: %w", pc.Page, err)
	w.nav.log.Warn().
		Err(err).
		Int("page", pc.Page).
		Str("url", pc.URL).
		Msg("Request failed, results truncated")
}

func withPage(rawURL string, page int) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
