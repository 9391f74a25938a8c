package crawler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"sjsage522/partsworker/services/cache"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	mu    sync.Mutex
	cache map[string][]byte
	sets  []string
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
	m.sets = append(m.sets, key)
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

var _ cache.CacheService = (*MockCacheService)(nil)

const (
	testPlatePath  = "/auto-onderdelen-voorraad/zoeken/kenteken/27xhvx/"
	testVehicleURL = "/auto-onderdelen-voorraad/zoeken/kenteken/27xhvx/modeltype/12345/"
)

type fakePage struct {
	status   int
	body     string
	failures int // answer 500 for this many requests first
}

// fakeSite serves canned pages keyed by path plus query and records every request
type fakeSite struct {
	mu       sync.Mutex
	pages    map[string]*fakePage
	requests []string
	server   *httptest.Server
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()
	site := &fakeSite{pages: make(map[string]*fakePage)}
	site.server = httptest.NewServer(http.HandlerFunc(site.serve))
	t.Cleanup(site.server.Close)
	return site
}

func (s *fakeSite) serve(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}

	s.mu.Lock()
	s.requests = append(s.requests, key)
	page, ok := s.pages[key]
	failing := ok && page.failures > 0
	if failing {
		page.failures--
	}
	s.mu.Unlock()

	switch {
	case !ok:
		http.NotFound(w, r)
	case failing:
		w.WriteHeader(http.StatusInternalServerError)
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		status := page.status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		fmt.Fprint(w, page.body)
	}
}

func (s *fakeSite) handle(key, body string) *fakePage {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := &fakePage{body: body}
	s.pages[key] = page
	return page
}

func (s *fakeSite) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *fakeSite) options() ClientOptions {
	return ClientOptions{
		BaseURL:       s.server.URL,
		Timeout:       2 * time.Second,
		RetryAttempts: 1,
		RetryBackoff:  time.Millisecond,
	}
}

func (s *fakeSite) vehicleRef() VehicleRef {
	return VehicleRef{
		Plate:       "27XHVX",
		ModelType:   "12345",
		Description: "Peugeot 206 1.4",
		URL:         s.server.URL + testVehicleURL,
	}
}

func searchKey(slug string, page int) string {
	key := testVehicleURL + "onderdeel/" + slug + "/"
	if page > 1 {
		key += fmt.Sprintf("?page=%d", page)
	}
	return key
}

func lookupPage(modelType, name string) string {
	return `<html><body>
		<form id="aspnetForm"><input type="text" name="m$mpc$objlicenseplate" value="27XHVX"></form>
		<div class="result-item" data-type="` + modelType + `"><span>` + name + `</span><a href="#">Kies</a></div>
	</body></html>`
}

func emptyLookupPage() string {
	return `<html><body><form id="aspnetForm"><input type="text" name="m$mpc$objlicenseplate"></form>
		<p>Geen voertuig gevonden</p></body></html>`
}

func listingHTML(id int, title, price string) string {
	return fmt.Sprintf(`<li class="shoppingcart" onclick="window.location.href='/onderdeel/%d/koplamp/'">
		<div class="thumbnail"><img src="/images/%d.jpg"></div>
		<div class="description"><span class="bold">%s</span>
			<span class="item"><span>Bouwjaar:</span><span>2005</span></span>
			<span class="item"><span>Motorcode:</span><span>KFW</span></span>
			<span class="item"><span>Tellerstand:</span><span>123.456 km</span></span>
		</div>
		<div class="pricing"><span class="price">%s</span><span class="block">Autodemontage Jansen</span><span>Garantie 3 mnd</span></div>
	</li>`, id, id, title, price)
}

func resultsPage(hasNext bool, listings ...string) string {
	next := `<input type="submit" name="m$mpc$next" value=">" disabled="disabled">`
	if hasNext {
		next = `<a rel="next" href="#volgende">&gt;</a>`
	}
	return `<html><body><ul id="result-list">` + strings.Join(listings, "\n") + `</ul>
		<div class="paging">` + next + `</div></body></html>`
}

// postbackPage renders a results page whose only pager is the ASP.NET ">" button
func postbackPage(state string, hasNext bool, listings ...string) string {
	next := `<input type="submit" name="m$mpc$next" value=">" disabled="disabled">`
	if hasNext {
		next = `<input type="submit" name="m$mpc$next" value=">">`
	}
	return `<html><body><form id="aspnetForm" method="post" action="./">
		<input type="hidden" name="__VIEWSTATE" value="` + state + `">
		<input type="hidden" name="__VIEWSTATEGENERATOR" value="A1B2C3">
		<input type="hidden" name="__EVENTVALIDATION" value="ev-` + state + `">
		<input type="checkbox" name="m$mpc$stock">
		<ul id="result-list">` + strings.Join(listings, "\n") + `</ul>
		<div class="paging"><input type="submit" name="m$mpc$prev" value="<">` + next + `</div>
	</form></body></html>`
}

func categoryPage(links map[string]string, order ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="search-results-list">`)
	for _, label := range order {
		fmt.Fprintf(&b, `<a href="%s" title="%s"><span>%s</span></a>`, links[label], label, label)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}
