package crawler

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestClassifyDirect(t *testing.T) {
	doc := parseDoc(t, resultsPage(true, listingHTML(1, "Koplamp links", "€ 25,-"), listingHTML(2, "Koplamp rechts", "€ 30,-")))

	cls := Classify(doc, DefaultSelectors())
	assert.Equal(t, PageDirect, cls.Kind)
	assert.True(t, cls.HasNext())
	assert.Equal(t, PagerLink, cls.Next.Kind)
	assert.Equal(t, "/onderdeel/1/koplamp/", cls.FirstSource)
	require.Len(t, cls.Listings, 2)
	assert.Contains(t, cls.Listings[0], "Koplamp links")
	assert.Contains(t, cls.Listings[1], "Koplamp rechts")
}

func TestClassifyLastPage(t *testing.T) {
	doc := parseDoc(t, resultsPage(false, listingHTML(1, "Koplamp links", "€ 25,-")))

	cls := Classify(doc, DefaultSelectors())
	assert.Equal(t, PageDirect, cls.Kind)
	assert.False(t, cls.HasNext())
	assert.Equal(t, PagerNone, cls.Next.Kind)
}

func TestClassifyNextPageIndicators(t *testing.T) {
	testCases := []struct {
		name   string
		paging string
		kind   PagerKind
	}{
		{"rel next link", `<a rel="next" href="?page=2">Volgende</a>`, PagerLink},
		{"pagination next", `<ul class="pagination"><li class="next"><a href="?page=2">»</a></li></ul>`, PagerLink},
		{"enabled submit", `<input type="submit" value=">">`, PagerPostback},
		{"link wins over submit", `<input type="submit" value=">"><a rel="next" href="?page=2">Volgende</a>`, PagerLink},
		{"disabled submit", `<input type="submit" value=">" disabled="disabled">`, PagerNone},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := parseDoc(t, `<html><body><ul id="result-list"></ul>`+tc.paging+`</body></html>`)
			cls := Classify(doc, DefaultSelectors())
			assert.Equal(t, PageDirect, cls.Kind)
			assert.Empty(t, cls.Listings)
			assert.Equal(t, tc.kind, cls.Next.Kind)
			assert.Equal(t, tc.kind != PagerNone, cls.HasNext())
		})
	}
}

func TestClassifyPostbackForm(t *testing.T) {
	doc := parseDoc(t, postbackPage("p1", true, listingHTML(7, "Koplamp", "€ 10,-")))

	cls := Classify(doc, DefaultSelectors())
	require.Equal(t, PagerPostback, cls.Next.Kind)
	assert.Equal(t, "./", cls.Next.Action)
	assert.Equal(t, map[string]string{
		"__VIEWSTATE":          "p1",
		"__VIEWSTATEGENERATOR": "A1B2C3",
		"__EVENTVALIDATION":    "ev-p1",
		"m$mpc$next":           ">",
	}, cls.Next.Form)
	assert.Equal(t, "/onderdeel/7/koplamp/", cls.FirstSource)
}

func TestClassifyTotalPages(t *testing.T) {
	doc := parseDoc(t, `<html><body><ul id="result-list"></ul>
		<div class="paging">Pagina 2 van 7 <a rel="next" href="?page=3">Volgende</a></div></body></html>`)
	assert.Equal(t, 7, Classify(doc, DefaultSelectors()).TotalPages)

	doc = parseDoc(t, resultsPage(false))
	assert.Equal(t, 0, Classify(doc, DefaultSelectors()).TotalPages)
}

func TestClassifyCategory(t *testing.T) {
	doc := parseDoc(t, `<html><body><div class="search-results-list">
		<a href="/cat/koplamp-links/" title="Koplamp links"><span>Koplamp links</span></a>
		<a href="/cat/achterlicht/"><span> Achterlicht </span></a>
	</div></body></html>`)

	cls := Classify(doc, DefaultSelectors())
	assert.Equal(t, PageCategory, cls.Kind)
	assert.Equal(t, []CategoryLink{
		{Label: "Koplamp links", Href: "/cat/koplamp-links/"},
		{Label: "Achterlicht", Href: "/cat/achterlicht/"},
	}, cls.Categories)
}

func TestClassifyDirectWinsOverCategory(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<div class="search-results-list"><a href="/cat/1/">Koplamp</a></div>
		<ul id="result-list">`+listingHTML(1, "Koplamp", "€ 10,-")+`</ul>
	</body></html>`)

	assert.Equal(t, PageDirect, Classify(doc, DefaultSelectors()).Kind)
}

func TestClassifyUnknown(t *testing.T) {
	doc := parseDoc(t, `<html><body><h1>Onderhoud</h1></body></html>`)

	cls := Classify(doc, DefaultSelectors())
	assert.Equal(t, PageUnknown, cls.Kind)
	assert.Equal(t, "unknown", cls.Kind.String())
}

func TestMatchCategory(t *testing.T) {
	links := []CategoryLink{
		{Label: "Achterlicht", Href: "/onderdeel/achterlicht/"},
		{Label: "Koplamp links", Href: "/onderdeel/koplamp-links/"},
		{Label: "Koplamp rechts", Href: "/onderdeel/koplamp-rechts/"},
	}

	link, ok := MatchCategory(links, "KOPLAMP")
	assert.True(t, ok)
	assert.Equal(t, "/onderdeel/koplamp-links/", link.Href)

	link, ok = MatchCategory(links, "koplampen")
	assert.True(t, ok)
	assert.Equal(t, "/onderdeel/koplamp-links/", link.Href)

	link, ok = MatchCategory(links, "achterlichts")
	assert.True(t, ok)
	assert.Equal(t, "/onderdeel/achterlicht/", link.Href)

	_, ok = MatchCategory(links, "uitlaat")
	assert.False(t, ok)

	_, ok = MatchCategory(nil, "koplamp")
	assert.False(t, ok)
}

func TestMatchCategoryIgnoresNonPartLinks(t *testing.T) {
	links := []CategoryLink{
		{Label: "Koplamp tips", Href: "/info/koplamp-tips/"},
		{Label: "Koplamp (links)", Href: "/auto-onderdelen-voorraad/zoeken/kenteken/27xhvx/modeltype/12345/onderdeel/koplamp-links/"},
	}

	link, ok := MatchCategory(links, "koplamp")
	require.True(t, ok)
	assert.Equal(t, "Koplamp (links)", link.Label)

	_, ok = MatchCategory(links[:1], "koplamp")
	assert.False(t, ok)
}
