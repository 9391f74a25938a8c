package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"sjsage522/partsworker/helpers"
)

// Extractor turns listing fragments into PartRecords without any I/O
type Extractor struct {
	sel  Selectors
	base *url.URL
}

// NewExtractor creates an extractor; base resolves relative links of
// fragments whose page URL is unknown.
func NewExtractor(sel Selectors, base *url.URL) *Extractor {
	return &Extractor{sel: sel, base: base}
}

// Extract parses one listing. It returns false when the listing has no
// resolvable source URL, and also for listings without a title.
func (e *Extractor) Extract(raw RawListing) (PartRecord, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw.HTML))
	if err != nil {
		return PartRecord{}, false
	}

	item := doc.Find(e.sel.Listing).First()
	if item.Length() == 0 {
		item = doc.Find("body").Children().First()
	}

	base := e.base
	if u, err := url.Parse(raw.PageURL); err == nil && u.IsAbs() {
		base = u
	}

	title := helpers.CollapseSpace(item.Find(e.sel.Title).First().Text())
	if title == "" {
		return PartRecord{}, false
	}

	sourceURL, ok := absoluteURL(base, sourceHref(item, e.sel.Link))
	if !ok {
		return PartRecord{}, false
	}

	specs := e.specs(item)

	record := PartRecord{
		Title:     title,
		Price:     ParsePrice(item.Find(e.sel.Price).First().Text()),
		Supplier:  helpers.CollapseSpace(item.Find(e.sel.Supplier).First().Text()),
		SourceURL: sourceURL,
		Category:  raw.Category,
	}

	// Condition from the spec list, otherwise from the title ("Gebruikte koplamp")
	conditionText := title
	for _, key := range []string{"conditie", "staat"} {
		if v := specs[key]; v != "" {
			conditionText = v
			break
		}
	}
	record.Condition = MapCondition(conditionText)

	record.WarrantyMonths = ParseWarranty(helpers.CollapseSpace(item.Find(e.sel.Pricing).Text()))
	if record.WarrantyMonths == nil && specs["garantie"] != "" {
		record.WarrantyMonths = ParseLeadingInt(specs["garantie"])
	}

	record.BuildYear = ParseLeadingInt(specs["bouwjaar"])
	record.MileageKm = ParseLeadingInt(specs["tellerstand"])
	if code := specs["motorcode"]; code != "" {
		record.EngineCode = &code
	}

	img := item.Find(e.sel.Thumbnail).First()
	for _, attr := range []string{"src", "data-src"} {
		if src, ok := absoluteURL(base, img.AttrOr(attr, "")); ok {
			record.ImageURL = src
			break
		}
	}

	return record, true
}

// specs reads the "key: value" spec items, keyed by lower-case label without colon
func (e *Extractor) specs(item *goquery.Selection) map[string]string {
	specs := make(map[string]string)
	item.Find(e.sel.SpecItem).Each(func(_ int, s *goquery.Selection) {
		spans := s.ChildrenFiltered("span")
		if spans.Length() < 2 {
			return
		}
		key := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(helpers.CollapseSpace(spans.Eq(0).Text()), ":")))
		value := helpers.CollapseSpace(spans.Eq(1).Text())
		if key != "" && value != "" {
			specs[key] = value
		}
	})
	return specs
}
