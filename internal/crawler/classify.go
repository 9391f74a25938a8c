package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"sjsage522/partsworker/helpers"
)

// Classify decides whether a search response carries listings (PageDirect),
// only subcategory links (PageCategory) or neither (PageUnknown).
func Classify(doc *goquery.Document, sel Selectors) Classification {
	next := findPager(doc, sel)

	if list := doc.Find(sel.ResultList); list.Length() > 0 {
		cls := Classification{
			Kind:       PageDirect,
			Next:       next,
			TotalPages: ParsePageCount(helpers.CollapseSpace(doc.Find(sel.PagerInfo).First().Text())),
		}
		list.Find(sel.Listing).Each(func(i int, s *goquery.Selection) {
			html, err := goquery.OuterHtml(s)
			if err != nil {
				return
			}
			if i == 0 {
				cls.FirstSource = sourceHref(s, sel.Link)
			}
			cls.Listings = append(cls.Listings, html)
		})
		return cls
	}

	if container := doc.Find(sel.CategoryList); container.Length() > 0 {
		var links []CategoryLink
		container.Find(sel.CategoryLink).Each(func(_ int, s *goquery.Selection) {
			label := strings.TrimSpace(s.AttrOr("title", ""))
			if label == "" {
				label = helpers.CollapseSpace(s.Text())
			}
			links = append(links, CategoryLink{Label: label, Href: s.AttrOr("href", "")})
		})
		return Classification{Kind: PageCategory, Categories: links}
	}

	return Classification{Kind: PageUnknown, Next: next}
}

// findPager prefers an explicit next link over the ASP.NET ">" button
func findPager(doc *goquery.Document, sel Selectors) Pager {
	if doc.Find(sel.NextLink).Length() > 0 {
		return Pager{Kind: PagerLink}
	}

	button := doc.Find(sel.NextButton).First()
	if button.Length() == 0 {
		return Pager{}
	}

	form := button.Closest("form")
	if form.Length() == 0 {
		form = doc.Find("form").First()
	}
	scope := form
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	fields := make(map[string]string)
	scope.Find("input[name]").Each(func(_ int, s *goquery.Selection) {
		switch strings.ToLower(s.AttrOr("type", "text")) {
		case "submit", "button", "image", "reset", "file":
			return
		case "checkbox", "radio":
			if _, checked := s.Attr("checked"); !checked {
				return
			}
		}
		fields[s.AttrOr("name", "")] = s.AttrOr("value", "")
	})
	if name := button.AttrOr("name", ""); name != "" {
		fields[name] = button.AttrOr("value", ">")
	}

	return Pager{Kind: PagerPostback, Action: form.AttrOr("action", ""), Form: fields}
}

// sourceHref prefers the onclick navigation target of a listing over its first link
func sourceHref(item *goquery.Selection, linkSel string) string {
	if onclick := item.AttrOr("onclick", ""); onclick != "" {
		if href := helpers.QuotedSegment(onclick); href != "" {
			return href
		}
	}
	return item.Find(linkSel).First().AttrOr("href", "")
}

// MatchCategory picks the first part category link whose label contains the
// query, retrying with Dutch stems of the query when nothing matches. Links
// that do not lead to a part page ("onderdeel" in the href) are ignored.
func MatchCategory(links []CategoryLink, query string) (CategoryLink, bool) {
	for _, stem := range queryStems(query) {
		for _, link := range links {
			if !strings.Contains(strings.ToLower(link.Href), "onderdeel") {
				continue
			}
			if strings.Contains(strings.ToLower(link.Label), stem) {
				return link, true
			}
		}
	}
	return CategoryLink{}, false
}
