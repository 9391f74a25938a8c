package crawler

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"sjsage522/partsworker/pkg/errors"
)

var (
	// 1.234,56 | 1234,56 | 25,- | 1234.56 | 1.234
	priceRegex = regexp.MustCompile(`(\d{1,3}(?:\.\d{3})+|\d+)(?:([.,])(\d{1,2}|-+))?`)

	// Leading digit run, dots allowed as thousands separators
	intRegex = regexp.MustCompile(`\d+(?:\.\d{3})*`)

	warrantyRegex = regexp.MustCompile(`(?i)garantie\s*:?\s*(\d+)\s*(?:mnd|maand|maanden)`)

	// Pagina 2 van 7 | Page 2 of 7 | 2 / 7
	pageCountRegex = regexp.MustCompile(`(?i)(?:pagina|page)?\s*\d+\s*(?:van|of|/)\s*(\d+)`)
)

// NormalizePlate strips dashes and whitespace and upper-cases the plate
func NormalizePlate(plate string) (string, error) {
	var b strings.Builder
	for _, r := range plate {
		if r == '-' || unicode.IsSpace(r) {
			continue
		}
		if !(r >= '0' && r <= '9') && !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') {
			return "", errors.NewValidation(Provider, "license plate contains invalid character "+strconv.QuoteRune(r))
		}
		b.WriteRune(unicode.ToUpper(r))
	}

	if b.Len() == 0 {
		return "", errors.NewValidation(Provider, "license plate is empty")
	}
	return b.String(), nil
}

// PartSlug turns a free-text part query into the path segment the site uses, e.g. "Koplamp rechts" -> "koplamp-rechts"
func PartSlug(query string) string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, "-")
}

// queryStems returns the query followed by simple Dutch stems of it, most specific first
func queryStems(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	stems := []string{q}
	if strings.HasSuffix(q, "en") && len(q) > 4 {
		stems = append(stems, strings.TrimSuffix(q, "en"))
	}
	if strings.HasSuffix(q, "s") && len(q) > 3 {
		stems = append(stems, strings.TrimSuffix(q, "s"))
	}
	return stems
}

// ParsePrice parses Dutch and plain decimal price texts. It returns nil when
// the text carries no amount, e.g. "Prijs op aanvraag".
func ParsePrice(text string) *Price {
	m := priceRegex.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	euros, err := strconv.ParseInt(strings.ReplaceAll(m[1], ".", ""), 10, 64)
	if err != nil {
		return nil
	}

	var cents int64
	if frac := m[3]; frac != "" && !strings.HasPrefix(frac, "-") {
		if len(frac) == 1 {
			frac += "0"
		}
		cents, _ = strconv.ParseInt(frac, 10, 64)
	}

	return NewPrice(euros*100 + cents)
}

// ParseLeadingInt parses the first digit run of text, e.g. "123.456 km" -> 123456
func ParseLeadingInt(text string) *int {
	m := intRegex.FindString(text)
	if m == "" {
		return nil
	}

	n, err := strconv.Atoi(strings.ReplaceAll(m, ".", ""))
	if err != nil {
		return nil
	}
	return &n
}

// ParseWarranty finds "Garantie N mnd" in text
func ParseWarranty(text string) *int {
	m := warrantyRegex.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// ParsePageCount reads the total page count from a pager text such as
// "Pagina 2 van 7"; 0 means unknown.
func ParsePageCount(text string) int {
	m := pageCountRegex.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// MapCondition maps a Dutch condition label to a Condition
func MapCondition(text string) Condition {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "gereviseerd"), strings.Contains(t, "revisie"), strings.Contains(t, "vernieuwd"):
		return ConditionRefurbished
	case strings.Contains(t, "gebruikt"):
		return ConditionUsed
	case strings.Contains(t, "nieuw"):
		return ConditionNew
	default:
		return ConditionUnknown
	}
}

// absoluteURL resolves href against base and drops the fragment
func absoluteURL(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	u := ref
	if base != nil {
		u = base.ResolveReference(ref)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), true
}
