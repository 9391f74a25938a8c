package crawler

import (
	"fmt"
	"math"
	"strconv"
)

// Provider is the name used in logs and errors for the scraped site
const Provider = "onderdelenlijn"

// DirectResultsLabel is the category label of listings found without a category step
const DirectResultsLabel = "Direct Results"

// VehicleRef identifies a resolved vehicle on the site
type VehicleRef struct {
	Plate       string `json:"license_plate"`
	ModelType   string `json:"modeltype"`
	Description string `json:"vehicle"`
	URL         string `json:"url"`
}

// PageContext is the navigator's position while walking result pages
type PageContext struct {
	Page       int
	TotalPages int // 0 when the pager does not say
	URL        string
	Category   string
}

// RawListing is the unparsed markup of one listing plus where it was found
type RawListing struct {
	HTML     string
	PageURL  string
	Page     int
	Index    int
	Category string
}

// Condition is the normalized state of a part
type Condition string

const (
	ConditionUsed        Condition = "used"
	ConditionNew         Condition = "new"
	ConditionRefurbished Condition = "refurbished"
	ConditionUnknown     Condition = "unknown"
)

// Price is an amount in euro cents
type Price int64

// NewPrice returns a pointer to p
func NewPrice(cents int64) *Price {
	p := Price(cents)
	return &p
}

// Cents returns the amount in cents
func (p Price) Cents() int64 {
	return int64(p)
}

// Float64 returns the amount in euros
func (p Price) Float64() float64 {
	return float64(p) / 100
}

// String formats the amount with two decimals, e.g. "1234.56"
func (p Price) String() string {
	sign := ""
	cents := int64(p)
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// MarshalJSON encodes the price as a decimal euro number
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalJSON decodes a decimal euro number
func (p *Price) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid price %s: %w", data, err)
	}
	*p = Price(math.Round(f * 100))
	return nil
}

// PartRecord is one normalized listing
type PartRecord struct {
	Title          string    `json:"title"`
	Price          *Price    `json:"price"`
	Supplier       string    `json:"supplier"`
	Condition      Condition `json:"condition"`
	WarrantyMonths *int      `json:"warranty_months"`
	BuildYear      *int      `json:"build_year"`
	EngineCode     *string   `json:"engine_code"`
	MileageKm      *int      `json:"mileage_km"`
	SourceURL      string    `json:"source_url"`
	ImageURL       string    `json:"image_url,omitempty"`
	Category       string    `json:"category,omitempty"`
}

// PageKind tells how a search response has to be handled
type PageKind int

const (
	// PageUnknown is a response matching neither layout
	PageUnknown PageKind = iota
	// PageDirect carries listings straight away
	PageDirect
	// PageCategory lists subcategories that must be followed first
	PageCategory
)

func (k PageKind) String() string {
	switch k {
	case PageDirect:
		return "direct"
	case PageCategory:
		return "category"
	default:
		return "unknown"
	}
}

// CategoryLink is a subcategory offered on a category page
type CategoryLink struct {
	Label string
	Href  string
}

// PagerKind tells how the next result page is requested
type PagerKind int

const (
	// PagerNone means this is the last page
	PagerNone PagerKind = iota
	// PagerLink means GET the working URL with page=N
	PagerLink
	// PagerPostback means post the page's form back with the ">" button
	PagerPostback
)

// Pager is the next-page control of a result page
type Pager struct {
	Kind PagerKind
	// Action is the form action of a postback, empty for the page URL
	Action string
	// Form holds the form fields of a postback, including the button
	Form map[string]string
}

// Classification is the tagged result of classifying a search response.
// Listings is set for PageDirect, Categories for PageCategory.
type Classification struct {
	Kind       PageKind
	Listings   []string
	Categories []CategoryLink
	Next       Pager
	// FirstSource is the raw source href of the first listing
	FirstSource string
	TotalPages  int
}

// HasNext reports whether a further result page is announced
func (c Classification) HasNext() bool {
	return c.Next.Kind != PagerNone
}
