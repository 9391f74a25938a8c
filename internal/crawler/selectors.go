package crawler

// Selectors contains CSS selectors for the elements the scraper reads
type Selectors struct {
	// Plate lookup
	VehicleItem string
	VehicleName string
	LookupForm  string

	// Search response
	ResultList   string
	CategoryList string
	CategoryLink string
	Listing      string
	NextLink     string
	NextButton   string
	PagerInfo    string

	// Listing fields
	Title     string
	Price     string
	Pricing   string
	Supplier  string
	SpecItem  string
	Thumbnail string
	Link      string
}

// DefaultSelectors returns the selectors matching the current site layout
func DefaultSelectors() Selectors {
	return Selectors{
		VehicleItem: ".result-item[data-type]",
		VehicleName: "span",
		LookupForm:  `input[name$="objlicenseplate"], form#aspnetForm`,

		ResultList:   "ul#result-list",
		CategoryList: "div.search-results-list",
		CategoryLink: "a[href]",
		Listing:      "li.shoppingcart",
		NextLink:     `a[rel="next"], .pagination .next a`,
		NextButton:   `input[type="submit"][value=">"]:not([disabled])`,
		PagerInfo:    ".paging, .pagination, .pager",

		Title:     "div.description span.bold",
		Price:     "span.price",
		Pricing:   "div.pricing",
		Supplier:  "div.pricing span.block",
		SpecItem:  "span.item",
		Thumbnail: "div.thumbnail img",
		Link:      "a[href]",
	}
}
