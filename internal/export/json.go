package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"sjsage522/partsworker/internal/crawler"
)

// SearchInfo describes the search a result document was produced by
type SearchInfo struct {
	LicensePlate string `json:"license_plate"`
	PartName     string `json:"part_name"`
	ModelType    string `json:"modeltype"`
	Vehicle      string `json:"vehicle"`
	ScrapedAt    string `json:"scraped_at"`
	Complete     bool   `json:"complete"`
}

// Document is the JSON result of one search, records grouped by category label
type Document struct {
	SearchInfo SearchInfo                      `json:"search_info"`
	Categories map[string][]crawler.PartRecord `json:"categories"`
}

// NewDocument starts an empty result document
func NewDocument(ref crawler.VehicleRef, part string, scrapedAt time.Time) *Document {
	return &Document{
		SearchInfo: SearchInfo{
			LicensePlate: ref.Plate,
			PartName:     part,
			ModelType:    ref.ModelType,
			Vehicle:      ref.Description,
			ScrapedAt:    scrapedAt.Format(time.RFC3339),
		},
		Categories: make(map[string][]crawler.PartRecord),
	}
}

// Add appends a record under its category label
func (d *Document) Add(record crawler.PartRecord) {
	label := record.Category
	if label == "" {
		label = crawler.DirectResultsLabel
	}
	d.Categories[label] = append(d.Categories[label], record)
}

// Total returns the number of records over all categories
func (d *Document) Total() int {
	total := 0
	for _, records := range d.Categories {
		total += len(records)
	}
	return total
}

// CategoryNames returns the labels that hold records, sorted
func (d *Document) CategoryNames() []string {
	names := make([]string, 0, len(d.Categories))
	for name := range d.Categories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Write encodes the document as indented JSON without HTML escaping
func (d *Document) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// WriteFile writes the document to path
func (d *Document) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := d.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FileName is the default export name, e.g. onderdelen_27XHVX_koplamp-rechts_20240501_120000.json
func FileName(plate, part string, t time.Time) string {
	return fmt.Sprintf("onderdelen_%s_%s_%s.json", plate, crawler.PartSlug(part), t.Format("20060102_150405"))
}

// AttachmentName is the download name used by the job API
func AttachmentName(plate, part string) string {
	return fmt.Sprintf("onderdelen_%s_%s.json", plate, strings.ReplaceAll(crawler.PartSlug(part), "-", "_"))
}
