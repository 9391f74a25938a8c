package store

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"sjsage522/partsworker/internal/crawler"
	"sjsage522/partsworker/logger"
	"sjsage522/partsworker/pkg/errors"

	_ "modernc.org/sqlite"
)

const provider = "sqlite"

const createPartsTableSQL = `
CREATE TABLE IF NOT EXISTS parts (
	"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
	"scraped_at" TEXT NOT NULL,
	"search_license_plate" TEXT NOT NULL,
	"search_part_name" TEXT NOT NULL,
	"part_title" TEXT NOT NULL,
	"price" REAL,
	"supplier_name" TEXT,
	"part_condition" TEXT,
	"warranty_months" INTEGER,
	"build_year" INTEGER,
	"engine_code" TEXT,
	"mileage_km" INTEGER,
	"source_url" TEXT NOT NULL UNIQUE,
	"image_url" TEXT,
	"category" TEXT
);
CREATE INDEX IF NOT EXISTS idx_parts_search ON parts (search_license_plate, search_part_name);`

const insertPartSQL = `
INSERT INTO parts (
	scraped_at, search_license_plate, search_part_name, part_title, price, supplier_name,
	part_condition, warranty_months, build_year, engine_code, mileage_km, source_url, image_url, category
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source_url) DO NOTHING;`

const updatePartSQL = `
UPDATE parts SET
	scraped_at = ?, search_license_plate = ?, search_part_name = ?, part_title = ?, price = ?,
	supplier_name = ?, part_condition = ?, warranty_months = ?, build_year = ?, engine_code = ?,
	mileage_km = ?, image_url = ?, category = ?
WHERE source_url = ?;`

const selectPartsSQL = `
SELECT id, scraped_at, search_license_plate, search_part_name, part_title, price, supplier_name,
	part_condition, warranty_months, build_year, engine_code, mileage_km, source_url, image_url, category
FROM parts WHERE search_license_plate = ? AND search_part_name = ? ORDER BY id`

// StoredPart is a part row together with the search that found it
type StoredPart struct {
	ID        int64
	ScrapedAt time.Time
	Plate     string
	PartName  string
	crawler.PartRecord
}

// SQLiteStore keeps part records in the parts table, one row per source URL
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
	log *logger.Logger
}

// Open opens (or creates) the database at path and ensures the schema exists.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStore(provider, "failed to open "+path, err)
	}

	// SQLite serializes writers; one connection also keeps :memory: databases alive
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewStore(provider, "failed to ping "+path, err)
	}

	if _, err := db.ExecContext(ctx, createPartsTableSQL); err != nil {
		db.Close()
		return nil, errors.NewStore(provider, "failed to create parts table", err)
	}

	logger.ForStore().Info().Str("path", path).Msg("Database initialized")

	return &SQLiteStore{db: db, now: time.Now, log: logger.ForStore()}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save upserts one record keyed by its source URL and reports whether it was new
func (s *SQLiteStore) Save(ctx context.Context, plate, part string, record crawler.PartRecord) (bool, error) {
	inserted, err := s.SaveAll(ctx, plate, part, []crawler.PartRecord{record})
	return inserted == 1, err
}

// SaveAll upserts records in one transaction and returns how many were new
func (s *SQLiteStore) SaveAll(ctx context.Context, plate, part string, records []crawler.PartRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewStore(provider, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	insertStmt, err := tx.PrepareContext(ctx, insertPartSQL)
	if err != nil {
		return 0, errors.NewStore(provider, "failed to prepare insert", err)
	}
	defer insertStmt.Close()

	updateStmt, err := tx.PrepareContext(ctx, updatePartSQL)
	if err != nil {
		return 0, errors.NewStore(provider, "failed to prepare update", err)
	}
	defer updateStmt.Close()

	scrapedAt := s.now().UTC().Format(time.RFC3339)
	inserted := 0

	for _, r := range records {
		if r.SourceURL == "" {
			return 0, errors.NewValidation(provider, "record without source url: "+r.Title)
		}

		price, warranty, buildYear, engineCode, mileage := nullables(r)

		res, err := insertStmt.ExecContext(ctx,
			scrapedAt, plate, part, r.Title, price, r.Supplier,
			string(r.Condition), warranty, buildYear, engineCode, mileage, r.SourceURL, r.ImageURL, r.Category,
		)
		if err != nil {
			return 0, errors.NewStore(provider, "failed to insert "+r.SourceURL, err)
		}

		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
			continue
		}

		if _, err := updateStmt.ExecContext(ctx,
			scrapedAt, plate, part, r.Title, price,
			r.Supplier, string(r.Condition), warranty, buildYear, engineCode,
			mileage, r.ImageURL, r.Category, r.SourceURL,
		); err != nil {
			return 0, errors.NewStore(provider, "failed to update "+r.SourceURL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewStore(provider, "failed to commit", err)
	}

	s.log.Debug().
		Str("plate", plate).
		Str("part", part).
		Int("records", len(records)).
		Int("inserted", inserted).
		Msg("Records saved")

	return inserted, nil
}

// CountBySearch returns how many parts are stored for a plate and part name
func (s *SQLiteStore) CountBySearch(ctx context.Context, plate, part string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM parts WHERE search_license_plate = ? AND search_part_name = ?", plate, part,
	).Scan(&count)
	if err != nil {
		return 0, errors.NewStore(provider, "failed to count parts", err)
	}
	return count, nil
}

// ListBySearch returns the parts stored for a plate and part name in insertion order
func (s *SQLiteStore) ListBySearch(ctx context.Context, plate, part string) ([]StoredPart, error) {
	rows, err := s.db.QueryContext(ctx, selectPartsSQL, plate, part)
	if err != nil {
		return nil, errors.NewStore(provider, "failed to query parts", err)
	}
	defer rows.Close()

	var parts []StoredPart
	for rows.Next() {
		var (
			p                            StoredPart
			scrapedAt, condition         string
			supplier, imageURL, category sql.NullString
			engineCode                   sql.NullString
			price                        sql.NullFloat64
			warranty, buildYear, mileage sql.NullInt64
		)
		if err := rows.Scan(
			&p.ID, &scrapedAt, &p.Plate, &p.PartName, &p.Title, &price, &supplier,
			&condition, &warranty, &buildYear, &engineCode, &mileage, &p.SourceURL, &imageURL, &category,
		); err != nil {
			return nil, errors.NewStore(provider, "failed to scan part row", err)
		}

		p.ScrapedAt, _ = time.Parse(time.RFC3339, scrapedAt)
		p.Supplier = supplier.String
		p.Condition = crawler.Condition(condition)
		p.ImageURL = imageURL.String
		p.Category = category.String
		if price.Valid {
			p.Price = crawler.NewPrice(int64(math.Round(price.Float64 * 100)))
		}
		p.WarrantyMonths = intPtr(warranty)
		p.BuildYear = intPtr(buildYear)
		p.MileageKm = intPtr(mileage)
		if engineCode.Valid {
			code := engineCode.String
			p.EngineCode = &code
		}

		parts = append(parts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewStore(provider, "failed to read part rows", err)
	}
	return parts, nil
}

func nullables(r crawler.PartRecord) (price sql.NullFloat64, warranty, buildYear sql.NullInt64, engineCode sql.NullString, mileage sql.NullInt64) {
	if r.Price != nil {
		price = sql.NullFloat64{Float64: r.Price.Float64(), Valid: true}
	}
	if r.WarrantyMonths != nil {
		warranty = sql.NullInt64{Int64: int64(*r.WarrantyMonths), Valid: true}
	}
	if r.BuildYear != nil {
		buildYear = sql.NullInt64{Int64: int64(*r.BuildYear), Valid: true}
	}
	if r.EngineCode != nil && strings.TrimSpace(*r.EngineCode) != "" {
		engineCode = sql.NullString{String: *r.EngineCode, Valid: true}
	}
	if r.MileageKm != nil {
		mileage = sql.NullInt64{Int64: int64(*r.MileageKm), Valid: true}
	}
	return
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
