package seed

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

type starterTier struct {
	qtyMin, qtyMax int
	unitPrice      string
}

type starterProduct struct {
	name          string
	mode          string
	ratePerArea   string
	ratePerLength string
	flatUnitRate  string
	defaultWidth  string
	defaultHeight string
	tiers         []starterTier
}

var starterCatalog = []starterProduct{
	{name: "Banner", mode: "area", ratePerArea: "25.00", defaultWidth: "1.00", defaultHeight: "0.80"},
	{name: "Adhesive Vinyl", mode: "area", ratePerArea: "45.00"},
	{name: "Vinyl Trim", mode: "length", ratePerLength: "12.00"},
	{
		name: "Sticker",
		mode: "unit",
		tiers: []starterTier{
			{1, 9, "7.00"},
			{10, 49, "5.50"},
			{50, 999, "4.00"},
		},
	},
	{name: "Business Card", mode: "unit", flatUnitRate: "0.35"},
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run inserts the starter catalog in an idempotent way. Products that already exist
// are left untouched, including their tiers.
func Run(db *sql.DB) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	for _, p := range starterCatalog {
		if err := ensureProduct(tx, p, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureProduct(tx *sql.Tx, p starterProduct, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM products WHERE name = ? LIMIT 1)`, p.name).Scan(&exists); err != nil {
		return fmt.Errorf("check product %q existence: %w", p.name, err)
	}
	if exists {
		return nil
	}

	var id int64
	if err := tx.QueryRow(`
		INSERT INTO products (name, pricing_mode, rate_per_area, rate_per_length, flat_unit_rate, default_width, default_height)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, p.name, p.mode, nullable(p.ratePerArea), nullable(p.ratePerLength), nullable(p.flatUnitRate),
		nullable(p.defaultWidth), nullable(p.defaultHeight)).Scan(&id); err != nil {
		return fmt.Errorf("insert product %q: %w", p.name, err)
	}
	stats.Inserts++

	for _, t := range p.tiers {
		if _, err := tx.Exec(`
			INSERT INTO volume_tiers (product_id, qty_min, qty_max, unit_price)
			VALUES (?, ?, ?, ?)
		`, id, t.qtyMin, t.qtyMax, decimal.RequireFromString(t.unitPrice)); err != nil {
			return fmt.Errorf("insert tier %d-%d of %q: %w", t.qtyMin, t.qtyMax, p.name, err)
		}
		stats.Inserts++
	}
	return nil
}

func nullable(v string) decimal.NullDecimal {
	if v == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}
