package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/units"
	"github.com/Simplici0/printquote/internal/validation"
)

// ErrTierNotFound is returned when no tier has the requested id.
var ErrTierNotFound = errors.New("tier not found")

type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store persists products and their volume tiers.
type Store struct {
	db *sql.DB
	q  querier
}

// NewStore returns a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// WithTx runs fn against a Store bound to one transaction and commits when fn returns nil.
// fn must only use the Store it receives.
func (s *Store) WithTx(fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin catalog transaction: %w", err)
	}

	if err := fn(&Store{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog transaction: %w", err)
	}
	return nil
}

// Save inserts p or replaces the product with the same name, keeping its id.
// Switching a product away from per-unit pricing drops its tiers.
func (s *Store) Save(p Product) (Product, error) {
	if p.Name == "" {
		return Product{}, validation.New("name", validation.Required, "name is required")
	}
	if p.Rule == nil || !p.Rule.Mode().Valid() {
		return Product{}, validation.New("pricing_mode", validation.Required, "pricing mode is required")
	}

	var area, length, flat decimal.NullDecimal
	switch r := p.Rule.(type) {
	case pricing.AreaRule:
		area = decimal.NewNullDecimal(r.Rate)
	case pricing.LengthRule:
		length = decimal.NewNullDecimal(r.Rate)
	case pricing.UnitRule:
		flat = r.Rate
	}

	err := s.WithTx(func(tx *Store) error {
		err := tx.q.QueryRow(`
			INSERT INTO products (name, pricing_mode, rate_per_area, rate_per_length, flat_unit_rate, default_width, default_height)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				pricing_mode = excluded.pricing_mode,
				rate_per_area = excluded.rate_per_area,
				rate_per_length = excluded.rate_per_length,
				flat_unit_rate = excluded.flat_unit_rate,
				default_width = excluded.default_width,
				default_height = excluded.default_height,
				updated_at = CURRENT_TIMESTAMP
			RETURNING id
		`, p.Name, p.Rule.Mode().String(), area, length, flat, lengthValue(p.DefaultWidth), lengthValue(p.DefaultHeight)).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("upsert product: %w", err)
		}

		if p.Rule.Mode() != pricing.PerUnit {
			if _, err := tx.q.Exec(`DELETE FROM volume_tiers WHERE product_id = ?`, p.ID); err != nil {
				return fmt.Errorf("drop tiers of non-unit product: %w", err)
			}
			return nil
		}

		tiers, err := tx.Tiers(p.ID)
		if err != nil {
			return err
		}
		rule := p.Rule.(pricing.UnitRule)
		rule.Tiers = tiers
		p.Rule = rule
		return nil
	})
	if err != nil {
		return Product{}, err
	}

	return p, nil
}

// Get returns the product called name with its tiers.
func (s *Store) Get(name string) (Product, error) {
	row := s.q.QueryRow(`
		SELECT id, name, pricing_mode, rate_per_area, rate_per_length, flat_unit_rate, default_width, default_height
		FROM products
		WHERE name = ?
	`, name)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("query product: %w", err)
	}

	if rule, ok := p.Rule.(pricing.UnitRule); ok {
		if rule.Tiers, err = s.Tiers(p.ID); err != nil {
			return Product{}, err
		}
		p.Rule = rule
	}
	return p, nil
}

// List returns every product ordered by name, with tiers loaded.
func (s *Store) List() ([]Product, error) {
	rows, err := s.q.Query(`
		SELECT id, name, pricing_mode, rate_per_area, rate_per_length, flat_unit_rate, default_width, default_height
		FROM products
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	tiers, err := s.allTiers()
	if err != nil {
		return nil, err
	}
	for i, p := range products {
		if rule, ok := p.Rule.(pricing.UnitRule); ok {
			rule.Tiers = tiers[p.ID]
			products[i].Rule = rule
		}
	}

	return products, nil
}

// Names returns product names in display order.
func (s *Store) Names() ([]string, error) {
	rows, err := s.q.Query(`SELECT name FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query product names: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan product name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product names: %w", err)
	}
	return names, nil
}

// Delete removes the product called name together with its tiers.
func (s *Store) Delete(name string) error {
	return s.WithTx(func(tx *Store) error {
		var id int64
		err := tx.q.QueryRow(`SELECT id FROM products WHERE name = ?`, name).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("query product id: %w", err)
		}

		if _, err := tx.q.Exec(`DELETE FROM volume_tiers WHERE product_id = ?`, id); err != nil {
			return fmt.Errorf("delete product tiers: %w", err)
		}
		if _, err := tx.q.Exec(`DELETE FROM products WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		return nil
	})
}

// DeleteAll empties the catalog and returns how many products were removed.
func (s *Store) DeleteAll() (int64, error) {
	var removed int64
	err := s.WithTx(func(tx *Store) error {
		if _, err := tx.q.Exec(`DELETE FROM volume_tiers`); err != nil {
			return fmt.Errorf("delete all tiers: %w", err)
		}
		res, err := tx.q.Exec(`DELETE FROM products`)
		if err != nil {
			return fmt.Errorf("delete all products: %w", err)
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("count deleted products: %w", err)
		}
		return nil
	})
	return removed, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (Product, error) {
	var (
		p                  Product
		mode               string
		area, length, flat decimal.NullDecimal
		width, height      decimal.NullDecimal
	)
	if err := row.Scan(&p.ID, &p.Name, &mode, &area, &length, &flat, &width, &height); err != nil {
		return Product{}, err
	}

	m, err := pricing.ParseMode(mode)
	if err != nil {
		return Product{}, err
	}

	switch m {
	case pricing.PerArea:
		p.Rule = pricing.AreaRule{Rate: area.Decimal}
	case pricing.PerLength:
		p.Rule = pricing.LengthRule{Rate: length.Decimal}
	default:
		p.Rule = pricing.UnitRule{Rate: flat}
	}

	p.DefaultWidth = lengthFrom(width)
	p.DefaultHeight = lengthFrom(height)
	return p, nil
}

func lengthValue(l units.Length) decimal.NullDecimal {
	if !l.Known() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(l.Meters())
}

func lengthFrom(d decimal.NullDecimal) units.Length {
	if !d.Valid {
		return units.Unknown
	}
	return units.Meters(d.Decimal)
}
