package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/printquote/internal/pricing"
)

// Tiers returns a product's tiers ordered by lower bound.
func (s *Store) Tiers(productID int64) (pricing.Tiers, error) {
	rows, err := s.q.Query(`
		SELECT id, qty_min, qty_max, unit_price
		FROM volume_tiers
		WHERE product_id = ?
		ORDER BY qty_min
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("query tiers: %w", err)
	}
	defer rows.Close()

	tiers := make(pricing.Tiers, 0)
	for rows.Next() {
		var t pricing.Tier
		if err := rows.Scan(&t.ID, &t.QtyMin, &t.QtyMax, &t.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tiers: %w", err)
	}
	return tiers, nil
}

func (s *Store) allTiers() (map[int64]pricing.Tiers, error) {
	rows, err := s.q.Query(`
		SELECT product_id, id, qty_min, qty_max, unit_price
		FROM volume_tiers
		ORDER BY product_id, qty_min
	`)
	if err != nil {
		return nil, fmt.Errorf("query all tiers: %w", err)
	}
	defer rows.Close()

	byProduct := make(map[int64]pricing.Tiers)
	for rows.Next() {
		var (
			productID int64
			t         pricing.Tier
		)
		if err := rows.Scan(&productID, &t.ID, &t.QtyMin, &t.QtyMax, &t.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		byProduct[productID] = append(byProduct[productID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate all tiers: %w", err)
	}
	return byProduct, nil
}

// Tier returns the tier with id and the id of the product owning it.
func (s *Store) Tier(id int64) (pricing.Tier, int64, error) {
	var (
		t         pricing.Tier
		productID int64
	)
	err := s.q.QueryRow(`
		SELECT id, product_id, qty_min, qty_max, unit_price
		FROM volume_tiers
		WHERE id = ?
	`, id).Scan(&t.ID, &productID, &t.QtyMin, &t.QtyMax, &t.UnitPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return pricing.Tier{}, 0, ErrTierNotFound
	}
	if err != nil {
		return pricing.Tier{}, 0, fmt.Errorf("query tier: %w", err)
	}
	return t, productID, nil
}

// InsertTier stores t for productID and returns it with its new id. No overlap check is done here.
func (s *Store) InsertTier(productID int64, t pricing.Tier) (pricing.Tier, error) {
	err := s.q.QueryRow(`
		INSERT INTO volume_tiers (product_id, qty_min, qty_max, unit_price)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`, productID, t.QtyMin, t.QtyMax, t.UnitPrice).Scan(&t.ID)
	if err != nil {
		return pricing.Tier{}, fmt.Errorf("insert tier: %w", err)
	}
	return t, nil
}

// UpdateTier overwrites the bounds and price of tier t.ID.
func (s *Store) UpdateTier(t pricing.Tier) error {
	res, err := s.q.Exec(`
		UPDATE volume_tiers
		SET qty_min = ?, qty_max = ?, unit_price = ?
		WHERE id = ?
	`, t.QtyMin, t.QtyMax, t.UnitPrice, t.ID)
	if err != nil {
		return fmt.Errorf("update tier: %w", err)
	}
	return requireAffected(res, ErrTierNotFound)
}

// DeleteTier removes the tier with id.
func (s *Store) DeleteTier(id int64) error {
	res, err := s.q.Exec(`DELETE FROM volume_tiers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tier: %w", err)
	}
	return requireAffected(res, ErrTierNotFound)
}

// TierPrice returns the unit price of productID's tier containing qty.
func (s *Store) TierPrice(productID int64, qty int) (decimal.Decimal, bool, error) {
	var price decimal.Decimal
	err := s.q.QueryRow(`
		SELECT unit_price
		FROM volume_tiers
		WHERE product_id = ? AND ? BETWEEN qty_min AND qty_max
		ORDER BY qty_min
		LIMIT 1
	`, productID, qty).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("query tier price: %w", err)
	}
	return price, true, nil
}

func requireAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
