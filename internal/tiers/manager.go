package tiers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/printquote/internal/catalog"
	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/units"
	"github.com/Simplici0/printquote/internal/validation"
)

// ErrTierNotFound is returned when no tier has the requested id.
var ErrTierNotFound = catalog.ErrTierNotFound

// Manager edits volume tiers. Every mutation is validated and checked for overlap
// inside one transaction, so a rejected change writes nothing.
type Manager struct {
	store *catalog.Store
}

// NewManager returns a Manager over store.
func NewManager(store *catalog.Store) *Manager {
	return &Manager{store: store}
}

// Input is a parsed tier form.
type Input struct {
	QtyMin    int
	QtyMax    int
	UnitPrice decimal.Decimal
}

// ParseInput reads the three tier fields. Unlike line input, nothing degrades to a default here.
func ParseInput(minRaw, maxRaw, priceRaw string) (Input, error) {
	qtyMin, err := parseBound("qty_min", minRaw)
	if err != nil {
		return Input{}, err
	}
	qtyMax, err := parseBound("qty_max", maxRaw)
	if err != nil {
		return Input{}, err
	}

	if strings.TrimSpace(priceRaw) == "" {
		return Input{}, validation.New("unit_price", validation.Required, "unit price is required")
	}
	price, ok := units.ParseDecimal(priceRaw)
	if !ok {
		return Input{}, validation.New("unit_price", validation.NotNumeric, "unit price must be numeric")
	}

	in := Input{QtyMin: qtyMin, QtyMax: qtyMax, UnitPrice: price}
	if err := in.validate(); err != nil {
		return Input{}, err
	}
	return in, nil
}

func parseBound(field, raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, validation.New(field, validation.Required, "%s is required", field)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, validation.New(field, validation.NotNumeric, "%s must be a whole number", field)
	}
	return n, nil
}

func (in Input) validate() error {
	if in.QtyMin <= 0 {
		return validation.New("qty_min", validation.Positive, "minimum quantity must be greater than 0")
	}
	if in.QtyMax <= 0 {
		return validation.New("qty_max", validation.Positive, "maximum quantity must be greater than 0")
	}
	if in.QtyMin > in.QtyMax {
		return validation.New("qty_min", validation.Ordered, "minimum quantity %d exceeds maximum %d", in.QtyMin, in.QtyMax)
	}
	if in.UnitPrice.IsNegative() {
		return validation.New("unit_price", validation.NonNegative, "unit price must be greater than or equal to 0")
	}
	return nil
}

// Add creates a tier on the named per-unit product.
func (m *Manager) Add(product string, qtyMin, qtyMax int, price decimal.Decimal) (pricing.Tier, error) {
	in := Input{QtyMin: qtyMin, QtyMax: qtyMax, UnitPrice: price}
	if err := in.validate(); err != nil {
		return pricing.Tier{}, err
	}

	var created pricing.Tier
	err := m.store.WithTx(func(tx *catalog.Store) error {
		p, err := tx.Get(product)
		if err != nil {
			return err
		}
		if p.Mode() != pricing.PerUnit {
			return validation.New("product", validation.Unsupported, "%s is priced by %s; only unit products take tiers", p.Name, p.Mode())
		}
		if err := checkOverlap(p.Tiers(), in, 0); err != nil {
			return err
		}

		created, err = tx.InsertTier(p.ID, pricing.Tier{QtyMin: in.QtyMin, QtyMax: in.QtyMax, UnitPrice: in.UnitPrice})
		return err
	})
	if err != nil {
		return pricing.Tier{}, err
	}
	return created, nil
}

// Update replaces the bounds and price of tier id. The tier itself is left out of the overlap check.
func (m *Manager) Update(id int64, qtyMin, qtyMax int, price decimal.Decimal) (pricing.Tier, error) {
	in := Input{QtyMin: qtyMin, QtyMax: qtyMax, UnitPrice: price}
	if err := in.validate(); err != nil {
		return pricing.Tier{}, err
	}

	updated := pricing.Tier{ID: id, QtyMin: in.QtyMin, QtyMax: in.QtyMax, UnitPrice: in.UnitPrice}
	err := m.store.WithTx(func(tx *catalog.Store) error {
		_, productID, err := tx.Tier(id)
		if err != nil {
			return err
		}
		siblings, err := tx.Tiers(productID)
		if err != nil {
			return err
		}
		if err := checkOverlap(siblings, in, id); err != nil {
			return err
		}
		return tx.UpdateTier(updated)
	})
	if err != nil {
		return pricing.Tier{}, err
	}
	return updated, nil
}

// Delete removes tier id.
func (m *Manager) Delete(id int64) error {
	return m.store.DeleteTier(id)
}

// Lookup returns the price of the named product's tier containing qty.
// An unknown product or uncovered quantity is a miss, not an error.
func (m *Manager) Lookup(product string, qty int) (decimal.Decimal, bool, error) {
	p, err := m.store.Get(product)
	if errors.Is(err, catalog.ErrProductNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	if p.Mode() != pricing.PerUnit {
		return decimal.Zero, false, nil
	}
	return m.store.TierPrice(p.ID, qty)
}

// List returns the named product's tiers ordered by lower bound.
func (m *Manager) List(product string) (pricing.Tiers, error) {
	p, err := m.store.Get(product)
	if err != nil {
		return nil, err
	}
	if p.Tiers() == nil {
		return pricing.Tiers{}, nil
	}
	return p.Tiers(), nil
}

func checkOverlap(existing pricing.Tiers, in Input, ignoreID int64) error {
	conflict, ok := existing.Conflict(in.QtyMin, in.QtyMax, ignoreID)
	if !ok {
		return nil
	}
	return validation.New("qty_min", validation.Overlap, "range %d-%d overlaps existing tier %d-%d",
		in.QtyMin, in.QtyMax, conflict.QtyMin, conflict.QtyMax)
}
