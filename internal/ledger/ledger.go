package ledger

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/units"
	"github.com/Simplici0/printquote/internal/validation"
)

var (
	// ErrItemNotFound is returned when no line item has the requested id.
	ErrItemNotFound = errors.New("line item not found")
	// ErrPositionOutOfRange is returned for a 1-based position outside the current list.
	ErrPositionOutOfRange = errors.New("line position out of range")
)

// LineItem is one committed row of a quote. LineTotal is stored, not derived,
// so a manual override survives.
type LineItem struct {
	ID          uuid.UUID
	Description string
	Width       units.Length
	Height      units.Length
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// NewItem builds a line item from a computed line. When override is valid it replaces
// the computed total. The description is required and stored upper-cased.
func NewItem(description string, res pricing.Result, override decimal.NullDecimal) (LineItem, error) {
	desc := strings.ToUpper(strings.TrimSpace(description))
	if desc == "" {
		return LineItem{}, validation.New("description", validation.Required, "description is required")
	}
	if override.Valid && override.Decimal.IsNegative() {
		return LineItem{}, validation.New("line_total", validation.NonNegative, "line total must be greater than or equal to 0")
	}

	qty := res.Quantity
	if qty <= 0 {
		qty = 1
	}
	unitPrice := res.UnitPrice
	if unitPrice.IsNegative() {
		unitPrice = decimal.Zero
	}

	total := res.Total
	if override.Valid {
		total = override.Decimal
	}

	return LineItem{
		ID:          uuid.New(),
		Description: desc,
		Width:       res.Width,
		Height:      res.Height,
		Quantity:    qty,
		UnitPrice:   unitPrice,
		LineTotal:   total,
	}, nil
}

// Ledger is the ordered list of a quote's line items. Insertion order is display order.
// It is not safe for concurrent use.
type Ledger struct {
	items []LineItem
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Add appends item and returns its 1-based position. A zero ID is replaced with a fresh one.
func (l *Ledger) Add(item LineItem) int {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	l.items = append(l.items, item)
	return len(l.items)
}

// Remove deletes the item with id.
func (l *Ledger) Remove(id uuid.UUID) error {
	_, err := l.Take(id)
	return err
}

// RemoveAt deletes the item at the 1-based position.
func (l *Ledger) RemoveAt(position int) error {
	_, err := l.TakeAt(position)
	return err
}

// Take removes and returns the item with id so it can be loaded back into the form.
func (l *Ledger) Take(id uuid.UUID) (LineItem, error) {
	for i, item := range l.items {
		if item.ID == id {
			return l.takeIndex(i), nil
		}
	}
	return LineItem{}, ErrItemNotFound
}

// TakeAt removes and returns the item at the 1-based position.
func (l *Ledger) TakeAt(position int) (LineItem, error) {
	if position < 1 || position > len(l.items) {
		return LineItem{}, ErrPositionOutOfRange
	}
	return l.takeIndex(position - 1), nil
}

func (l *Ledger) takeIndex(i int) LineItem {
	item := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	return item
}

// Position returns the current 1-based position of id.
func (l *Ledger) Position(id uuid.UUID) (int, bool) {
	for i, item := range l.items {
		if item.ID == id {
			return i + 1, true
		}
	}
	return 0, false
}

// Clear removes every item.
func (l *Ledger) Clear() {
	l.items = nil
}

// Total sums every line total at full precision. It is recomputed on each call.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range l.items {
		total = total.Add(item.LineTotal)
	}
	return total
}

// Items returns a copy of the items in display order.
func (l *Ledger) Items() []LineItem {
	return append([]LineItem(nil), l.items...)
}

// Len returns the number of items.
func (l *Ledger) Len() int {
	return len(l.items)
}

// Snapshot is a frozen view of the ledger handed to exporters.
type Snapshot struct {
	Items []LineItem
	Total decimal.Decimal
}

// Snapshot copies the current items and grand total. Later ledger changes do not affect it.
func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{Items: l.Items(), Total: l.Total()}
}
