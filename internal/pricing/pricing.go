package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/printquote/internal/units"
)

// Mode is the rule family used to derive a line total.
type Mode int

const (
	PerUnit Mode = iota + 1
	PerArea
	PerLength
)

// String returns the persisted name of the mode.
func (m Mode) String() string {
	switch m {
	case PerUnit:
		return "unit"
	case PerArea:
		return "area"
	case PerLength:
		return "length"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == PerUnit || m == PerArea || m == PerLength
}

// ParseMode accepts the persisted names plus the short forms used on the form ("m2", "m").
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "unit", "per_unit", "perunit":
		return PerUnit, nil
	case "area", "m2", "m²", "per_area", "perarea":
		return PerArea, nil
	case "length", "m", "per_length", "perlength":
		return PerLength, nil
	default:
		return 0, fmt.Errorf("unknown pricing mode %q", raw)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("unknown pricing mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Rule is a product's pricing definition. Each variant carries only the fields its mode needs.
type Rule interface {
	Mode() Mode
	isRule()
}

// AreaRule prices by square meter.
type AreaRule struct {
	Rate decimal.Decimal
}

// LengthRule prices by linear meter.
type LengthRule struct {
	Rate decimal.Decimal
}

// UnitRule prices by piece, optionally through volume tiers.
// Rate is the flat unit price used when no tier covers the quantity.
type UnitRule struct {
	Rate  decimal.NullDecimal
	Tiers Tiers
}

func (AreaRule) Mode() Mode   { return PerArea }
func (LengthRule) Mode() Mode { return PerLength }
func (UnitRule) Mode() Mode   { return PerUnit }

func (AreaRule) isRule()   {}
func (LengthRule) isRule() {}
func (UnitRule) isRule()   {}

// Tier maps an inclusive quantity range to a unit price.
type Tier struct {
	ID        int64           `json:"id"`
	QtyMin    int             `json:"qty_min"`
	QtyMax    int             `json:"qty_max"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Contains reports whether qty falls inside the tier's range.
func (t Tier) Contains(qty int) bool {
	return qty >= t.QtyMin && qty <= t.QtyMax
}

// Overlaps reports whether [min, max] intersects the tier's range.
func (t Tier) Overlaps(min, max int) bool {
	return !(max < t.QtyMin || min > t.QtyMax)
}

// Tiers is one product's tier set.
type Tiers []Tier

// Lookup returns the price of the tier containing qty.
func (ts Tiers) Lookup(qty int) (decimal.Decimal, bool) {
	for _, t := range ts {
		if t.Contains(qty) {
			return t.UnitPrice, true
		}
	}
	return decimal.Zero, false
}

// Conflict returns the first tier other than ignoreID overlapping [min, max].
// Pass ignoreID 0 to check against every tier.
func (ts Tiers) Conflict(min, max int, ignoreID int64) (Tier, bool) {
	for _, t := range ts {
		if ignoreID != 0 && t.ID == ignoreID {
			continue
		}
		if t.Overlaps(min, max) {
			return t, true
		}
	}
	return Tier{}, false
}

// Addon is an optional surcharge. At most one is active on a line.
type Addon int

const (
	AddonNone Addon = iota
	AddonInstallation
	AddonStructure
)

func (a Addon) String() string {
	switch a {
	case AddonInstallation:
		return "installation"
	case AddonStructure:
		return "structure"
	default:
		return "none"
	}
}

// ParseAddon maps form values to an add-on; anything unrecognised is AddonNone.
func ParseAddon(raw string) Addon {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "installation", "install":
		return AddonInstallation
	case "structure", "struct", "structure+installation":
		return AddonStructure
	default:
		return AddonNone
	}
}

// Toggle flips a. Activating one add-on deactivates the other; toggling the active one clears it.
func (a Addon) Toggle(b Addon) Addon {
	if a == b {
		return AddonNone
	}
	return b
}

// AddonPolicy selects how an add-on surcharge scales.
type AddonPolicy int

const (
	// AddonPerArea charges rate × area when dimensions are known, else rate once.
	AddonPerArea AddonPolicy = iota
	// AddonFlat charges rate once per line.
	AddonFlat
)

func (p AddonPolicy) String() string {
	if p == AddonFlat {
		return "flat"
	}
	return "area"
}

// ParseAddonPolicy accepts "area" or "flat".
func ParseAddonPolicy(raw string) (AddonPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "area", "per_area", "":
		return AddonPerArea, nil
	case "flat":
		return AddonFlat, nil
	default:
		return AddonPerArea, fmt.Errorf("unknown add-on policy %q", raw)
	}
}

// AddonCharge is an active add-on and its rate.
type AddonCharge struct {
	Addon Addon
	Rate  decimal.Decimal
}

// Area returns width × height when both are known.
func Area(width, height units.Length) (decimal.Decimal, bool) {
	if !width.Known() || !height.Known() {
		return decimal.Zero, false
	}
	return width.Meters().Mul(height.Meters()), true
}

// BaseTotal computes the line total before add-ons. No rounding is applied.
func BaseTotal(mode Mode, qty int, rate decimal.Decimal, width, height units.Length) decimal.Decimal {
	q := decimal.NewFromInt(int64(qty))

	switch mode {
	case PerArea:
		if area, ok := Area(width, height); ok {
			return area.Mul(rate).Mul(q)
		}
		return rate.Mul(q)
	case PerLength:
		if width.Known() {
			return width.Meters().Mul(rate).Mul(q)
		}
		return rate.Mul(q)
	default:
		return rate.Mul(q)
	}
}

// Surcharge computes the add-on amount for a line.
// Under AddonPerArea the covered area is width × height × qty.
func Surcharge(policy AddonPolicy, charge AddonCharge, qty int, width, height units.Length) decimal.Decimal {
	if charge.Addon == AddonNone {
		return decimal.Zero
	}
	if policy == AddonFlat {
		return charge.Rate
	}
	if area, ok := Area(width, height); ok {
		return charge.Rate.Mul(area).Mul(decimal.NewFromInt(int64(qty)))
	}
	return charge.Rate
}

// LineTotal computes a full line total: base plus add-on surcharge, at full precision.
func LineTotal(mode Mode, qty int, rate decimal.Decimal, width, height units.Length, charge AddonCharge, policy AddonPolicy) decimal.Decimal {
	return BaseTotal(mode, qty, rate, width, height).Add(Surcharge(policy, charge, qty, width, height))
}
