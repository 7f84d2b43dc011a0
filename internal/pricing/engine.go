package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/printquote/internal/units"
)

// PriceSource tells where the resolved unit price or rate came from.
type PriceSource string

const (
	SourceTier        PriceSource = "tier"
	SourceFlatRate    PriceSource = "flat_rate"
	SourceProductRate PriceSource = "product_rate"
	SourceManual      PriceSource = "manual"
)

// Request carries the raw form values of one line.
type Request struct {
	// Mode applies to manual lines only; a product's rule decides the mode otherwise.
	Mode      Mode
	Quantity  string
	Price     string
	Width     string
	Height    string
	Addon     Addon
	AddonRate string
}

// Result is a computed line. Amounts are unrounded.
type Result struct {
	Mode      Mode
	Quantity  int
	UnitPrice decimal.Decimal
	Source    PriceSource
	Width     units.Length
	Height    units.Length
	Area      decimal.NullDecimal
	Base      decimal.Decimal
	Surcharge decimal.Decimal
	Addon     Addon
	Total     decimal.Decimal
}

// Engine computes line totals. The zero value uses the default threshold and the per-area add-on policy.
type Engine struct {
	Units  units.Normalizer
	Addons AddonPolicy
}

// NewEngine returns an Engine with the given cm/m threshold and add-on policy.
func NewEngine(threshold decimal.Decimal, policy AddonPolicy) Engine {
	return Engine{Units: units.NewNormalizer(threshold), Addons: policy}
}

// Compute prices a line. rule is nil for a manual line.
// Unparseable input degrades to defaults; Compute never fails.
func (e Engine) Compute(rule Rule, req Request) Result {
	qty := ParseQuantity(req.Quantity)
	manual, _ := units.ParseDecimal(req.Price)

	rawW, rawH := units.SplitPair(req.Width, req.Height)
	width := e.Units.Normalize(rawW)
	height := e.Units.Normalize(rawH)

	mode, rate, source := resolveRate(rule, req.Mode, qty, manual)

	charge := AddonCharge{Addon: req.Addon}
	if req.Addon != AddonNone {
		charge.Rate, _ = units.ParseDecimal(req.AddonRate)
	}

	res := Result{
		Mode:      mode,
		Quantity:  qty,
		UnitPrice: rate,
		Source:    source,
		Width:     width,
		Height:    height,
		Addon:     req.Addon,
		Base:      BaseTotal(mode, qty, rate, width, height),
		Surcharge: Surcharge(e.Addons, charge, qty, width, height),
	}
	if area, ok := Area(width, height); ok {
		res.Area = decimal.NewNullDecimal(area)
	}
	res.Total = res.Base.Add(res.Surcharge)
	return res
}

func resolveRate(rule Rule, requested Mode, qty int, manual decimal.Decimal) (Mode, decimal.Decimal, PriceSource) {
	switch r := rule.(type) {
	case AreaRule:
		return PerArea, r.Rate, SourceProductRate
	case LengthRule:
		return PerLength, r.Rate, SourceProductRate
	case UnitRule:
		if price, ok := r.Tiers.Lookup(qty); ok {
			return PerUnit, price, SourceTier
		}
		if r.Rate.Valid {
			return PerUnit, r.Rate.Decimal, SourceFlatRate
		}
		return PerUnit, manual, SourceManual
	}

	if !requested.Valid() {
		requested = PerUnit
	}
	return requested, manual, SourceManual
}

// ParseQuantity reads a positive whole quantity; anything else is 1.
// Fractional input is truncated ("2.0" and "2,7" are 2).
func ParseQuantity(raw string) int {
	v, ok := units.ParseDecimal(strings.TrimSpace(raw))
	if !ok {
		return 1
	}
	v = v.Truncate(0)
	if !v.IsPositive() || v.GreaterThan(decimal.NewFromInt(maxQuantity)) {
		return 1
	}
	return int(v.IntPart())
}

const maxQuantity = 1<<31 - 1
