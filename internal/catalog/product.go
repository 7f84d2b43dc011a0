package catalog

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/units"
	"github.com/Simplici0/printquote/internal/validation"
)

// ErrProductNotFound is returned when no product has the requested name.
var ErrProductNotFound = errors.New("product not found")

// Product is a catalog entry. Name is the case-sensitive unique key.
type Product struct {
	ID            int64
	Name          string
	Rule          pricing.Rule
	DefaultWidth  units.Length
	DefaultHeight units.Length
}

// Mode returns the product's pricing mode.
func (p Product) Mode() pricing.Mode {
	if p.Rule == nil {
		return 0
	}
	return p.Rule.Mode()
}

// Tiers returns the product's volume tiers; only per-unit products have any.
func (p Product) Tiers() pricing.Tiers {
	if r, ok := p.Rule.(pricing.UnitRule); ok {
		return r.Tiers
	}
	return nil
}

// Draft is unvalidated product input as typed on the new-product form.
type Draft struct {
	Name          string
	Mode          string
	RatePerArea   string
	RatePerLength string
	FlatUnitRate  string
	DefaultWidth  string
	DefaultHeight string
}

// Build validates the draft into a Product. Only the rate matching the mode is read.
// A per-unit product may leave its flat rate blank.
func (d Draft) Build(n units.Normalizer) (Product, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return Product{}, validation.New("name", validation.Required, "name is required")
	}

	mode, err := pricing.ParseMode(d.Mode)
	if err != nil {
		return Product{}, validation.New("pricing_mode", validation.Unsupported, "pricing mode must be unit, area or length")
	}

	p := Product{
		Name:          name,
		DefaultWidth:  n.Normalize(d.DefaultWidth),
		DefaultHeight: n.Normalize(d.DefaultHeight),
	}

	switch mode {
	case pricing.PerArea:
		rate, err := requiredRate("rate_per_area", d.RatePerArea)
		if err != nil {
			return Product{}, err
		}
		p.Rule = pricing.AreaRule{Rate: rate}
	case pricing.PerLength:
		rate, err := requiredRate("rate_per_length", d.RatePerLength)
		if err != nil {
			return Product{}, err
		}
		p.Rule = pricing.LengthRule{Rate: rate}
	default:
		rule := pricing.UnitRule{}
		if strings.TrimSpace(d.FlatUnitRate) != "" {
			rate, err := requiredRate("flat_unit_rate", d.FlatUnitRate)
			if err != nil {
				return Product{}, err
			}
			rule.Rate = decimal.NewNullDecimal(rate)
		}
		p.Rule = rule
	}

	return p, nil
}

func requiredRate(field, raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, validation.New(field, validation.Required, "%s is required", field)
	}
	rate, ok := units.ParseDecimal(raw)
	if !ok {
		return decimal.Zero, validation.New(field, validation.NotNumeric, "%s must be numeric", field)
	}
	if rate.IsNegative() {
		return decimal.Zero, validation.New(field, validation.NonNegative, "%s must be greater than or equal to 0", field)
	}
	return rate, nil
}
