package catalog

import (
	"testing"

	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/units"
	"github.com/Simplici0/printquote/internal/validation"
)

func TestDraftBuild(t *testing.T) {
	n := units.NewNormalizer(units.DefaultThreshold)

	p, err := Draft{Name: " Banner ", Mode: "m2", RatePerArea: "25,50", RatePerLength: "garbage", DefaultWidth: "120", DefaultHeight: "X"}.Build(n)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Name != "Banner" {
		t.Fatalf("name = %q, want trimmed", p.Name)
	}
	rule, ok := p.Rule.(pricing.AreaRule)
	if !ok || !rule.Rate.Equal(dec("25.5")) {
		t.Fatalf("rule = %#v", p.Rule)
	}
	if !p.DefaultWidth.Meters().Equal(dec("1.2")) || p.DefaultHeight.Known() {
		t.Fatalf("defaults = %s x %s", p.DefaultWidth, p.DefaultHeight)
	}

	p, err = Draft{Name: "Sticker", Mode: "unit"}.Build(n)
	if err != nil {
		t.Fatalf("Build unit without rate: %v", err)
	}
	if r := p.Rule.(pricing.UnitRule); r.Rate.Valid {
		t.Fatalf("unexpected flat rate %s", r.Rate.Decimal)
	}
}

func TestDraftBuildViolations(t *testing.T) {
	n := units.NewNormalizer(units.DefaultThreshold)

	cases := []struct {
		name       string
		draft      Draft
		field      string
		constraint validation.Constraint
	}{
		{"missing name", Draft{Mode: "unit"}, "name", validation.Required},
		{"bad mode", Draft{Name: "A", Mode: "kg"}, "pricing_mode", validation.Unsupported},
		{"area without rate", Draft{Name: "A", Mode: "area"}, "rate_per_area", validation.Required},
		{"length rate not numeric", Draft{Name: "A", Mode: "length", RatePerLength: "ten"}, "rate_per_length", validation.NotNumeric},
		{"negative unit rate", Draft{Name: "A", Mode: "unit", FlatUnitRate: "-1"}, "flat_unit_rate", validation.NonNegative},
	}

	for _, tc := range cases {
		_, err := tc.draft.Build(n)
		verr, ok := validation.As(err)
		if !ok {
			t.Fatalf("%s: err = %v, want validation error", tc.name, err)
		}
		if verr.Field != tc.field || verr.Constraint != tc.constraint {
			t.Fatalf("%s: violation = %+v, want %s/%s", tc.name, verr, tc.field, tc.constraint)
		}
	}
}
