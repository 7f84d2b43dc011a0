package units

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NotApplicable is the marker shown and accepted for a dimension that does not apply.
const NotApplicable = "X"

// DefaultThreshold is the magnitude above which a bare number is read as centimeters.
var DefaultThreshold = decimal.NewFromInt(10)

var (
	hundred  = decimal.NewFromInt(100)
	thousand = decimal.NewFromInt(1000)
)

// Length is a canonical length in meters, or unknown.
type Length struct {
	meters decimal.Decimal
	known  bool
}

// Unknown is the length of a dimension that could not be resolved.
var Unknown = Length{}

// Meters returns a known length of m meters.
func Meters(m decimal.Decimal) Length {
	return Length{meters: m, known: true}
}

// Known reports whether the length resolved to a value.
func (l Length) Known() bool { return l.known }

// Meters returns the length in meters; zero when unknown.
func (l Length) Meters() decimal.Decimal {
	if !l.known {
		return decimal.Zero
	}
	return l.meters
}

// String renders the length in meters with two decimals, or the NotApplicable marker.
func (l Length) String() string {
	if !l.known {
		return NotApplicable
	}
	return l.meters.StringFixed(2)
}

// Normalizer converts raw form input into canonical lengths.
type Normalizer struct {
	// Threshold separates bare meter values from bare centimeter values.
	// Values strictly greater than Threshold are centimeters.
	Threshold decimal.Decimal
}

// NewNormalizer returns a Normalizer using threshold, or DefaultThreshold when it is not positive.
func NewNormalizer(threshold decimal.Decimal) Normalizer {
	if !threshold.IsPositive() {
		threshold = DefaultThreshold
	}
	return Normalizer{Threshold: threshold}
}

// Normalize parses raw into a length in meters.
//
// Empty input, the NotApplicable marker and anything unparseable yield Unknown, as do
// zero and negative values. An explicit mm, cm or m suffix decides the unit; otherwise
// the magnitude heuristic applies.
func (n Normalizer) Normalize(raw string) Length {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == strings.ToLower(NotApplicable) {
		return Unknown
	}

	divisor := decimal.Zero
	switch {
	case strings.HasSuffix(s, "mm"):
		divisor = thousand
		s = strings.TrimSuffix(s, "mm")
	case strings.HasSuffix(s, "cm"):
		divisor = hundred
		s = strings.TrimSuffix(s, "cm")
	case strings.HasSuffix(s, "m"):
		divisor = decimal.NewFromInt(1)
		s = strings.TrimSuffix(s, "m")
	}

	v, ok := ParseDecimal(s)
	if !ok || !v.IsPositive() {
		return Unknown
	}

	if divisor.IsZero() {
		threshold := n.Threshold
		if !threshold.IsPositive() {
			threshold = DefaultThreshold
		}
		if v.GreaterThan(threshold) {
			divisor = hundred
		} else {
			divisor = decimal.NewFromInt(1)
		}
	}

	return Meters(v.Div(divisor))
}

// ParseDecimal parses a number that may use either '.' or ',' as decimal separator.
func ParseDecimal(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// SplitPair handles both dimensions typed into one field, e.g. "80x120".
// The pair is used when the other field is blank or also holds a pair;
// otherwise width and height are returned unchanged.
func SplitPair(width, height string) (string, string) {
	pair, ok := splitPair(width)
	if !ok {
		pair, ok = splitPair(height)
	}
	if !ok {
		return width, height
	}

	w := strings.TrimSpace(width)
	h := strings.TrimSpace(height)
	if w == "" || h == "" || strings.ContainsAny(w, "xX") || strings.ContainsAny(h, "xX") {
		return pair[0], pair[1]
	}
	return width, height
}

func splitPair(field string) ([2]string, bool) {
	lower := strings.ToLower(field)
	if !strings.Contains(lower, "x") {
		return [2]string{}, false
	}

	parts := make([]string, 0, 2)
	for _, p := range strings.Split(lower, "x") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return [2]string{}, false
	}
	return [2]string{parts[0], parts[1]}, true
}
