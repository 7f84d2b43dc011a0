package validation

import (
	"errors"
	"fmt"
)

// Constraint names the rule a value broke.
type Constraint string

const (
	Required    Constraint = "required"
	NotNumeric  Constraint = "not_numeric"
	Positive    Constraint = "must_be_positive"
	NonNegative Constraint = "must_not_be_negative"
	Ordered     Constraint = "min_exceeds_max"
	Overlap     Constraint = "overlaps_existing_tier"
	Unsupported Constraint = "unsupported"
)

// Error is a rule violation on a single field. Operations returning it have not mutated state.
type Error struct {
	Field      string
	Constraint Constraint
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Constraint)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// New returns a violation of constraint on field.
func New(field string, constraint Constraint, format string, args ...any) *Error {
	return &Error{Field: field, Constraint: constraint, Message: fmt.Sprintf(format, args...)}
}

// As extracts a validation error from err's chain.
func As(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// Is reports whether err carries a violation of constraint.
func Is(err error, constraint Constraint) bool {
	verr, ok := As(err)
	return ok && verr.Constraint == constraint
}
