package recurrence

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRule is matched by every rule validation failure.
	ErrInvalidRule = errors.New("invalid recurrence rule")
	// ErrNoOccurrenceWithinHorizon is returned by bounded searches that
	// reach their horizon without finding an occurrence.
	ErrNoOccurrenceWithinHorizon = errors.New("no occurrence within horizon")
	// ErrUnsupportedRule is returned when an RRULE uses parts this
	// package cannot represent.
	ErrUnsupportedRule = errors.New("unsupported recurrence rule")
	// ErrTooManyOccurrences is returned by Engine.Expand when a range
	// holds more occurrences than EngineConfig.MaxOccurrences.
	ErrTooManyOccurrences = errors.New("too many occurrences in range")
)

// Violation names one rule field that failed validation
type Violation struct {
	Field  string
	Reason string
}

// RuleError lists every violation found while constructing a Rule
type RuleError struct {
	Violations []Violation
}

func (e *RuleError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s %s", v.Field, v.Reason))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidRule, strings.Join(parts, "; "))
}

func (e *RuleError) Unwrap() error {
	return ErrInvalidRule
}

// Fields returns the names of the violated fields in report order
func (e *RuleError) Fields() []string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}
