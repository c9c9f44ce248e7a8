// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "fmt"

// ValidationError reports malformed input: bad seat counts, unknown or
// duplicate candidates, or an invalid time range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StateError reports an operation the election's current status forbids.
type StateError struct {
	Op     string
	Status Status
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s in %s election: %s", e.Op, e.Status, e.Reason)
}

// NotFoundError reports an unknown election or candidate.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
