// internal/config/errors.go
//
// Typed error for settings validation failures.
//
// Context
// -------
// `Load()` fails atomically on the first field that cannot be coerced into
// its declared type or that violates a declared constraint.  The error names
// the field by its environment key (e.g., `PORT`) so operators can fix the
// environment without reading source.  Reasons never embed secret values.
package config

import "fmt"

// ValidationError reports the first invalid settings field.  Field holds the
// environment key, Reason a short human-readable cause.
type ValidationError struct {
	Field  string
	Reason string
}

// Error renders "config: invalid <FIELD>: <reason>".
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: invalid %s: %s", e.Field, e.Reason)
}
