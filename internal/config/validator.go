// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateSettings` immediately after it
// unmarshals the merged Koanf tree into a `Settings` instance.  Any rule
// violation aborts the load, ensuring the process never runs with partial,
// malformed, or missing configuration.
//
// Raw validator errors name Go struct fields and tag internals, which mean
// nothing to an operator editing environment variables.  This wrapper maps
// the first failure back to its environment key and a plain-language reason,
// and never quotes field values, so secret-bearing fields cannot leak
// through error text.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// internal API
//

// validateSettings returns nil on success, or a *ValidationError naming the
// first offending field by its environment key.
func validateSettings(s *Settings) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		name := fe.StructField()
		if f, ok := fieldByGoName[name]; ok {
			name = f.env
		}
		return &ValidationError{Field: name, Reason: constraintReason(fe)}
	}
	// InvalidValidationError and friends: programming errors, not operator
	// input, so surface them untranslated.
	return fmt.Errorf("config: validate: %w", err)
}

// constraintReason renders one failed rule as operator-facing text.  Port
// gets a bespoke message because its three rules all mean the same thing.
func constraintReason(fe validator.FieldError) string {
	if fe.StructField() == "Port" {
		return "must be a TCP port between 1 and 65535"
	}
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "url":
		return "must be a valid URL"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	}
	return "fails the " + fe.Tag() + " rule"
}
