// internal/config/secret.go
//
// Masked string type for credential-bearing settings fields.
//
// Context
// -------
// Fields such as `OPENAI_API_KEY` must never leak through logs, error
// messages, or serialized settings dumps.  Secret masks itself everywhere Go
// renders values implicitly (fmt verbs, zap fields, JSON and text
// marshaling) and yields the raw value only through an explicit `Reveal()`
// call, so any unmasked use is grep-able.
//
// Notes
// -----
// - zap.Any picks the fmt.Stringer branch for Secret, and reflected
//   encoders hit MarshalText, so both structured-log paths stay masked.
// - Oxford commas, two spaces after periods.

package config

// secretMask replaces non-empty secret values in every rendered form.
const secretMask = "***"

// Secret is a string whose value is masked in all implicit renderings.
// Call Reveal to obtain the raw value at the point of use.
type Secret string

// Reveal returns the raw secret value.
func (s Secret) Reveal() string { return string(s) }

// Empty reports whether no value was supplied.
func (s Secret) Empty() bool { return s == "" }

// String implements fmt.Stringer.  Empty secrets render as "" so a missing
// credential is not mistaken for a configured one.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return secretMask
}

// GoString implements fmt.GoStringer, masking `%#v` output.
func (s Secret) GoString() string { return `config.Secret("` + s.String() + `")` }

// MarshalText implements encoding.TextMarshaler so JSON, YAML, and text
// encoders emit the mask instead of the raw value.
func (s Secret) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
