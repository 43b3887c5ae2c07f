// internal/logger/errors.go
//
// Typed error for router construction failures.
package logger

import "fmt"

// InitError reports a sink that could not be prepared while building a
// Router.  Op is "mkdir" or "open"; Path is the offending location.
type InitError struct {
	Op   string
	Path string
	Err  error
}

// Error renders "logger: <op> <path>: <cause>".
func (e *InitError) Error() string {
	return fmt.Sprintf("logger: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes the underlying OS error for errors.Is and errors.As.
func (e *InitError) Unwrap() error { return e.Err }
