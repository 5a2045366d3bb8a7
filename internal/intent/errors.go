package intent

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownAttribute  = errors.New("unknown attribute")
	ErrMalformedClause   = errors.New("malformed clause")
	ErrUnsupportedIntent = errors.New("unsupported intent")
)

// ValidationError reports the clause that failed to parse, validate or compile.
type ValidationError struct {
	Clause string
	Err    error
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid intent clause %q: %v: %s", e.Clause, e.Err, e.Reason)
	}
	return fmt.Sprintf("invalid intent clause %q: %v", e.Clause, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(clause string, err error, format string, args ...any) *ValidationError {
	return &ValidationError{Clause: clause, Err: err, Reason: fmt.Sprintf(format, args...)}
}
