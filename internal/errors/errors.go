// Package errors defines the typed error taxonomy of spec.md §7:
// every fallible core operation returns one of these kinds rather
// than a bare error, so the LSP/MCP boundary can decide between
// surfacing a diagnostic and returning a JSON-RPC error response.
package errors

import (
	"fmt"
	"time"

	"github.com/standardbeagle/i18n-ls/internal/types"
)

// ErrorType names a kind from spec.md §7, not a Go type.
type ErrorType string

const (
	ErrorTypeInputMalformed       ErrorType = "input_malformed"
	ErrorTypeInputMissing         ErrorType = "input_missing"
	ErrorTypeScopeAmbiguous       ErrorType = "scope_ambiguous"
	ErrorTypeConfigurationConflict ErrorType = "configuration_conflict"
	ErrorTypeInternalInvariant    ErrorType = "internal_invariant"
)

// IndexError is the single error type returned by every fallible
// operation in the core. Recoverable errors are downgraded to an
// empty result plus a trace-log entry by the caller; non-recoverable
// ones propagate to the LSP/MCP boundary.
type IndexError struct {
	Type        ErrorType
	FileID      types.FileID
	FilePath    string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

func newIndexError(t ErrorType, op string, err error) *IndexError {
	return &IndexError{
		Type:       t,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// InputMalformed wraps a JSON parse error or an unrecognised config
// field type. Always surfaced as a diagnostic; never fatal.
func InputMalformed(op string, err error) *IndexError {
	e := newIndexError(ErrorTypeInputMalformed, op, err)
	e.Recoverable = true
	return e
}

// InputMissing wraps a file that vanished between event and read.
// The caller downgrades this to an empty input and logs it.
func InputMissing(op, path string, err error) *IndexError {
	e := newIndexError(ErrorTypeInputMissing, op, err)
	e.FilePath = path
	e.Recoverable = true
	return e
}

// ScopeAmbiguous marks a call site that could not be resolved to a
// namespace. The usage is retained for completion but excluded from
// missing-key checks; surfaced as a hint-severity diagnostic.
func ScopeAmbiguous(op string, fileID types.FileID, path string) *IndexError {
	e := newIndexError(ErrorTypeScopeAmbiguous, op, nil)
	e.FileID = fileID
	e.FilePath = path
	e.Recoverable = true
	return e
}

// ConfigurationConflict wraps mutually exclusive config fields (e.g.
// both requiredLanguages and optionalLanguages set). The caller must
// retain the prior config and surface a visible warning.
func ConfigurationConflict(field string, err error) *IndexError {
	e := newIndexError(ErrorTypeConfigurationConflict, "config.load", err)
	e.Operation = field
	e.Recoverable = false
	return e
}

// InternalInvariant wraps an assertion the core believed impossible.
// Logged, returned as an LSP error, never panics the process.
func InternalInvariant(op string, err error) *IndexError {
	e := newIndexError(ErrorTypeInternalInvariant, op, err)
	e.Recoverable = false
	return e
}

// WithFile attaches file identity to the error and returns it for
// chaining at the call site.
func (e *IndexError) WithFile(fileID types.FileID, path string) *IndexError {
	e.FileID = fileID
	e.FilePath = path
	return e
}

func (e *IndexError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s: %s failed for %s: %v", e.Type, e.Operation, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap lets errors.Is/errors.As see through to the underlying error.
func (e *IndexError) Unwrap() error { return e.Underlying }

// IsRecoverable reports whether the caller should downgrade this to
// an empty result rather than propagate it as a hard failure.
func (e *IndexError) IsRecoverable() bool { return e.Recoverable }

// MultiError aggregates independent failures, e.g. from a batch of
// files indexed in parallel during cold start.
type MultiError struct {
	Errors []error
}

func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors, first: %v", len(e.Errors), e.Errors[0])
}

func (e *MultiError) Unwrap() []error { return e.Errors }
