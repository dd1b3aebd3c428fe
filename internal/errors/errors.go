package errors

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// ERROR CODES
// =============================================================================

// Error code constants for structured errors
const (
	CodeConfigurationError     = "CONFIGURATION_ERROR"
	CodeUnregisteredIdentifier = "UNREGISTERED_IDENTIFIER"
	CodeConstructionError      = "CONSTRUCTION_ERROR"
	CodeCleanupError           = "CLEANUP_ERROR"
	CodeArgumentBindingError   = "ARGUMENT_BINDING_ERROR"
	CodeTypeMismatch           = "TYPE_MISMATCH"
)

// =============================================================================
// INJECT ERROR (STRUCTURED ERROR)
// =============================================================================

// InjectError represents a structured error with context
type InjectError struct {
	Code      string
	Message   string
	Cause     error
	Timestamp time.Time
	Context   map[string]any
}

func (e *InjectError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *InjectError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for InjectError.
// Compares by error code, allowing matching against sentinel errors.
func (e *InjectError) Is(target error) bool {
	t, ok := target.(*InjectError)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithContext adds context to the error
func (e *InjectError) WithContext(key string, value any) *InjectError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrConfigurationError creates a configuration error, raised when a
// registration conflicts with earlier declarations (e.g. a scope-policy
// redeclaration) or carries an invalid scope policy.
func ErrConfigurationError(message string, cause error) *InjectError {
	return &InjectError{
		Code:      CodeConfigurationError,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
		Context:   make(map[string]any),
	}
}

// ErrUnregisteredIdentifier creates an error for a resolve or effective
// lookup against an identifier with no registered constructors.
func ErrUnregisteredIdentifier(identifier string) *InjectError {
	return &InjectError{
		Code:      CodeUnregisteredIdentifier,
		Message:   "identifier '" + identifier + "' is not registered for injection",
		Timestamp: time.Now(),
		Context:   map[string]any{"identifier": identifier},
	}
}

// ErrConstructionError wraps a factory failure with the identifier and the
// scope key under which construction was attempted.
func ErrConstructionError(identifier, scopeKey string, cause error) *InjectError {
	return &InjectError{
		Code:      CodeConstructionError,
		Message:   "failed to construct '" + identifier + "'",
		Cause:     cause,
		Timestamp: time.Now(),
		Context:   map[string]any{"identifier": identifier, "scope_key": scopeKey},
	}
}

// ErrCleanupError wraps a Dispose failure during eviction. Cleanup errors
// are reported and never block eviction of sibling entries.
func ErrCleanupError(identifier string, cause error) *InjectError {
	return &InjectError{
		Code:      CodeCleanupError,
		Message:   "cleanup failed for instance of '" + identifier + "'",
		Cause:     cause,
		Timestamp: time.Now(),
		Context:   map[string]any{"identifier": identifier},
	}
}

// ErrArgumentBindingError creates an error for reflective constructor
// registration when a parameter can neither be bound nor resolved.
func ErrArgumentBindingError(identifier string, cause error) *InjectError {
	return &InjectError{
		Code:      CodeArgumentBindingError,
		Message:   "cannot bind constructor arguments for '" + identifier + "'",
		Cause:     cause,
		Timestamp: time.Now(),
		Context:   map[string]any{"identifier": identifier},
	}
}

// ErrTypeMismatch creates an error for a typed resolution whose resolved
// instance has an unexpected dynamic type.
func ErrTypeMismatch(identifier, wantType string) *InjectError {
	return &InjectError{
		Code:      CodeTypeMismatch,
		Message:   fmt.Sprintf("instance of '%s' is not of type %s", identifier, wantType),
		Timestamp: time.Now(),
		Context:   map[string]any{"identifier": identifier, "want_type": wantType},
	}
}

// =============================================================================
// STANDARD ERRORS PACKAGE INTEGRATION
// =============================================================================

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is from the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target, and if so,
// sets target to that error value and returns true. Otherwise, it returns false.
// This is a convenience wrapper around errors.As from the standard library.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err, if err's
// type contains an Unwrap method returning error. Otherwise, Unwrap returns nil.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Join returns an error that wraps the given errors.
// Any nil error values are discarded.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// =============================================================================
// SENTINEL ERRORS (for use with Is)
// =============================================================================

// Sentinel errors that can be used with errors.Is comparisons
var (
	// ErrConfigurationSentinel is a sentinel error for configuration errors
	ErrConfigurationSentinel = &InjectError{Code: CodeConfigurationError}

	// ErrUnregisteredSentinel is a sentinel error for unregistered identifiers
	ErrUnregisteredSentinel = &InjectError{Code: CodeUnregisteredIdentifier}

	// ErrConstructionSentinel is a sentinel error for construction failures
	ErrConstructionSentinel = &InjectError{Code: CodeConstructionError}

	// ErrCleanupSentinel is a sentinel error for cleanup failures
	ErrCleanupSentinel = &InjectError{Code: CodeCleanupError}

	// ErrArgumentBindingSentinel is a sentinel error for constructor binding failures
	ErrArgumentBindingSentinel = &InjectError{Code: CodeArgumentBindingError}

	// ErrTypeMismatchSentinel is a sentinel error for typed resolution mismatches
	ErrTypeMismatchSentinel = &InjectError{Code: CodeTypeMismatch}
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigurationError checks if the error is a configuration error
func IsConfigurationError(err error) bool {
	return Is(err, ErrConfigurationSentinel)
}

// IsUnregisteredIdentifier checks if the error is an unregistered identifier error
func IsUnregisteredIdentifier(err error) bool {
	return Is(err, ErrUnregisteredSentinel)
}

// IsConstructionError checks if the error is a construction error
func IsConstructionError(err error) bool {
	return Is(err, ErrConstructionSentinel)
}

// IsCleanupError checks if the error is a cleanup error
func IsCleanupError(err error) bool {
	return Is(err, ErrCleanupSentinel)
}

// IsTypeMismatch checks if the error is a typed resolution mismatch
func IsTypeMismatch(err error) bool {
	return Is(err, ErrTypeMismatchSentinel)
}
