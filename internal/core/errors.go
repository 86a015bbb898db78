// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Data errors
	ErrSymbolNotResolved = &Error{Code: "SYMBOL_NOT_RESOLVED", Message: "could not resolve identifier to symbol"}
	ErrNoData            = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrNotFound          = &Error{Code: "NOT_FOUND", Message: "not found"}

	// Provider errors. ErrProvider never leaves an adapter; it is only logged.
	ErrProvider    = &Error{Code: "PROVIDER_ERROR", Message: "provider request failed"}
	ErrRateLimited = &Error{Code: "RATE_LIMITED", Message: "provider rate limit reached"}

	// Cache errors. Absent and stale entries are the same miss.
	ErrCacheMiss = &Error{Code: "CACHE_MISS", Message: "cache entry absent or stale"}

	// Analysis errors
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for analysis"}

	// Pipeline errors
	ErrStageFailed     = &Error{Code: "STAGE_FAILED", Message: "pipeline stage failed"}
	ErrSynthesisFailed = &Error{Code: "SYNTHESIS_FAILED", Message: "advice synthesis failed"}
	ErrSynthesisEmpty  = &Error{Code: "SYNTHESIS_EMPTY", Message: "advice synthesis returned no text"}
	ErrSessionStore    = &Error{Code: "SESSION_STORE_FAILED", Message: "could not store session"}

	// API errors
	ErrUnauthorized = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid API key"}
	ErrBadRequest   = &Error{Code: "BAD_REQUEST", Message: "invalid request"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// LLM errors
	ErrLLMFailed  = &Error{Code: "LLM_FAILED", Message: "LLM request failed"}
	ErrLLMTimeout = &Error{Code: "LLM_TIMEOUT", Message: "LLM request timeout"}
)
