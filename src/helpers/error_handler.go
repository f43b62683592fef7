package helpers

import (
	"errors"
	"fmt"
	"sync"

	"satoshi-drop/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type AppError struct {
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Helper to define distinct error types for type assertions if needed
type ConfigurationError struct{ AppError }
type NetworkError struct{ AppError }
type DatabaseError struct{ AppError }
type ValidationError struct{ AppError }

func NewDatabaseError(message string, cause error) *DatabaseError {
	return &DatabaseError{AppError{Message: message, Cause: cause}}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{AppError{Message: message}}
}

// -----------------------------------------------------------------------------
// Fetch errors
// -----------------------------------------------------------------------------

// FetchErrorKind classifies why a price fetch failed.
type FetchErrorKind string

const (
	FetchNetwork FetchErrorKind = "network"
	FetchStatus  FetchErrorKind = "status"
	FetchParse   FetchErrorKind = "parse"
)

// FetchError is returned for every failed spot price fetch.
type FetchError struct {
	AppError
	Kind       FetchErrorKind
	StatusCode int
}

func NewFetchNetworkError(cause error) *FetchError {
	return &FetchError{AppError: AppError{Message: "price request failed", Cause: cause}, Kind: FetchNetwork}
}

func NewFetchStatusError(code int) *FetchError {
	return &FetchError{
		AppError:   AppError{Message: fmt.Sprintf("unexpected status %d", code)},
		Kind:       FetchStatus,
		StatusCode: code,
	}
}

func NewFetchParseError(message string, cause error) *FetchError {
	return &FetchError{AppError: AppError{Message: message, Cause: cause}, Kind: FetchParse}
}

// AsFetchError extracts a FetchError from an error chain.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler logs failures of a recurring operation and tracks how many
// happened in a row.
type ErrorHandler struct {
	Logger               *logger.Logger
	MaxErrorsBeforeAlert int
	consecutive          int
	total                int
	mu                   sync.Mutex
}

func NewErrorHandler(log *logger.Logger, maxErrorsBeforeAlert int) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{
		Logger:               log,
		MaxErrorsBeforeAlert: maxErrorsBeforeAlert,
	}
}

// -----------------------------------------------------------------------------

// ResetErrorCount is called after a success.
func (e *ErrorHandler) ResetErrorCount() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.consecutive > 0 {
		e.Logger.Info("Recovered after %d consecutive failures", e.consecutive)
	}
	e.consecutive = 0
}

// -----------------------------------------------------------------------------

// Handle logs err and bumps the failure counters. Reaching the alert threshold
// escalates the log level.
func (e *ErrorHandler) Handle(err error, context string) {
	if err == nil {
		return
	}

	e.mu.Lock()
	e.consecutive++
	e.total++
	consecutive := e.consecutive
	e.mu.Unlock()

	if e.MaxErrorsBeforeAlert > 0 && consecutive >= e.MaxErrorsBeforeAlert {
		e.Logger.Error("Error in %s (%d in a row): %v", context, consecutive, err)
		return
	}
	e.Logger.Warning("Error in %s: %v", context, err)
}

// -----------------------------------------------------------------------------

// ConsecutiveErrors returns the number of failures since the last success.
func (e *ErrorHandler) ConsecutiveErrors() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.consecutive
}

// -----------------------------------------------------------------------------

// TotalErrors returns the number of failures since start.
func (e *ErrorHandler) TotalErrors() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total
}
