// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, capital, stop-loss settings
//   - Data/Resource errors (200-299): Missing symbols, unavailable or malformed price series
//   - Indicator errors (300-399): Technical indicator calculation errors
//   - Strategy errors (400-499): Strategy lookup, configuration and pair eligibility
//   - Cost model errors (500-599): Broker cost profile lookup and validation
//   - Backtest errors (600-699): Simulator initialization, cancellation and output
//   - Market data errors (700-799): Provider fetching and parsing errors
//
// Two errors are "reportable": InsufficientDataError and ErrCodeNonStationaryPair.
// They describe a backtest that could not produce trades, and callers turn them into
// a note on the result instead of failing the whole request. Everything else propagates.
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeSymbolNotFound, "symbol %s not found", symbol)
//
//	if errors.HasCode(err, errors.ErrCodeMalformedPriceSeries) { ... }
//
//	if errors.IsReportable(err) { result.Notes = append(result.Notes, err.Error()) }
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error chain.
// An InsufficientDataError maps to ErrCodeInsufficientData.
// Returns ErrCodeUnknown if no coded error is found.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	if IsInsufficientDataError(err) {
		return ErrCodeInsufficientData
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsReportable reports whether err should be attached to a result as a note
// rather than failing the request.
func IsReportable(err error) bool {
	return IsInsufficientDataError(err) || HasCode(err, ErrCodeNonStationaryPair)
}

// InsufficientDataError is returned when a series is too short for an indicator warm-up.
type InsufficientDataError struct {
	Required int    // Minimum data points required
	Actual   int    // Actual data points available
	Symbol   string // Optional: symbol context
	Message  string // Human-readable message
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(required, actual int, symbol, message string) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  message,
	}
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}

// NewMalformedPriceSeriesError reports a bar that cannot be simulated.
func NewMalformedPriceSeriesError(symbol string, index int, date time.Time, reason string) *Error {
	return Newf(ErrCodeMalformedPriceSeries, "malformed price series for %s at bar %d (%s): %s",
		symbol, index, date.Format(time.DateOnly), reason)
}

// NewSymbolNotFoundError reports an unknown symbol at the provider.
func NewSymbolNotFoundError(symbol string) *Error {
	return Newf(ErrCodeSymbolNotFound, "symbol %s not found", symbol)
}

// NewDataUnavailableError reports a provider that could not serve a series.
func NewDataUnavailableError(symbol string, cause error) *Error {
	return Wrapf(ErrCodeDataUnavailable, cause, "price data unavailable for %s", symbol)
}

// NewNonStationaryPairError reports a pair that failed the cointegration check.
func NewNonStationaryPairError(symbolA, symbolB string, pValue float64) *Error {
	return Newf(ErrCodeNonStationaryPair, "pair %s/%s is not stationary (p-value %.4f)", symbolA, symbolB, pValue)
}
