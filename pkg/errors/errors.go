package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNotFound means the site has no vehicle for the plate
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeUnexpectedFormat means the page no longer matches the parsing assumptions
	ErrorTypeUnexpectedFormat ErrorType = "unexpected_format"
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeStatus represents non-retryable HTTP status errors
	ErrorTypeStatus ErrorType = "status"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeStore represents database errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents a scraper-specific error
type ScrapeError struct {
	Type     ErrorType
	Provider string
	Message  string
	Err      error
	Time     time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Provider, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, provider, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:     errType,
		Provider: provider,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewNotFound creates a new not found error
func NewNotFound(provider, message string) *ScrapeError {
	return New(ErrorTypeNotFound, provider, message, nil)
}

// NewUnexpectedFormat creates a new layout mismatch error
func NewUnexpectedFormat(provider, message string, err error) *ScrapeError {
	return New(ErrorTypeUnexpectedFormat, provider, message, err)
}

// NewNetwork creates a new network error
func NewNetwork(provider, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, provider, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(provider string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, provider, message, nil)
}

// NewStatus creates a new HTTP status error
func NewStatus(provider string, statusCode int, url string) *ScrapeError {
	return New(ErrorTypeStatus, provider, fmt.Sprintf("unexpected status code %d for %s", statusCode, url), nil)
}

// NewCache creates a new cache error
func NewCache(provider, message string, err error) *ScrapeError {
	return New(ErrorTypeCache, provider, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(provider, message string, err error) *ScrapeError {
	return New(ErrorTypePublisher, provider, message, err)
}

// NewStore creates a new store error
func NewStore(provider, message string, err error) *ScrapeError {
	return New(ErrorTypeStore, provider, message, err)
}

// NewValidation creates a new validation error
func NewValidation(provider, message string) *ScrapeError {
	return New(ErrorTypeValidation, provider, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the type of the first ScrapeError in the chain, or "" if there is none
func TypeOf(err error) ErrorType {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Type
	}
	return ""
}

// IsNotFound reports whether err is a not found error
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsUnexpectedFormat reports whether err is a layout mismatch
func IsUnexpectedFormat(err error) bool {
	return TypeOf(err) == ErrorTypeUnexpectedFormat
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsRetryable reports whether err may succeed when retried
func IsRetryable(err error) bool {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.IsRetryable()
	}
	return false
}
