package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound             = errors.New("order not found")
	ErrOrderNotAssignable        = errors.New("order is not in an assignable state")
	ErrCampaignPoolMisconfigured = errors.New("fixed campaign pool must contain exactly 3 active campaigns")
	ErrServiceUnavailable        = errors.New("external platform unavailable")
	ErrVersionConflict           = errors.New("concurrent update detected")
	ErrManuallyFailed            = errors.New("order was manually failed by operator")
)

type ErrorType string

const (
	ErrorTypeTimeout           ErrorType = "TIMEOUT"
	ErrorTypeExternal          ErrorType = "EXTERNAL_API_ERROR"
	ErrorTypeRateLimited       ErrorType = "RATE_LIMITED"
	ErrorTypeCircuitOpen       ErrorType = "CIRCUIT_OPEN"
	ErrorTypeExhausted         ErrorType = "RESOURCE_EXHAUSTED"
	ErrorTypeValidation        ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound          ErrorType = "NOT_FOUND"
	ErrorTypeInsufficientFunds ErrorType = "INSUFFICIENT_BALANCE"
	ErrorTypeMalformedResponse ErrorType = "MALFORMED_RESPONSE"
	ErrorTypeConfiguration     ErrorType = "CONFIGURATION_ERROR"
	ErrorTypeUnexpected        ErrorType = "UNEXPECTED_ERROR"
)

// ClassifiedError carries the retryable/permanent decision with the cause,
// so callers never have to inspect transport details.
type ClassifiedError struct {
	Type      ErrorType
	Retryable bool
	Err       error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Type, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

func NewRetryableError(errType ErrorType, err error) *ClassifiedError {
	return &ClassifiedError{Type: errType, Retryable: true, Err: err}
}

func NewPermanentError(errType ErrorType, err error) *ClassifiedError {
	return &ClassifiedError{Type: errType, Retryable: false, Err: err}
}

// Classify normalizes any error into a ClassifiedError. Already-classified
// errors pass through; known sentinels map to permanent failures; anything
// else counts as a retryable unexpected error.
func Classify(err error) *ClassifiedError {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	switch {
	case errors.Is(err, ErrOrderNotFound):
		return NewPermanentError(ErrorTypeNotFound, err)
	case errors.Is(err, ErrOrderNotAssignable), errors.Is(err, ErrManuallyFailed):
		return NewPermanentError(ErrorTypeValidation, err)
	case errors.Is(err, ErrCampaignPoolMisconfigured):
		return NewPermanentError(ErrorTypeConfiguration, err)
	case errors.Is(err, ErrServiceUnavailable):
		return NewRetryableError(ErrorTypeCircuitOpen, err)
	}

	return NewRetryableError(ErrorTypeUnexpected, err)
}

// IsRetryable reports whether err should be handed to the retry pipeline.
func IsRetryable(err error) bool {
	return Classify(err).Retryable
}
