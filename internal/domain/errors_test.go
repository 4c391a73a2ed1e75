package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyPassesThroughClassifiedErrors(t *testing.T) {
	cause := NewRetryableError(ErrorTypeRateLimited, fmt.Errorf("429"))
	wrapped := fmt.Errorf("calling platform: %w", cause)

	classified := Classify(wrapped)
	require.Equal(t, ErrorTypeRateLimited, classified.Type)
	require.True(t, classified.Retryable)
}

func TestClassifyMapsSentinels(t *testing.T) {
	cases := []struct {
		err       error
		errType   ErrorType
		retryable bool
	}{
		{ErrOrderNotFound, ErrorTypeNotFound, false},
		{ErrOrderNotAssignable, ErrorTypeValidation, false},
		{ErrManuallyFailed, ErrorTypeValidation, false},
		{ErrCampaignPoolMisconfigured, ErrorTypeConfiguration, false},
		{ErrServiceUnavailable, ErrorTypeCircuitOpen, true},
	}

	for _, tc := range cases {
		classified := Classify(fmt.Errorf("context: %w", tc.err))
		require.Equal(t, tc.errType, classified.Type, "%v", tc.err)
		require.Equal(t, tc.retryable, classified.Retryable, "%v", tc.err)
	}
}

func TestClassifyUnknownErrorIsRetryable(t *testing.T) {
	classified := Classify(fmt.Errorf("something odd"))
	require.Equal(t, ErrorTypeUnexpected, classified.Type)
	require.True(t, classified.Retryable)
}

func TestClassifiedErrorUnwraps(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewPermanentError(ErrorTypeValidation, cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "VALIDATION_ERROR")
}

func TestIsRetryable(t *testing.T) {
	require.True(t, IsRetryable(NewRetryableError(ErrorTypeTimeout, errors.New("t"))))
	require.False(t, IsRetryable(NewPermanentError(ErrorTypeNotFound, errors.New("n"))))
}
