package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssignable(t *testing.T) {
	cases := []struct {
		status         OrderStatus
		manuallyFailed bool
		want           bool
	}{
		{StatusPending, false, true},
		{StatusRetryScheduled, false, true},
		{StatusDistributing, false, false},
		{StatusProcessing, false, false},
		{StatusCompleted, false, false},
		{StatusDeadLettered, false, false},
		{StatusPending, true, false},
		{StatusRetryScheduled, true, false},
	}

	for _, tc := range cases {
		o := &Order{Status: tc.status, Recovery: RecoveryState{ManuallyFailed: tc.manuallyFailed}}
		require.Equal(t, tc.want, o.Assignable(),
			"status=%s manually_failed=%t", tc.status, tc.manuallyFailed)
	}
}
