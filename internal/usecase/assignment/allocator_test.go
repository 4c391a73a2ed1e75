package assignment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestAllocateEvenSplit(t *testing.T) {
	quotas, err := Allocate(1000, decimal.NewFromFloat(3.0))
	require.NoError(t, err)
	require.Equal(t, [PoolSize]int{1000, 1000, 1000}, quotas)
}

func TestAllocateRemainderGoesToFirstSlot(t *testing.T) {
	// ceil(1000 * 3.1) = 3100, 3100 = 1034 + 1033 + 1033
	quotas, err := Allocate(1000, decimal.NewFromFloat(3.1))
	require.NoError(t, err)
	require.Equal(t, [PoolSize]int{1034, 1033, 1033}, quotas)
}

func TestAllocateFractionalTotalRoundsUp(t *testing.T) {
	// 7 * 0.5 = 3.5, rounds up to 4 clicks total
	quotas, err := Allocate(7, decimal.NewFromFloat(0.5))
	require.NoError(t, err)
	require.Equal(t, [PoolSize]int{2, 1, 1}, quotas)
}

func TestAllocateConservation(t *testing.T) {
	coefficients := []decimal.Decimal{
		decimal.NewFromFloat(0.1),
		decimal.NewFromFloat(1.0),
		decimal.NewFromFloat(2.5),
		decimal.NewFromFloat(3.0),
		decimal.NewFromFloat(3.17),
		decimal.NewFromFloat(9.99),
	}
	views := []int{1, 2, 3, 10, 99, 1000, 12345, 999999}

	for _, coefficient := range coefficients {
		for _, v := range views {
			quotas, err := Allocate(v, coefficient)
			require.NoError(t, err)

			expected := decimal.NewFromInt(int64(v)).Mul(coefficient).Ceil().IntPart()
			sum := 0
			for _, q := range quotas {
				require.GreaterOrEqual(t, q, 0)
				sum += q
			}
			require.Equal(t, int(expected), sum,
				"views=%d coefficient=%s", v, coefficient)

			// Slots never differ by more than the remainder.
			require.LessOrEqual(t, quotas[0]-quotas[2], PoolSize-1)
			require.Equal(t, quotas[1], quotas[2])
		}
	}
}

func TestAllocateRejectsBadInput(t *testing.T) {
	_, err := Allocate(0, decimal.NewFromFloat(3.0))
	require.Error(t, err)
	require.False(t, domain.IsRetryable(err))

	_, err = Allocate(-5, decimal.NewFromFloat(3.0))
	require.Error(t, err)

	_, err = Allocate(100, decimal.Zero)
	require.Error(t, err)
	require.False(t, domain.IsRetryable(err))

	_, err = Allocate(100, decimal.NewFromFloat(-1.5))
	require.Error(t, err)
}
