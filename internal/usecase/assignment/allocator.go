package assignment

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/smmpanel/campaign-distribution-service/internal/domain"
)

// PoolSize is the number of fixed campaigns every order is spread across.
const PoolSize = 3

// Allocate converts target views into per-campaign click quotas. The total
// is ceil(views * coefficient); the division remainder goes to the first
// slot, so the quotas always sum to the total exactly.
func Allocate(targetViews int, coefficient decimal.Decimal) ([PoolSize]int, error) {
	var quotas [PoolSize]int

	if targetViews <= 0 {
		return quotas, domain.NewPermanentError(domain.ErrorTypeValidation,
			fmt.Errorf("target views must be positive, got %d", targetViews))
	}
	if coefficient.Sign() <= 0 {
		return quotas, domain.NewPermanentError(domain.ErrorTypeValidation,
			fmt.Errorf("coefficient must be positive, got %s", coefficient))
	}

	total := decimal.NewFromInt(int64(targetViews)).Mul(coefficient).Ceil().IntPart()
	if total > math.MaxInt32 {
		return quotas, domain.NewPermanentError(domain.ErrorTypeValidation,
			fmt.Errorf("total clicks %d exceeds allocatable range", total))
	}

	base := int(total / PoolSize)
	remainder := int(total % PoolSize)

	quotas[0] = base + remainder
	for i := 1; i < PoolSize; i++ {
		quotas[i] = base
	}
	return quotas, nil
}
