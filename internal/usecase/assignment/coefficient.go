package assignment

import (
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/smmpanel/campaign-distribution-service/internal/domain"
)

// maxCoefficient bounds operator-entered coefficients. Values outside
// (0, 10] are treated as misconfiguration and replaced by the default.
var maxCoefficient = decimal.NewFromInt(10)

// CoefficientResolver maps (service, clip variant) to the views-to-clicks
// coefficient, falling back to the configured default when the lookup
// misses or the stored value is out of range.
type CoefficientResolver struct {
	coefficientRepo domain.CoefficientRepository
	defaultValue    decimal.Decimal
}

func NewCoefficientResolver(coefficientRepo domain.CoefficientRepository, defaultValue decimal.Decimal) *CoefficientResolver {
	return &CoefficientResolver{
		coefficientRepo: coefficientRepo,
		defaultValue:    defaultValue,
	}
}

// Resolve never fails: a broken coefficient table must not block
// distribution, so lookup errors degrade to the default.
func (r *CoefficientResolver) Resolve(serviceID int64, clipCreated bool) decimal.Decimal {
	withoutClip := !clipCreated

	coefficient, err := r.coefficientRepo.GetByServiceID(serviceID, withoutClip)
	if err != nil {
		slog.Warn("coefficient lookup failed, using default",
			"service_id", serviceID,
			"without_clip", withoutClip,
			"default", r.defaultValue,
			"error", err.Error())
		return r.defaultValue
	}
	if coefficient == nil {
		return r.defaultValue
	}

	if coefficient.Coefficient.Sign() <= 0 || coefficient.Coefficient.GreaterThan(maxCoefficient) {
		slog.Warn("stored coefficient out of range, using default",
			"service_id", serviceID,
			"without_clip", withoutClip,
			"stored", coefficient.Coefficient,
			"default", r.defaultValue)
		return r.defaultValue
	}

	return coefficient.Coefficient
}
