package pricing

import (
	"fmt"
	"math"
)

// ClientAdjustments are the commercial adjustments layered on top of the
// solved base fee. All three apply per vehicle per month.
type ClientAdjustments struct {
	// CreditRiskPremiumPct is a multiplicative markup, e.g. 0.05 adds 5%.
	CreditRiskPremiumPct float64 `json:"credit_risk_premium_pct"`
	// VolumeDiscountPct is a multiplicative markdown, e.g. 0.03 subtracts 3%.
	VolumeDiscountPct float64 `json:"volume_discount_pct"`
	// RelationshipIncentive is a flat amount subtracted from the fee.
	RelationshipIncentive float64 `json:"relationship_incentive"`
}

// Apply produces the final fee from the solved base fee. The order is fixed:
// the risk premium compounds on the base before the discount applies, and
// the flat incentive is subtracted last so it is not itself discounted. The
// result is floored at zero; a final fee is never negative however large the
// incentive or discount.
func (a ClientAdjustments) Apply(baseFee float64) (float64, error) {
	if baseFee < 0 {
		return 0, fmt.Errorf("ClientAdjustments.Apply: baseFee must be >= 0, got %f", baseFee)
	}
	fee := baseFee * (1.0 + a.CreditRiskPremiumPct)
	fee = fee * (1.0 - a.VolumeDiscountPct)
	fee = fee - a.RelationshipIncentive
	return math.Max(0.0, fee), nil
}
