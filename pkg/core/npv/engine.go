// Package npv builds the discounted-cashflow view of a fleet lease and
// solves for the minimum monthly fee that reaches a target net present
// value. All functions are pure: each call evaluates a fresh, independent
// computation with no shared state.
package npv

import (
	"fmt"
	"math"
)

// Breakdown is the discounted-cashflow decomposition of a lease at a given
// monthly fee. All values are present-value totals across the full fleet.
// It is a derived value: never mutated, recomputed wholesale per evaluation.
type Breakdown struct {
	PVLeaseRevenue   float64 `json:"pv_lease_revenue"`
	PVCosts          float64 `json:"pv_costs"`
	PVResale         float64 `json:"pv_resale"`
	PVTerminalPayoff float64 `json:"pv_terminal_payoff"`
	NPV              float64 `json:"npv"`
}

// LeaseParams holds every input to the lease cashflow model except the
// monthly fee itself. Per-vehicle quantities are marked as such; totals
// cover the whole fleet.
type LeaseParams struct {
	TermMonths  int
	NumVehicles int

	// LoanPaymentMonthly is the per-vehicle installment. Payments stop after
	// LoanPaymentMonths (0 means the full lease term).
	LoanPaymentMonthly float64
	LoanPaymentMonths  int

	// LoanPayoffEndTotal is the aggregate bullet repayment across the fleet
	// due at lease end.
	LoanPayoffEndTotal float64

	// Month-1 per-vehicle cost bases; both inflate monthly thereafter.
	MaintenanceMonthly float64
	OverheadMonthly    float64

	// Effective annual rates.
	InflationAnnual float64
	DiscountAnnual  float64

	// ResaleValueEndTotal is the fleet-wide gross resale estimate at lease
	// end; ResaleRiskFactor in [0,1] haircuts it for uncertain recovery.
	ResaleValueEndTotal float64
	ResaleRiskFactor    float64

	// FeeInflates grows the fee with inflation the same way costs do.
	// Default is a flat fee for the whole term.
	FeeInflates bool
}

// monthlyRateFromAnnual converts an effective annual rate to an effective
// monthly rate. This is the true compounding conversion, deliberately
// different from the nominal apr/12 used for loan installments: macro
// assumptions are quoted as effective annual rates, loan contracts as
// nominal APR.
func monthlyRateFromAnnual(annual float64) float64 {
	return math.Pow(1.0+annual, 1.0/12.0) - 1.0
}

// NPVOfLease evaluates the full discounted-cashflow breakdown of the lease
// at the given per-vehicle monthly fee.
//
// Month m (1-based) revenue and costs are discounted at (1+d)^-m where d is
// the effective monthly discount rate. Maintenance and overhead inflate from
// their month-1 base, so month 1 carries no inflation. Resale recovery and
// the loan payoff are single lump sums at lease end, discounted at the
// terminal factor.
func NPVOfLease(fee float64, p LeaseParams) (Breakdown, error) {
	if p.TermMonths <= 0 {
		return Breakdown{}, fmt.Errorf("NPVOfLease: TermMonths must be > 0, got %d", p.TermMonths)
	}
	if p.NumVehicles <= 0 {
		return Breakdown{}, fmt.Errorf("NPVOfLease: NumVehicles must be > 0, got %d", p.NumVehicles)
	}
	if p.DiscountAnnual < -0.99 {
		return Breakdown{}, fmt.Errorf("NPVOfLease: DiscountAnnual too small, got %f", p.DiscountAnnual)
	}
	if p.ResaleRiskFactor < 0 || p.ResaleRiskFactor > 1 {
		return Breakdown{}, fmt.Errorf("NPVOfLease: ResaleRiskFactor must be in [0,1], got %f", p.ResaleRiskFactor)
	}
	if p.LoanPaymentMonths < 0 {
		return Breakdown{}, fmt.Errorf("NPVOfLease: LoanPaymentMonths must be >= 0, got %d", p.LoanPaymentMonths)
	}

	inflM := monthlyRateFromAnnual(p.InflationAnnual)
	discM := monthlyRateFromAnnual(p.DiscountAnnual)

	loanMonths := p.LoanPaymentMonths
	if loanMonths == 0 {
		loanMonths = p.TermMonths
	}

	fleet := float64(p.NumVehicles)
	var pvRev, pvCosts float64

	for m := 1; m <= p.TermMonths; m++ {
		df := math.Pow(1.0+discM, -float64(m))
		growth := math.Pow(1.0+inflM, float64(m-1))

		feeM := fee
		if p.FeeInflates {
			feeM = fee * growth
		}
		maintM := p.MaintenanceMonthly * growth
		overheadM := p.OverheadMonthly * growth

		loanM := 0.0
		if m <= loanMonths {
			loanM = p.LoanPaymentMonthly
		}

		pvRev += feeM * fleet * df
		pvCosts += (loanM + maintM + overheadM) * fleet * df
	}

	terminalDF := math.Pow(1.0+discM, -float64(p.TermMonths))
	pvResale := p.ResaleValueEndTotal * p.ResaleRiskFactor * terminalDF
	pvPayoff := p.LoanPayoffEndTotal * terminalDF

	return Breakdown{
		PVLeaseRevenue:   pvRev,
		PVCosts:          pvCosts,
		PVResale:         pvResale,
		PVTerminalPayoff: pvPayoff,
		NPV:              pvRev + pvResale - pvCosts - pvPayoff,
	}, nil
}
