// Package pricing orchestrates a full lease pricing run: boundary
// validation, loan amortization, the minimum-fee NPV solve, and
// client-specific commercial adjustments.
package pricing

import (
	"errors"
	"fmt"

	"fleet_pricing/pkg/core/npv"
)

// DefaultMaxFee is the fee search ceiling, per vehicle per month, used when
// a request does not set one.
const DefaultMaxFee = 50_000.0

// ErrInvalidInput marks boundary validation failures. Callers translate it
// to a 400-class response; it is always raised before any computation.
var ErrInvalidInput = errors.New("invalid pricing input")

// LeaseTerms fixes the shape of one pricing run.
type LeaseTerms struct {
	TermMonths  int `json:"term_months"`
	NumVehicles int `json:"num_vehicles"`
}

// CostProfile holds per-vehicle month-1 cost bases; both inflate thereafter.
type CostProfile struct {
	MaintenanceMonthly float64 `json:"maintenance_monthly"`
	OverheadMonthly    float64 `json:"overhead_monthly"`
}

// RateAssumptions are effective annual rates.
type RateAssumptions struct {
	InflationAnnual float64 `json:"inflation_annual"`
	DiscountAnnual  float64 `json:"discount_annual"`
}

// ResaleAssumption carries the externally supplied resale estimate. How the
// estimate was produced is outside this package's concern.
type ResaleAssumption struct {
	ValueEndPerVehicle float64 `json:"resale_value_end_per_vehicle"`
	RiskFactor         float64 `json:"resale_risk_factor"`
}

// Request bundles every input of one pricing run.
type Request struct {
	Lease       LeaseTerms
	Loan        LoanBasis
	Costs       CostProfile
	Rates       RateAssumptions
	Resale      ResaleAssumption
	Adjustments ClientAdjustments

	TargetProfitPV float64
	// MaxFee is the search ceiling; zero selects DefaultMaxFee.
	MaxFee      float64
	FeeInflates bool
}

// Result is the complete outcome of a pricing run. It is a pure derived
// value, safe to serialize verbatim.
type Result struct {
	ResaleValueEndTotal          float64           `json:"resale_value_end_total"`
	LoanPaymentMonthlyPerVehicle float64           `json:"loan_payment_monthly_per_vehicle"`
	LoanPayoffEndTotal           float64           `json:"loan_payoff_end_total"`
	BaseFee                      float64           `json:"base_fee_per_vehicle_per_month"`
	FinalFee                     float64           `json:"final_fee_per_vehicle_per_month"`
	Adjustments                  ClientAdjustments `json:"client_adjustments"`
	Breakdown                    npv.Breakdown     `json:"npv_breakdown_at_base_fee"`
	LoanDetail                   *LoanDetail       `json:"loan_detail,omitempty"`
}

func (r Request) validate() error {
	if r.Lease.TermMonths <= 0 {
		return fmt.Errorf("%w: term_months must be > 0, got %d", ErrInvalidInput, r.Lease.TermMonths)
	}
	if r.Lease.NumVehicles <= 0 {
		return fmt.Errorf("%w: num_vehicles must be > 0, got %d", ErrInvalidInput, r.Lease.NumVehicles)
	}
	if r.Loan == nil {
		return fmt.Errorf("%w: a loan basis is required (computed or manual)", ErrInvalidInput)
	}
	if r.Costs.MaintenanceMonthly < 0 {
		return fmt.Errorf("%w: maintenance_monthly must be >= 0, got %f", ErrInvalidInput, r.Costs.MaintenanceMonthly)
	}
	if r.Costs.OverheadMonthly < 0 {
		return fmt.Errorf("%w: overhead_monthly must be >= 0, got %f", ErrInvalidInput, r.Costs.OverheadMonthly)
	}
	if r.Resale.ValueEndPerVehicle < 0 {
		return fmt.Errorf("%w: resale_value_end_per_vehicle must be >= 0, got %f", ErrInvalidInput, r.Resale.ValueEndPerVehicle)
	}
	if r.Resale.RiskFactor < 0 || r.Resale.RiskFactor > 1 {
		return fmt.Errorf("%w: resale_risk_factor must be in [0,1], got %f", ErrInvalidInput, r.Resale.RiskFactor)
	}
	if r.MaxFee < 0 {
		return fmt.Errorf("%w: max_fee must be >= 0, got %f", ErrInvalidInput, r.MaxFee)
	}
	switch l := r.Loan.(type) {
	case ComputedLoan:
		if l.PurchasePrice <= 0 {
			return fmt.Errorf("%w: vehicle_purchase_price must be > 0, got %f", ErrInvalidInput, l.PurchasePrice)
		}
		if l.DownPayment < 0 || l.DownPayment > l.PurchasePrice {
			return fmt.Errorf("%w: down_payment must be in [0, vehicle_purchase_price], got %f", ErrInvalidInput, l.DownPayment)
		}
		if l.Balloon < 0 {
			return fmt.Errorf("%w: loan_balloon must be >= 0, got %f", ErrInvalidInput, l.Balloon)
		}
		if l.TermMonths < 0 {
			return fmt.Errorf("%w: loan_term_months must be >= 0, got %d", ErrInvalidInput, l.TermMonths)
		}
	case ManualLoan:
		if l.PaymentMonthly < 0 {
			return fmt.Errorf("%w: loan_payment_monthly must be >= 0, got %f", ErrInvalidInput, l.PaymentMonthly)
		}
		if l.Balloon < 0 {
			return fmt.Errorf("%w: loan_balloon must be >= 0, got %f", ErrInvalidInput, l.Balloon)
		}
	}
	return nil
}

// PriceLease runs one full pricing: amortize the loan basis, solve the
// minimum fee meeting the NPV target, and apply client adjustments. It is a
// pure function of the request; concurrent calls share nothing.
//
// Errors are terminal for the run: the caller receives either a complete
// Result or a descriptive error, never a partial result.
func PriceLease(req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}

	paymentMonthly, paymentMonths, payoffPerVehicle, err := req.Loan.leaseCashflows(req.Lease.TermMonths)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fleet := float64(req.Lease.NumVehicles)
	resaleTotal := req.Resale.ValueEndPerVehicle * fleet
	payoffTotal := payoffPerVehicle * fleet

	params := npv.LeaseParams{
		TermMonths:          req.Lease.TermMonths,
		NumVehicles:         req.Lease.NumVehicles,
		LoanPaymentMonthly:  paymentMonthly,
		LoanPaymentMonths:   paymentMonths,
		LoanPayoffEndTotal:  payoffTotal,
		MaintenanceMonthly:  req.Costs.MaintenanceMonthly,
		OverheadMonthly:     req.Costs.OverheadMonthly,
		InflationAnnual:     req.Rates.InflationAnnual,
		DiscountAnnual:      req.Rates.DiscountAnnual,
		ResaleValueEndTotal: resaleTotal,
		ResaleRiskFactor:    req.Resale.RiskFactor,
		FeeInflates:         req.FeeInflates,
	}

	maxFee := req.MaxFee
	if maxFee == 0 {
		maxFee = DefaultMaxFee
	}

	baseFee, breakdown, err := npv.SolveMinFee(params, req.TargetProfitPV, maxFee)
	if err != nil {
		return Result{}, err
	}

	finalFee, err := req.Adjustments.Apply(baseFee)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return Result{
		ResaleValueEndTotal:          resaleTotal,
		LoanPaymentMonthlyPerVehicle: paymentMonthly,
		LoanPayoffEndTotal:           payoffTotal,
		BaseFee:                      baseFee,
		FinalFee:                     finalFee,
		Adjustments:                  req.Adjustments,
		Breakdown:                    breakdown,
		LoanDetail:                   req.Loan.detail(req.Lease.TermMonths),
	}, nil
}
