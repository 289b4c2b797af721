// Package models holds the wire-level request/response shapes shared by the
// HTTP API, the CLI, and scenario files. The core packages use richer typed
// inputs; these flat structs exist so one JSON/HJSON document can describe a
// complete pricing run.
package models

import (
	"fmt"

	"fleet_pricing/pkg/core/pricing"
)

// PricingRequest is the external form of a pricing run. The loan cost basis
// is mode-resolved: either loan_payment_monthly (manual mode) or
// vehicle_purchase_price + loan_apr (computed mode) must be present, never
// both.
type PricingRequest struct {
	TermMonths  int `json:"term_months"`
	NumVehicles int `json:"num_vehicles"`

	// Manual mode.
	LoanPaymentMonthly *float64 `json:"loan_payment_monthly,omitempty"`

	// Computed mode.
	VehiclePurchasePrice *float64 `json:"vehicle_purchase_price,omitempty"`
	DownPayment          float64  `json:"down_payment"`
	LoanAPR              *float64 `json:"loan_apr,omitempty"`
	// LoanTermMonths may exceed the lease term; zero means it matches it.
	LoanTermMonths int `json:"loan_term_months,omitempty"`

	// Balloon applies to both modes, per vehicle.
	LoanBalloon float64 `json:"loan_balloon"`

	MaintenanceMonthly float64 `json:"maintenance_monthly"`
	OverheadMonthly    float64 `json:"overhead_monthly"`
	InflationAnnual    float64 `json:"inflation_annual"`
	DiscountAnnual     float64 `json:"discount_annual"`

	TargetProfitPV float64 `json:"target_profit_pv"`
	MaxFee         float64 `json:"max_fee,omitempty"`
	FeeInflates    bool    `json:"fee_inflates,omitempty"`

	// ResaleValueEndPerVehicle may be omitted when Vehicle is given; the
	// caller then fills it from a resale predictor before pricing.
	ResaleValueEndPerVehicle *float64               `json:"resale_value_end_per_vehicle,omitempty"`
	Vehicle                  map[string]interface{} `json:"vehicle,omitempty"`
	// ResaleRiskFactor defaults to 1.0 (full recovery) when nil.
	ResaleRiskFactor *float64 `json:"resale_risk_factor,omitempty"`

	CreditRiskPremiumPct  float64 `json:"credit_risk_premium_pct"`
	VolumeDiscountPct     float64 `json:"volume_discount_pct"`
	RelationshipIncentive float64 `json:"relationship_incentive"`
}

// NeedsResalePrediction reports whether the request relies on an external
// predictor to supply the resale estimate.
func (r PricingRequest) NeedsResalePrediction() bool {
	return r.ResaleValueEndPerVehicle == nil
}

// ToCore resolves the wire form into the typed core request. The resale
// estimate must already be present; callers holding only vehicle features
// run the predictor first and set ResaleValueEndPerVehicle.
func (r PricingRequest) ToCore() (pricing.Request, error) {
	manual := r.LoanPaymentMonthly != nil
	computed := r.VehiclePurchasePrice != nil || r.LoanAPR != nil

	var loan pricing.LoanBasis
	switch {
	case manual && computed:
		return pricing.Request{}, fmt.Errorf("%w: loan_payment_monthly and vehicle_purchase_price/loan_apr are mutually exclusive", pricing.ErrInvalidInput)
	case manual:
		loan = pricing.ManualLoan{
			PaymentMonthly: *r.LoanPaymentMonthly,
			Balloon:        r.LoanBalloon,
		}
	case computed:
		if r.VehiclePurchasePrice == nil || r.LoanAPR == nil {
			return pricing.Request{}, fmt.Errorf("%w: computed loan mode needs both vehicle_purchase_price and loan_apr", pricing.ErrInvalidInput)
		}
		loan = pricing.ComputedLoan{
			PurchasePrice: *r.VehiclePurchasePrice,
			DownPayment:   r.DownPayment,
			APR:           *r.LoanAPR,
			TermMonths:    r.LoanTermMonths,
			Balloon:       r.LoanBalloon,
		}
	default:
		return pricing.Request{}, fmt.Errorf("%w: provide loan_payment_monthly or vehicle_purchase_price + loan_apr", pricing.ErrInvalidInput)
	}

	if r.ResaleValueEndPerVehicle == nil {
		return pricing.Request{}, fmt.Errorf("%w: resale_value_end_per_vehicle is required (or supply vehicle features to a predictor first)", pricing.ErrInvalidInput)
	}

	riskFactor := 1.0
	if r.ResaleRiskFactor != nil {
		riskFactor = *r.ResaleRiskFactor
	}

	return pricing.Request{
		Lease: pricing.LeaseTerms{TermMonths: r.TermMonths, NumVehicles: r.NumVehicles},
		Loan:  loan,
		Costs: pricing.CostProfile{
			MaintenanceMonthly: r.MaintenanceMonthly,
			OverheadMonthly:    r.OverheadMonthly,
		},
		Rates: pricing.RateAssumptions{
			InflationAnnual: r.InflationAnnual,
			DiscountAnnual:  r.DiscountAnnual,
		},
		Resale: pricing.ResaleAssumption{
			ValueEndPerVehicle: *r.ResaleValueEndPerVehicle,
			RiskFactor:         riskFactor,
		},
		Adjustments: pricing.ClientAdjustments{
			CreditRiskPremiumPct:  r.CreditRiskPremiumPct,
			VolumeDiscountPct:     r.VolumeDiscountPct,
			RelationshipIncentive: r.RelationshipIncentive,
		},
		TargetProfitPV: r.TargetProfitPV,
		MaxFee:         r.MaxFee,
		FeeInflates:    r.FeeInflates,
	}, nil
}

// PricingResponse wraps the core result with run bookkeeping for the API
// and CLI surfaces.
type PricingResponse struct {
	RunID                     string         `json:"run_id,omitempty"`
	PredictedResalePerVehicle *float64       `json:"predicted_resale_value_end_per_vehicle,omitempty"`
	Result                    pricing.Result `json:"result"`
}
