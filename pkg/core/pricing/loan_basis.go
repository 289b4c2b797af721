package pricing

import (
	"fmt"

	"fleet_pricing/pkg/core/finance"
)

// LoanBasis is the loan cost basis of a pricing run. Exactly one of the two
// variants is active per run: either the installment is computed from a
// purchase financing plan, or the caller supplies it directly. Modeling the
// variants as a closed sum type removes any possibility of reading a field
// that belongs to the inactive mode.
type LoanBasis interface {
	// leaseCashflows resolves the basis into per-vehicle lease-window costs:
	// the monthly installment, the number of months it is paid within the
	// lease, and the lump payoff due at lease end.
	leaseCashflows(leaseTermMonths int) (paymentMonthly float64, paymentMonths int, payoffEnd float64, err error)

	// detail reports the computed-mode echo for the result, nil for manual.
	detail(leaseTermMonths int) *LoanDetail
}

// ComputedLoan derives the installment from a per-vehicle purchase financing
// plan. TermMonths may be zero, in which case the loan term matches the
// lease term.
type ComputedLoan struct {
	PurchasePrice float64 `json:"vehicle_purchase_price"`
	DownPayment   float64 `json:"down_payment"`
	APR           float64 `json:"loan_apr"`
	TermMonths    int     `json:"loan_term_months"`
	Balloon       float64 `json:"loan_balloon"`
}

func (l ComputedLoan) leaseCashflows(leaseTermMonths int) (float64, int, float64, error) {
	loanTerm := l.TermMonths
	if loanTerm == 0 {
		loanTerm = leaseTermMonths
	}
	m, err := finance.MapLoanIntoLease(l.PurchasePrice, l.DownPayment, l.APR, loanTerm, leaseTermMonths, l.Balloon)
	if err != nil {
		return 0, 0, 0, err
	}
	return m.PaymentMonthlyPerVehicle, m.PaymentMonthsWithinLease, m.PayoffAtLeaseEndPerVehicle, nil
}

func (l ComputedLoan) detail(leaseTermMonths int) *LoanDetail {
	loanTerm := l.TermMonths
	if loanTerm == 0 {
		loanTerm = leaseTermMonths
	}
	return &LoanDetail{
		PurchasePrice: l.PurchasePrice,
		DownPayment:   l.DownPayment,
		APR:           l.APR,
		TermMonths:    loanTerm,
		Balloon:       l.Balloon,
	}
}

// ManualLoan carries a per-vehicle installment the caller already knows,
// plus the per-vehicle balloon due at lease end.
type ManualLoan struct {
	PaymentMonthly float64 `json:"loan_payment_monthly"`
	Balloon        float64 `json:"loan_balloon"`
}

func (l ManualLoan) leaseCashflows(leaseTermMonths int) (float64, int, float64, error) {
	if l.PaymentMonthly < 0 {
		return 0, 0, 0, fmt.Errorf("ManualLoan: payment must be >= 0, got %f", l.PaymentMonthly)
	}
	if l.Balloon < 0 {
		return 0, 0, 0, fmt.Errorf("ManualLoan: balloon must be >= 0, got %f", l.Balloon)
	}
	return l.PaymentMonthly, leaseTermMonths, l.Balloon, nil
}

func (l ManualLoan) detail(int) *LoanDetail { return nil }

// LoanDetail echoes the financing plan a computed-mode run was priced from.
type LoanDetail struct {
	PurchasePrice float64 `json:"vehicle_purchase_price"`
	DownPayment   float64 `json:"down_payment"`
	APR           float64 `json:"loan_apr"`
	TermMonths    int     `json:"loan_term_months"`
	Balloon       float64 `json:"loan_balloon"`
}
