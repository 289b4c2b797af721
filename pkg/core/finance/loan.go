// Package finance implements fixed-rate loan amortization for vehicle
// purchase financing, including balloon structures and the mapping of a
// loan schedule into the cashflow window of a lease.
package finance

import (
	"fmt"
	"math"
)

// Below this magnitude the annuity factor degenerates (division by the
// monthly rate); a straight-line payoff is used instead.
const zeroRateEps = 1e-12

// monthlyRateFromAPR converts a nominal annual rate to a monthly rate.
// Loan contracts quote nominal APR with monthly compounding, so this is a
// plain division, unlike the effective-annual conversion used for macro
// rates in the npv package.
func monthlyRateFromAPR(apr float64) float64 {
	return apr / 12.0
}

// MonthlyPayment returns the constant monthly installment for a fixed-rate
// loan. The balloon is the balance intentionally left outstanding at the end
// of the term (0 for a fully amortizing loan).
//
// The installment is the present-value-of-annuity inversion: the discounted
// value of termMonths equal payments plus the discounted balloon equals the
// principal at the monthly rate.
func MonthlyPayment(principal, apr float64, termMonths int, balloon float64) (float64, error) {
	if termMonths <= 0 {
		return 0, fmt.Errorf("MonthlyPayment: termMonths must be > 0, got %d", termMonths)
	}
	if principal < 0 {
		return 0, fmt.Errorf("MonthlyPayment: principal must be >= 0, got %f", principal)
	}
	if balloon < 0 {
		return 0, fmt.Errorf("MonthlyPayment: balloon must be >= 0, got %f", balloon)
	}
	if apr < -0.99 {
		return 0, fmt.Errorf("MonthlyPayment: apr too small, got %f", apr)
	}

	r := monthlyRateFromAPR(apr)
	n := float64(termMonths)

	if math.Abs(r) < zeroRateEps {
		// Straight-line payoff towards the balloon.
		if principal >= balloon {
			return (principal - balloon) / n, nil
		}
		return 0, nil
	}

	// principal = pmt*(1-(1+r)^-n)/r + balloon*(1+r)^-n
	disc := math.Pow(1.0+r, -n)
	annuity := (1.0 - disc) / r
	return (principal - balloon*disc) / annuity, nil
}

// RemainingBalance returns the outstanding balance immediately after
// paymentsMade installments. For balloon loans the balance at term end
// equals the balloon.
func RemainingBalance(principal, apr float64, termMonths, paymentsMade int, balloon float64) (float64, error) {
	if paymentsMade < 0 {
		return 0, fmt.Errorf("RemainingBalance: paymentsMade must be >= 0, got %d", paymentsMade)
	}
	if paymentsMade > termMonths {
		return 0, fmt.Errorf("RemainingBalance: paymentsMade %d exceeds termMonths %d", paymentsMade, termMonths)
	}

	pmt, err := MonthlyPayment(principal, apr, termMonths, balloon)
	if err != nil {
		return 0, err
	}

	r := monthlyRateFromAPR(apr)

	if math.Abs(r) < zeroRateEps {
		// Linear payoff towards the balloon.
		bal := principal - pmt*float64(paymentsMade)
		return math.Max(balloon, bal), nil
	}

	// Balance after k payments is the present value, at time k, of the
	// remaining payments plus the discounted balloon:
	//   B_k = pmt*(1-(1+r)^-(n-k))/r + balloon*(1+r)^-(n-k)
	rem := float64(termMonths - paymentsMade)
	discRem := math.Pow(1.0+r, -rem)
	annuityRem := (1.0 - discRem) / r
	bal := pmt*annuityRem + balloon*discRem
	return math.Max(0.0, bal), nil
}

// LeaseMapping describes a vehicle purchase loan expressed as lease-period
// cashflows: the installment paid during the lease and the lump payoff due
// when the lease ends.
type LeaseMapping struct {
	PaymentMonthlyPerVehicle   float64
	PaymentMonthsWithinLease   int
	PayoffAtLeaseEndPerVehicle float64
}

// MapLoanIntoLease converts a purchase financing plan into lease-window
// costs. The loan term may differ from the lease term: when the lease ends
// on or before the loan's scheduled end, the balance outstanding at that
// point (zero for fully amortizing loans, the balloon otherwise) becomes a
// terminal cash outflow at lease end.
func MapLoanIntoLease(purchasePrice, downPayment, apr float64, loanTermMonths, leaseTermMonths int, balloon float64) (LeaseMapping, error) {
	if purchasePrice <= 0 {
		return LeaseMapping{}, fmt.Errorf("MapLoanIntoLease: purchasePrice must be > 0, got %f", purchasePrice)
	}
	if downPayment < 0 || downPayment > purchasePrice {
		return LeaseMapping{}, fmt.Errorf("MapLoanIntoLease: downPayment must be in [0, purchasePrice], got %f", downPayment)
	}
	if leaseTermMonths <= 0 {
		return LeaseMapping{}, fmt.Errorf("MapLoanIntoLease: leaseTermMonths must be > 0, got %d", leaseTermMonths)
	}
	if loanTermMonths <= 0 {
		return LeaseMapping{}, fmt.Errorf("MapLoanIntoLease: loanTermMonths must be > 0, got %d", loanTermMonths)
	}

	principal := purchasePrice - downPayment
	pmt, err := MonthlyPayment(principal, apr, loanTermMonths, balloon)
	if err != nil {
		return LeaseMapping{}, err
	}

	monthsPaid := leaseTermMonths
	if loanTermMonths < monthsPaid {
		monthsPaid = loanTermMonths
	}

	payoff := 0.0
	if leaseTermMonths <= loanTermMonths {
		payoff, err = RemainingBalance(principal, apr, loanTermMonths, leaseTermMonths, balloon)
		if err != nil {
			return LeaseMapping{}, err
		}
	}

	return LeaseMapping{
		PaymentMonthlyPerVehicle:   pmt,
		PaymentMonthsWithinLease:   monthsPaid,
		PayoffAtLeaseEndPerVehicle: payoff,
	}, nil
}
