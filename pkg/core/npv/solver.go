package npv

import (
	"fmt"
)

const (
	// solverMaxIterations bounds the bisection; 200 halvings of any realistic
	// fee range converge far below sub-cent precision.
	solverMaxIterations = 200

	// solverRelTolerance stops the search once the bracket width is within
	// this relative tolerance of the upper bound.
	solverRelTolerance = 1e-6
)

// InfeasibleTargetError reports that the target NPV cannot be reached even
// at the configured fee ceiling. It carries the NPV achieved at the ceiling
// so callers can report the shortfall precisely.
type InfeasibleTargetError struct {
	TargetProfitPV float64
	AchievedNPV    float64
	MaxFee         float64
}

func (e *InfeasibleTargetError) Error() string {
	return fmt.Sprintf("target profit PV unreachable under fee ceiling: npv_at_max_fee=%.2f target=%.2f max_fee=%.2f",
		e.AchievedNPV, e.TargetProfitPV, e.MaxFee)
}

// SolveMinFee finds the minimum per-vehicle monthly fee whose lease NPV
// meets or exceeds targetProfitPV, searching [0, maxFee] by bisection.
//
// Correctness rests on NPVOfLease being monotonically non-decreasing in the
// fee: the revenue term is the only fee-dependent term and enters linearly
// with a positive coefficient. The solver returns the upper bracket bound,
// so the reported fee always meets the target rather than falling short by
// floor-side rounding.
func SolveMinFee(p LeaseParams, targetProfitPV, maxFee float64) (float64, Breakdown, error) {
	if maxFee < 0 {
		return 0, Breakdown{}, fmt.Errorf("SolveMinFee: maxFee must be >= 0, got %f", maxFee)
	}

	lo, hi := 0.0, maxFee

	bHi, err := NPVOfLease(hi, p)
	if err != nil {
		return 0, Breakdown{}, err
	}
	if bHi.NPV < targetProfitPV {
		return 0, Breakdown{}, &InfeasibleTargetError{
			TargetProfitPV: targetProfitPV,
			AchievedNPV:    bHi.NPV,
			MaxFee:         maxFee,
		}
	}

	// A zero fee can already meet the target when resale recovery outweighs
	// all costs; the minimum feasible fee is then the domain floor and there
	// is no root to search for.
	bLo, err := NPVOfLease(lo, p)
	if err != nil {
		return 0, Breakdown{}, err
	}
	if bLo.NPV >= targetProfitPV {
		return 0, bLo, nil
	}

	for i := 0; i < solverMaxIterations; i++ {
		mid := (lo + hi) / 2.0
		bMid, err := NPVOfLease(mid, p)
		if err != nil {
			return 0, Breakdown{}, err
		}
		if bMid.NPV >= targetProfitPV {
			hi = mid
			bHi = bMid
		} else {
			lo = mid
		}
		if bracketConverged(lo, hi) {
			break
		}
	}

	return hi, bHi, nil
}

// bracketConverged reports whether the bisection bracket has narrowed to
// within the relative tolerance of the upper bound.
func bracketConverged(lo, hi float64) bool {
	scale := hi
	if scale < 1.0 {
		scale = 1.0
	}
	return hi-lo <= solverRelTolerance*scale
}
