package resale

import (
	"fmt"
	"math"
)

// solveRidge fits w minimizing ||Xw - y||^2 + alpha*||w||^2 where X already
// carries a leading intercept column; the intercept is not penalized. The
// normal equations (X'X + alpha*I)w = X'y form a small dense symmetric
// system (tens of features after one-hot encoding), solved directly by
// Gaussian elimination with partial pivoting. No linear-algebra dependency
// is warranted at this size.
func solveRidge(x [][]float64, y []float64, alpha float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("solveRidge: empty design matrix")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("solveRidge: %d rows vs %d targets", len(x), len(y))
	}
	d := len(x[0])

	// Gram matrix X'X and moment vector X'y.
	a := make([][]float64, d)
	for i := range a {
		a[i] = make([]float64, d+1) // augmented with X'y
	}
	for r, row := range x {
		if len(row) != d {
			return nil, fmt.Errorf("solveRidge: ragged row %d", r)
		}
		for i := 0; i < d; i++ {
			for j := i; j < d; j++ {
				a[i][j] += row[i] * row[j]
			}
			a[i][d] += row[i] * y[r]
		}
	}
	for i := 0; i < d; i++ {
		for j := 0; j < i; j++ {
			a[i][j] = a[j][i]
		}
	}
	// Penalize every coefficient except the intercept (column 0).
	for i := 1; i < d; i++ {
		a[i][i] += alpha
	}

	// Gaussian elimination with partial pivoting on the augmented system.
	for col := 0; col < d; col++ {
		pivot := col
		for r := col + 1; r < d; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("solveRidge: singular system at column %d", col)
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := col + 1; r < d; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c <= d; c++ {
				a[r][c] -= factor * a[col][c]
			}
		}
	}

	w := make([]float64, d)
	for i := d - 1; i >= 0; i-- {
		sum := a[i][d]
		for j := i + 1; j < d; j++ {
			sum -= a[i][j] * w[j]
		}
		w[i] = sum / a[i][i]
	}
	return w, nil
}
