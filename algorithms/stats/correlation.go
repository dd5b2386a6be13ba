package stats

import (
	"gonum.org/v1/gonum/stat"
)

// minVariance guards the correlation denominator; signals with less sample
// variance than this are treated as constant.
const minVariance = 1e-12

// Pearson computes the Pearson correlation coefficient between two
// equal-length signals, in [-1, 1]. The second return value is false when the
// coefficient is undefined (either signal is constant, e.g. digital silence),
// so callers can substitute their own neutral value instead of getting NaN.
func Pearson(x, y []float64) (float64, bool) {
	if len(x) == 0 || len(x) != len(y) {
		return 0.0, false
	}

	if stat.Variance(x, nil) < minVariance || stat.Variance(y, nil) < minVariance {
		return 0.0, false
	}

	r := stat.Correlation(x, y, nil)

	// Numerical noise can push the coefficient marginally out of range
	if r > 1.0 {
		r = 1.0
	} else if r < -1.0 {
		r = -1.0
	}

	return r, true
}
