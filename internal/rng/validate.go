package rng

import (
	"math"
)

func validateRange(lo, hi float64) error {
	for _, v := range []float64{lo, hi} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidRange
		}
	}
	if hi < lo {
		return ErrInvalidRange
	}
	return nil
}
