package rng

import "errors"

var ErrInvalidRange = errors.New("invalid range; need finite lo <= hi")

// Float draws uniformly from [lo, hi). lo == hi always returns lo.
func Float(src RandomSource, lo, hi float64) (float64, error) {
	if err := validateRange(lo, hi); err != nil {
		return 0, err
	}
	if src == nil {
		src = Default()
	}
	return lo + src.Float64()*(hi-lo), nil
}

// Int draws uniformly from the closed range [lo, hi].
func Int(src RandomSource, lo, hi int) (int, error) {
	if hi < lo {
		return 0, ErrInvalidRange
	}
	if src == nil {
		src = Default()
	}
	n := hi - lo + 1
	i := int(src.Float64() * float64(n))
	if i >= n { // guard against a source returning exactly 1
		i = n - 1
	}
	return lo + i, nil
}

// Index picks a uniform index into a collection of size n (n > 0).
func Index(src RandomSource, n int) (int, error) {
	if n <= 0 {
		return 0, ErrInvalidRange
	}
	return Int(src, 0, n-1)
}
