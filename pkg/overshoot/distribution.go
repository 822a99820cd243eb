package overshoot

import (
	"fmt"
	"math"
	"slices"
)

// Distribution is a dense overshoot probability vector; index i holds the
// probability that the process stops at threshold+i.
type Distribution []float64

// Clone returns an independent copy
func (d Distribution) Clone() Distribution {
	return slices.Clone(d)
}

// Sum returns the total probability mass
func (d Distribution) Sum() float64 {
	var total float64
	for _, p := range d {
		total += p
	}
	return total
}

// Mass returns the probability of an overshoot in [lo, hi).
// Bounds are clamped to the vector.
func (d Distribution) Mass(lo, hi int) float64 {
	lo = max(lo, 0)
	hi = min(hi, len(d))
	var total float64
	for i := lo; i < hi; i++ {
		total += d[i]
	}
	return total
}

// MeanSD returns the probability-weighted mean and standard deviation of the
// overshoot values 0..len(d)-1. Weights are normalized by the total mass so a
// sub-probability vector yields the conditional moments.
func (d Distribution) MeanSD() (float64, float64, error) {
	total := d.Sum()
	if total <= 0 {
		return 0, 0, ErrZeroMass
	}

	var mean float64
	for i, p := range d {
		mean += float64(i) * p
	}
	mean /= total

	var variance float64
	for i, p := range d {
		diff := float64(i) - mean
		variance += diff * diff * p
	}
	variance /= total

	return mean, math.Sqrt(variance), nil
}

// Mean returns the normalized expected overshoot, or 0 for a zero-mass vector
func (d Distribution) Mean() float64 {
	mean, _, _ := d.MeanSD()
	return mean
}

// StdDev returns the normalized standard deviation, or 0 for a zero-mass vector
func (d Distribution) StdDev() float64 {
	_, sd, _ := d.MeanSD()
	return sd
}

// Validate checks that every entry is non-negative and that the entries sum
// to one within tol
func (d Distribution) Validate(tol float64) error {
	for i, p := range d {
		if p < 0 || math.IsNaN(p) {
			return fmt.Errorf("invalid probability %v at overshoot %d", p, i)
		}
	}
	if total := d.Sum(); math.Abs(total-1) > tol {
		return fmt.Errorf("probabilities sum to %v, want 1", total)
	}
	return nil
}
