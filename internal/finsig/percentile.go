package finsig

import "math"

// percentileRank converts a value to its 0-100 rank within a comparison
// set. With a single value the distribution is uninformative and the
// midpoint is returned; callers never reach here with an empty set.
func percentileRank(value float64, distribution []float64) float64 {
	n := len(distribution)
	if n <= 1 {
		return 50
	}

	less := 0
	equal := 0
	for _, v := range distribution {
		switch {
		case v < value:
			less++
		case v == value:
			equal++
		}
	}

	// midrank for ties keeps equal inputs at equal percentiles
	rank := float64(less) + float64(equal-1)/2
	return rank / float64(n-1) * 100
}

// zScore standardizes the last value of a history against the history's
// mean and standard deviation. A flat series yields 0.
func zScore(history []float64) float64 {
	n := len(history)
	if n == 0 {
		return 0
	}

	var sum float64
	for _, v := range history {
		sum += v
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range history {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(n))
	if std == 0 {
		return 0
	}

	return (history[n-1] - mean) / std
}

// clip bounds v to [lo, hi]
func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
