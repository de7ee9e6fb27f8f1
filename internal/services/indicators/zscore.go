package indicators

import "math"

// ZScore returns how many sample standard deviations the last element lies from the
// population mean of series. It is 0 for fewer than MinZScoreSamples elements and for
// flat series.
func ZScore(series []float64) float64 {
	n := len(series)
	if n < MinZScoreSamples {
		return 0
	}
	if flat(series) {
		return 0
	}

	sum := 0.0
	for _, v := range series {
		sum += v
	}
	mean := sum / float64(n)

	ss := 0.0
	for _, v := range series {
		d := v - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(n-1))
	if sd == 0 {
		return 0
	}
	return (series[n-1] - mean) / sd
}

// flat reports whether every element equals the first. Summation rounding would
// otherwise leave a tiny non-zero deviation for constant series.
func flat(series []float64) bool {
	for _, v := range series[1:] {
		if v != series[0] {
			return false
		}
	}
	return true
}
