package timeseries

import "math"

// Decomposition is an additive trend/seasonal/remainder split of a series.
type Decomposition struct {
	Trend     []float64
	Seasonal  []float64
	Remainder []float64
	Period    int
}

// Decompose performs a classical additive decomposition at the given period:
// centered moving-average trend, position-averaged seasonal pattern centered
// around zero, remainder as what is left.
func Decompose(data []float64, period int) *Decomposition {
	n := len(data)
	d := &Decomposition{
		Trend:     make([]float64, n),
		Seasonal:  make([]float64, n),
		Remainder: make([]float64, n),
		Period:    period,
	}
	if n == 0 || period <= 1 {
		copy(d.Remainder, data)
		return d
	}

	window := period
	if window%2 == 0 {
		window++
	}
	d.Trend = movingAverage(data, window)

	detrended := make([]float64, n)
	for i := range data {
		detrended[i] = data[i] - d.Trend[i]
	}

	pattern := make([]float64, period)
	counts := make([]int, period)
	for i, v := range detrended {
		pattern[i%period] += v
		counts[i%period]++
	}
	var patternMean float64
	for i := range pattern {
		if counts[i] > 0 {
			pattern[i] /= float64(counts[i])
		}
		patternMean += pattern[i]
	}
	patternMean /= float64(period)
	for i := range pattern {
		pattern[i] -= patternMean
	}

	for i := range data {
		d.Seasonal[i] = pattern[i%period]
		d.Remainder[i] = data[i] - d.Trend[i] - d.Seasonal[i]
	}
	return d
}

// SeasonalStrength returns 1 - Var(remainder)/Var(seasonal+remainder), clipped
// to [0,1]. Values near 1 indicate a dominant seasonal component.
func (d *Decomposition) SeasonalStrength() float64 {
	n := len(d.Remainder)
	if n < 2 {
		return 0
	}
	detrended := make([]float64, n)
	for i := 0; i < n; i++ {
		detrended[i] = d.Seasonal[i] + d.Remainder[i]
	}
	vDet := variance(detrended)
	if vDet <= 0 {
		return 0
	}
	s := 1 - variance(d.Remainder)/vDet
	return math.Max(0, math.Min(1, s))
}

func movingAverage(data []float64, window int) []float64 {
	n := len(data)
	out := make([]float64, n)
	half := window / 2
	for i := 0; i < n; i++ {
		lo, hi := i-half, i+half+1
		if lo < 0 {
			lo = 0
		}
		if hi > n {
			hi = n
		}
		var sum float64
		for j := lo; j < hi; j++ {
			sum += data[j]
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

func variance(data []float64) float64 {
	n := len(data)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(n)
	var ss float64
	for _, v := range data {
		d := v - mean
		ss += d * d
	}
	return ss / float64(n-1)
}
