// Package timeseries holds the channel-keyed weekly observation table and the
// elementary transforms (log, first difference, seasonal difference) the
// stationarity layer applies before modeling.
package timeseries

import (
	"math"

	"gonum.org/v1/gonum/mat"

	apperrors "github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/pkg/errors"
)

// Channel identifies one marketing activity dimension or the sales response.
type Channel string

// Table is an aligned multivariate weekly series: one column per channel in a
// fixed, explicit order. Column order matters downstream (it is the default
// causal ordering for orthogonalized shocks), so it is carried by name here
// rather than left implicit in array position.
type Table struct {
	Y     *mat.Dense
	Time  []float64
	Names []Channel
}

// NewTable builds a table from per-channel columns in the given order.
// All columns must share the same length.
func NewTable(names []Channel, cols map[Channel][]float64) (*Table, error) {
	if len(names) == 0 {
		return nil, apperrors.NewInputError("", "no channels supplied")
	}
	n := len(cols[names[0]])
	if n == 0 {
		return nil, apperrors.NewInputError(string(names[0]), "empty series")
	}
	for _, name := range names {
		col, ok := cols[name]
		if !ok {
			return nil, apperrors.NewInputError(string(name), "missing column")
		}
		if len(col) != n {
			return nil, apperrors.NewInputError(string(name),
				"length %d does not match %d of %q", len(col), n, names[0])
		}
	}

	data := make([]float64, n*len(names))
	for t := 0; t < n; t++ {
		for j, name := range names {
			data[t*len(names)+j] = cols[name][t]
		}
	}
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i + 1)
	}
	return &Table{
		Y:     mat.NewDense(n, len(names), data),
		Time:  times,
		Names: names,
	}, nil
}

// Len returns the number of observations.
func (tb *Table) Len() int {
	r, _ := tb.Y.Dims()
	return r
}

// Index returns the column index of the named channel, or -1.
func (tb *Table) Index(name Channel) int {
	for i, n := range tb.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named channel's series.
func (tb *Table) Column(name Channel) []float64 {
	j := tb.Index(name)
	if j < 0 {
		return nil
	}
	out := make([]float64, tb.Len())
	mat.Col(out, j, tb.Y)
	return out
}

// Transform records which scaling and differencing steps produced a series.
type Transform struct {
	Log            bool
	FirstDiff      bool
	SeasonalDiff   bool
	SeasonalPeriod int
}

// Loss is the number of leading observations the transform consumes.
func (tr Transform) Loss() int {
	loss := 0
	if tr.FirstDiff {
		loss++
	}
	if tr.SeasonalDiff {
		loss += tr.SeasonalPeriod
	}
	return loss
}

// Log applies the natural log. Any value <= 0 is a hard input failure; the
// loader guarantees positivity, so a violation here means corrupt input, not
// something to patch silently.
func Log(channel Channel, xs []float64) ([]float64, error) {
	out := make([]float64, len(xs))
	for i, v := range xs {
		if v <= 0 {
			return nil, apperrors.NewInputError(string(channel),
				"value %g at week %d is not strictly positive", v, i+1)
		}
		out[i] = math.Log(v)
	}
	return out, nil
}

// Diff returns the first difference x[t]-x[t-1], shortening the series by one.
func Diff(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out[i-1] = xs[i] - xs[i-1]
	}
	return out
}

// SeasonalDiff returns x[t]-x[t-period], shortening the series by period.
func SeasonalDiff(xs []float64, period int) []float64 {
	if period <= 0 || len(xs) <= period {
		return nil
	}
	out := make([]float64, len(xs)-period)
	for i := period; i < len(xs); i++ {
		out[i-period] = xs[i] - xs[i-period]
	}
	return out
}

// AlignTail trims every column to the shortest common length by dropping
// leading observations, so that all series end at the same week. The VAR
// estimator depends on this alignment.
func AlignTail(names []Channel, cols map[Channel][]float64) (*Table, error) {
	if len(names) == 0 {
		return nil, apperrors.NewInputError("", "no channels to align")
	}
	shortest := -1
	for _, name := range names {
		col, ok := cols[name]
		if !ok || len(col) == 0 {
			return nil, apperrors.NewInputError(string(name), "missing or empty series")
		}
		if shortest < 0 || len(col) < shortest {
			shortest = len(col)
		}
	}

	trimmed := make(map[Channel][]float64, len(names))
	for _, name := range names {
		col := cols[name]
		trimmed[name] = col[len(col)-shortest:]
	}
	return NewTable(names, trimmed)
}
