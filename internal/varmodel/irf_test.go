package varmodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/timeseries"
)

// toyModel builds a fitted VAR(1) by hand so IRF tests can pin exact values.
func toyModel(names []timeseries.Channel, a []float64, sigma []float64) *Model {
	k := len(names)
	return &Model{
		Spec:      Spec{Lags: 1, Const: true},
		Names:     names,
		A:         []*mat.Dense{mat.NewDense(k, k, a)},
		SigmaU:    mat.NewSymDense(k, sigma),
		Residuals: mat.NewDense(4, k, nil),
	}
}

func TestOrthogonalIRFIdentityCovariance(t *testing.T) {
	names := []timeseries.Channel{"x", "sales"}
	m := toyModel(names,
		[]float64{
			0.5, 0.0,
			0.3, 0.4,
		},
		[]float64{
			1, 0,
			0, 1,
		})

	irf, err := m.OrthogonalIRF(4, "x", names)
	require.NoError(t, err)

	// Unit shock to x at impact, nothing contemporaneous on sales.
	assert.InDelta(t, 1.0, irf.At(0, 0), 1e-12)
	assert.InDelta(t, 0.0, irf.At(0, 1), 1e-12)

	// Step 1 follows the coefficient matrix directly.
	assert.InDelta(t, 0.5, irf.At(1, 0), 1e-12)
	assert.InDelta(t, 0.3, irf.At(1, 1), 1e-12)

	// Step 2: x follows 0.5^2, sales follows 0.3*0.5 + 0.4*0.3.
	assert.InDelta(t, 0.25, irf.At(2, 0), 1e-12)
	assert.InDelta(t, 0.27, irf.At(2, 1), 1e-12)
}

func TestOrthogonalIRFImpactMatchesCholeskyColumn(t *testing.T) {
	names := []timeseries.Channel{"x", "sales"}
	// Correlated residuals: Sigma = [[1, .5], [.5, 1]].
	m := toyModel(names,
		[]float64{
			0.2, 0,
			0, 0.2,
		},
		[]float64{
			1, 0.5,
			0.5, 1,
		})

	irf, err := m.OrthogonalIRF(2, "x", names)
	require.NoError(t, err)

	// With x ordered first, its shock moves sales at impact by the Cholesky
	// off-diagonal 0.5, and x itself by 1.
	assert.InDelta(t, 1.0, irf.At(0, 0), 1e-12)
	assert.InDelta(t, 0.5, irf.At(0, 1), 1e-12)

	// Reversing the ordering makes x causally last: a shock to x can no
	// longer move sales at impact, and the x impact shrinks to the second
	// Cholesky diagonal sqrt(1 - 0.25).
	rev, err := m.OrthogonalIRF(2, "x", []timeseries.Channel{"sales", "x"})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, rev.At(0, 1), 1e-12)
	assert.InDelta(t, math.Sqrt(0.75), rev.At(0, 0), 1e-12)
}

func TestOrthogonalIRFDecaysForStableSystem(t *testing.T) {
	names := []timeseries.Channel{"x", "sales"}
	m := toyModel(names,
		[]float64{
			0.6, 0.1,
			0.2, 0.5,
		},
		[]float64{
			0.04, 0.01,
			0.01, 0.09,
		})

	irf, err := m.OrthogonalIRF(40, "x", names)
	require.NoError(t, err)
	for k := 0; k < 2; k++ {
		assert.InDelta(t, 0, irf.At(39, k), 1e-4, "response %d should decay", k)
	}
}

func TestOrthogonalIRFValidatesArguments(t *testing.T) {
	names := []timeseries.Channel{"x", "sales"}
	m := toyModel(names,
		[]float64{0.2, 0, 0, 0.2},
		[]float64{1, 0, 0, 1})

	_, err := m.OrthogonalIRF(0, "x", names)
	assert.Error(t, err, "non-positive horizon")

	_, err = m.OrthogonalIRF(4, "missing", names)
	assert.Error(t, err, "impulse not in ordering")

	_, err = m.OrthogonalIRF(4, "x", []timeseries.Channel{"x"})
	assert.Error(t, err, "short ordering")

	_, err = m.OrthogonalIRF(4, "x", []timeseries.Channel{"x", "x"})
	assert.Error(t, err, "repeated ordering entry")

	_, err = m.OrthogonalIRF(4, "x", []timeseries.Channel{"x", "other"})
	assert.Error(t, err, "unknown ordering entry")
}
