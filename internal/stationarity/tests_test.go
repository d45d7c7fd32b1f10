package stationarity

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ar1 simulates a stationary AR(1) process with the given coefficient.
func ar1(n int, phi, sd float64, rng *rand.Rand) []float64 {
	xs := make([]float64, n)
	for i := 1; i < n; i++ {
		xs[i] = phi*xs[i-1] + sd*rng.NormFloat64()
	}
	return xs
}

// randomWalk simulates a unit-root process.
func randomWalk(n int, sd float64, rng *rand.Rand) []float64 {
	xs := make([]float64, n)
	for i := 1; i < n; i++ {
		xs[i] = xs[i-1] + sd*rng.NormFloat64()
	}
	return xs
}

func TestADFDetectsStationarySeries(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	res, err := ADF(ar1(200, 0.4, 1, rng), 0, 0.05)
	require.NoError(t, err)
	assert.False(t, res.NonStationary, "AR(0.4) should reject the unit-root null (p=%v)", res.PValue)
	assert.Negative(t, res.Statistic)
}

func TestADFFailsToRejectOnRandomWalk(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	res, err := ADF(randomWalk(200, 1, rng), 0, 0.05)
	require.NoError(t, err)
	assert.True(t, res.NonStationary, "random walk should not reject the unit-root null (p=%v)", res.PValue)
}

func TestPhillipsPerronMatchesADFOrientation(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	res, err := PhillipsPerron(ar1(200, 0.4, 1, rng), 0, 0.05)
	require.NoError(t, err)
	assert.False(t, res.NonStationary)

	res, err = PhillipsPerron(randomWalk(200, 1, rng), 0, 0.05)
	require.NoError(t, err)
	assert.True(t, res.NonStationary)
}

func TestKPSSOppositeNull(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	// KPSS's null is stationarity: a stationary series should NOT reject.
	res, err := KPSS(ar1(200, 0.4, 1, rng), 0, 0.05)
	require.NoError(t, err)
	assert.False(t, res.NonStationary, "stationary series rejected KPSS null (stat=%v)", res.Statistic)

	res, err = KPSS(randomWalk(200, 1, rng), 0, 0.05)
	require.NoError(t, err)
	assert.True(t, res.NonStationary, "random walk should reject KPSS null (stat=%v)", res.Statistic)
}

func TestTooShortSeriesErrors(t *testing.T) {
	short := []float64{1, 2, 3}
	_, err := ADF(short, 0, 0.05)
	assert.Error(t, err)
	_, err = PhillipsPerron(short, 0, 0.05)
	assert.Error(t, err)
	_, err = KPSS(short, 0, 0.05)
	assert.Error(t, err)
}

func TestKPSSPValueRejectsPastCriticalValue(t *testing.T) {
	// A statistic beyond the tabulated 5% critical value 0.463 must map
	// strictly below 0.05 so the p < alpha rejection fires at default alpha.
	assert.Less(t, kpssPValue(0.50), 0.05)
	assert.Greater(t, kpssPValue(0.50), 0.01)
	assert.Equal(t, 0.01, kpssPValue(0.80))

	prev := math.Inf(1)
	for _, stat := range []float64{0.1, 0.2, 0.347, 0.4, 0.463, 0.5, 0.6, 0.739} {
		p := kpssPValue(stat)
		assert.LessOrEqual(t, p, prev, "p-value must not increase with the statistic (stat=%v)", stat)
		prev = p
	}
}

func TestMajorityVote(t *testing.T) {
	mk := func(adf, pp, kpss bool) map[TestKind]*TestResult {
		return map[TestKind]*TestResult{
			TestADF:  {Kind: TestADF, NonStationary: adf},
			TestPP:   {Kind: TestPP, NonStationary: pp},
			TestKPSS: {Kind: TestKPSS, NonStationary: kpss},
		}
	}
	cases := []struct {
		name string
		in   map[TestKind]*TestResult
		want bool
	}{
		{"all stationary", mk(false, false, false), false},
		{"one dissent", mk(true, false, false), false},
		{"two of three", mk(true, true, false), true},
		{"kpss breaks tie", mk(true, false, true), true},
		{"unanimous", mk(true, true, true), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MajorityVote(tc.in))
		})
	}
}
