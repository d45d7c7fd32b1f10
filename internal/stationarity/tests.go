// Package stationarity decides and applies the transforms that make each
// channel's series suitable for joint VAR modeling: a log scale, a majority
// vote over three unit-root tests for first differencing, and a seasonal
// strength measure for seasonal differencing.
package stationarity

import (
	"math"

	"gonum.org/v1/gonum/mat"

	apperrors "github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/pkg/errors"
)

// TestKind tags one of the three unit-root tests in the voting policy.
type TestKind string

const (
	TestADF  TestKind = "adf"
	TestPP   TestKind = "pp"
	TestKPSS TestKind = "kpss"
)

// TestResult is the outcome of a single unit-root or stationarity test.
// NonStationary is the test's verdict translated to a common orientation:
// ADF and PP answer "failed to reject a unit root", KPSS answers "rejected
// stationarity".
type TestResult struct {
	Kind          TestKind
	Statistic     float64
	PValue        float64
	Lags          int
	NonStationary bool
}

const minTestObservations = 10

// ADF runs an augmented Dickey-Fuller test with drift on xs. The null is a
// unit root; a small p-value rejects it. maxLag <= 0 selects the usual
// floor((n-1)^(1/3)) default.
func ADF(xs []float64, maxLag int, alpha float64) (*TestResult, error) {
	n := len(xs)
	if n < minTestObservations {
		return nil, apperrors.NewConfigurationError("adf", "need at least %d observations, got %d", minTestObservations, n)
	}
	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	}
	if maxLag >= n-2 {
		maxLag = n - 3
	}

	diff := firstDiff(xs)
	nObs := n - maxLag - 1
	if nObs < minTestObservations {
		return nil, apperrors.NewConfigurationError("adf", "too few usable observations (%d) after %d lags", nObs, maxLag)
	}

	// delta_y_t = alpha + beta*y_{t-1} + sum gamma_i delta_y_{t-i} + eps;
	// the test statistic is the t-ratio on beta.
	k := 2 + maxLag
	X := mat.NewDense(nObs, k, nil)
	y := mat.NewVecDense(nObs, nil)
	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y.SetVec(i, diff[t])
		X.Set(i, 0, 1)
		X.Set(i, 1, xs[t])
		for j := 1; j <= maxLag; j++ {
			X.Set(i, 1+j, diff[t-j])
		}
	}

	coeffs, se, err := olsFit(X, y)
	if err != nil {
		return nil, err
	}
	tStat := coeffs[1] / se[1]
	p := mackinnonPValue(tStat)
	return &TestResult{
		Kind:          TestADF,
		Statistic:     tStat,
		PValue:        p,
		Lags:          maxLag,
		NonStationary: p >= alpha,
	}, nil
}

// PhillipsPerron runs the Phillips-Perron unit-root test, a non-parametric
// variant of the Dickey-Fuller regression that corrects the t-ratio with a
// Newey-West long-run variance instead of lagged difference terms.
func PhillipsPerron(xs []float64, nlags int, alpha float64) (*TestResult, error) {
	n := len(xs)
	if n < minTestObservations {
		return nil, apperrors.NewConfigurationError("pp", "need at least %d observations, got %d", minTestObservations, n)
	}
	if nlags <= 0 {
		nlags = int(math.Floor(4 * math.Pow(float64(n)/100, 0.25)))
	}

	diff := firstDiff(xs)
	nObs := n - 1

	X := mat.NewDense(nObs, 2, nil)
	y := mat.NewVecDense(nObs, nil)
	for i := 0; i < nObs; i++ {
		y.SetVec(i, diff[i])
		X.Set(i, 0, 1)
		X.Set(i, 1, xs[i])
	}
	coeffs, se, err := olsFit(X, y)
	if err != nil {
		return nil, err
	}

	resid := make([]float64, nObs)
	for i := 0; i < nObs; i++ {
		resid[i] = y.AtVec(i) - coeffs[0] - coeffs[1]*X.At(i, 1)
	}

	var gamma0 float64
	for _, r := range resid {
		gamma0 += r * r
	}
	gamma0 /= float64(nObs)

	lambda2 := gamma0
	for l := 1; l <= nlags; l++ {
		var cov float64
		for i := l; i < nObs; i++ {
			cov += resid[i] * resid[i-l]
		}
		cov /= float64(nObs)
		lambda2 += 2 * (1 - float64(l)/float64(nlags+1)) * cov
	}
	if lambda2 <= 0 {
		lambda2 = gamma0
	}

	var xMean float64
	for i := 0; i < nObs; i++ {
		xMean += X.At(i, 1)
	}
	xMean /= float64(nObs)
	var sumXDev2 float64
	for i := 0; i < nObs; i++ {
		d := X.At(i, 1) - xMean
		sumXDev2 += d * d
	}

	tStat := coeffs[1] / se[1]
	correction := 0.0
	if sumXDev2 > 0 {
		correction = (lambda2 - gamma0) * math.Sqrt(float64(nObs)) /
			(2 * math.Sqrt(lambda2) * math.Sqrt(sumXDev2))
	}
	ppStat := math.Sqrt(gamma0/lambda2)*tStat - correction

	p := mackinnonPValue(ppStat)
	return &TestResult{
		Kind:          TestPP,
		Statistic:     ppStat,
		PValue:        p,
		Lags:          nlags,
		NonStationary: p >= alpha,
	}, nil
}

// KPSS runs the Kwiatkowski-Phillips-Schmidt-Shin level-stationarity test.
// Unlike ADF/PP the null here is stationarity, so a small p-value marks the
// series non-stationary.
func KPSS(xs []float64, nlags int, alpha float64) (*TestResult, error) {
	n := len(xs)
	if n < minTestObservations {
		return nil, apperrors.NewConfigurationError("kpss", "need at least %d observations, got %d", minTestObservations, n)
	}
	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}

	var mean float64
	for _, v := range xs {
		mean += v
	}
	mean /= float64(n)

	resid := make([]float64, n)
	for i, v := range xs {
		resid[i] = v - mean
	}

	cum := make([]float64, n)
	cum[0] = resid[0]
	for i := 1; i < n; i++ {
		cum[i] = cum[i-1] + resid[i]
	}

	// Newey-West long-run variance with Bartlett weights.
	var s2 float64
	for _, r := range resid {
		s2 += r * r
	}
	s2 /= float64(n)
	for l := 1; l <= nlags; l++ {
		var cov float64
		for i := l; i < n; i++ {
			cov += resid[i] * resid[i-l]
		}
		cov /= float64(n)
		s2 += 2 * (1 - float64(l)/float64(nlags+1)) * cov
	}
	if s2 <= 0 {
		s2 = 1e-10
	}

	var etaSq float64
	for _, c := range cum {
		etaSq += c * c
	}
	stat := etaSq / (float64(n) * float64(n) * s2)

	p := kpssPValue(stat)
	return &TestResult{
		Kind:          TestKPSS,
		Statistic:     stat,
		PValue:        p,
		Lags:          nlags,
		NonStationary: p < alpha,
	}, nil
}

// olsFit solves y = X b by least squares and returns the coefficients with
// their standard errors.
func olsFit(X *mat.Dense, y *mat.VecDense) (coeffs, se []float64, err error) {
	n, k := X.Dims()
	if n <= k {
		return nil, nil, apperrors.NewConfigurationError("ols", "%d observations cannot identify %d parameters", n, k)
	}

	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	var xtxInv mat.Dense
	if invErr := xtxInv.Inverse(&xtx); invErr != nil {
		return nil, nil, apperrors.NewConfigurationError("ols", "singular regressor matrix: %v", invErr)
	}

	var xty mat.VecDense
	xty.MulVec(X.T(), y)
	var b mat.VecDense
	b.MulVec(&xtxInv, &xty)

	var yhat mat.VecDense
	yhat.MulVec(X, &b)
	var resid mat.VecDense
	resid.SubVec(y, &yhat)
	sse := mat.Dot(&resid, &resid)
	s2 := sse / float64(n-k)

	coeffs = make([]float64, k)
	se = make([]float64, k)
	for i := 0; i < k; i++ {
		coeffs[i] = b.AtVec(i)
		se[i] = math.Sqrt(s2 * xtxInv.At(i, i))
	}
	return coeffs, se, nil
}

func firstDiff(xs []float64) []float64 {
	out := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out[i-1] = xs[i] - xs[i-1]
	}
	return out
}

// mackinnonPValue approximates the Dickey-Fuller p-value for the
// constant-only regression via interpolation over MacKinnon (1994)
// asymptotic critical values.
func mackinnonPValue(stat float64) float64 {
	switch {
	case stat < -3.96:
		return 0.001
	case stat < -3.43:
		return 0.01
	case stat < -2.86:
		return 0.05
	case stat < -2.57:
		return 0.10
	case stat < -1.94:
		return 0.25
	case stat < -1.62:
		return 0.50
	default:
		return math.Min(0.5+(stat+1.62)*0.25, 0.99)
	}
}

// kpssPValue approximates the KPSS level-stationarity p-value by linear
// interpolation between the tabulated critical values, so a statistic past
// the 5% critical value maps strictly below 0.05.
func kpssPValue(stat float64) float64 {
	switch {
	case stat > 0.739:
		return 0.01
	case stat > 0.463:
		return 0.05 - (stat-0.463)/(0.739-0.463)*0.04
	case stat > 0.347:
		return 0.10 - (stat-0.347)/(0.463-0.347)*0.05
	default:
		return math.Min(0.10+(0.347-stat)*0.5, 0.99)
	}
}
