package varmodel

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/timeseries"
	apperrors "github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/pkg/errors"
)

// CausalityResult is one direction of a Granger test. Significant means the
// null "cause does not Granger-cause effect" was rejected at Alpha; a false
// value is only absence of evidence, never proof of non-causality.
type CausalityResult struct {
	Cause       timeseries.Channel
	Effect      timeseries.Channel
	FStatistic  float64
	PValue      float64
	Lags        int
	Alpha       float64
	Significant bool
}

// TestCausality runs the nested-model F-test of whether cause's lagged
// history improves prediction of effect. Both series must already be aligned
// and stationary. The restricted model regresses effect on its own lags plus
// a constant; the unrestricted model adds cause's lags.
func TestCausality(cause, effect timeseries.Channel, causeXs, effectXs []float64, lags int, alpha float64) (*CausalityResult, error) {
	if len(causeXs) != len(effectXs) {
		return nil, apperrors.NewInputError(string(cause),
			"series length %d does not match %q length %d", len(causeXs), effect, len(effectXs))
	}
	if lags < 1 {
		return nil, apperrors.NewConfigurationError("granger", "lag order must be positive, got %d", lags)
	}
	T := len(effectXs)
	Treg := T - lags
	kUnrestricted := 1 + 2*lags
	if Treg <= kUnrestricted {
		return nil, apperrors.NewConfigurationError("granger",
			"insufficient observations: %d usable rows for %d parameters", Treg, kUnrestricted)
	}

	y := mat.NewVecDense(Treg, nil)
	Xr := mat.NewDense(Treg, 1+lags, nil)
	Xu := mat.NewDense(Treg, kUnrestricted, nil)
	for t := 0; t < Treg; t++ {
		y.SetVec(t, effectXs[t+lags])
		Xr.Set(t, 0, 1)
		Xu.Set(t, 0, 1)
		for j := 1; j <= lags; j++ {
			Xr.Set(t, j, effectXs[t+lags-j])
			Xu.Set(t, j, effectXs[t+lags-j])
			Xu.Set(t, lags+j, causeXs[t+lags-j])
		}
	}

	rssR, err := residualSumOfSquares(Xr, y)
	if err != nil {
		return nil, err
	}
	rssU, err := residualSumOfSquares(Xu, y)
	if err != nil {
		return nil, err
	}

	q := float64(lags)
	dof := float64(Treg - kUnrestricted)

	// Floating point can leave rssR a hair below rssU; clamp rather than
	// produce a negative F.
	num := rssR - rssU
	if num < 0 {
		num = 0
	}
	den := rssU / dof

	fStat, pValue := 0.0, 1.0
	if den > 0 && num > 0 {
		fStat = (num / q) / den
		if fStat > 0 && !math.IsNaN(fStat) && !math.IsInf(fStat, 0) {
			fDist := distuv.F{D1: q, D2: dof}
			pValue = 1 - fDist.CDF(fStat)
		} else {
			fStat = 0
		}
	}
	if pValue < 0 {
		pValue = 0
	}
	if pValue > 1 {
		pValue = 1
	}

	return &CausalityResult{
		Cause:       cause,
		Effect:      effect,
		FStatistic:  fStat,
		PValue:      pValue,
		Lags:        lags,
		Alpha:       alpha,
		Significant: pValue < alpha,
	}, nil
}

// residualSumOfSquares fits y = X b by OLS and returns the RSS, with an SVD
// fallback for singular designs.
func residualSumOfSquares(X *mat.Dense, y *mat.VecDense) (float64, error) {
	n, k := X.Dims()
	b := mat.NewVecDense(k, nil)

	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err == nil {
		var xty mat.VecDense
		xty.MulVec(X.T(), y)
		b.MulVec(&xtxInv, &xty)
	} else {
		var svd mat.SVD
		if ok := svd.Factorize(X, mat.SVDThin); !ok {
			return 0, apperrors.NewConfigurationError("granger", "singular design matrix and SVD factorization failed")
		}
		rank := svd.Rank(1e-12)
		if rank > 0 {
			yMat := mat.NewDense(n, 1, nil)
			for i := 0; i < n; i++ {
				yMat.Set(i, 0, y.AtVec(i))
			}
			var sol mat.Dense
			svd.SolveTo(&sol, yMat, rank)
			for i := 0; i < k; i++ {
				b.SetVec(i, sol.At(i, 0))
			}
		}
	}

	var yhat mat.VecDense
	yhat.MulVec(X, b)
	var resid mat.VecDense
	resid.SubVec(y, &yhat)
	return mat.Dot(&resid, &resid), nil
}
