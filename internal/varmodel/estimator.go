// Package varmodel fits the joint vector-autoregressive system and derives
// the downstream dynamics: orthogonalized impulse responses with bootstrap
// confidence bands and pairwise Granger causality tests.
package varmodel

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/timeseries"
	apperrors "github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/pkg/errors"
)

// Spec describes the model to fit.
type Spec struct {
	Lags  int
	Const bool
}

// Model is a fitted reduced-form VAR. It is created once from a fixed aligned
// table and not mutated afterward.
type Model struct {
	Spec  Spec
	Names []timeseries.Channel

	// A holds one KxK coefficient matrix per lag.
	A []*mat.Dense
	// C is the constant vector (nil when Spec.Const is false).
	C *mat.VecDense
	// SigmaU is the residual covariance (degrees-of-freedom adjusted).
	SigmaU *mat.SymDense
	// Residuals is (T-p) x K, Fitted the matching fitted values.
	Residuals *mat.Dense
	Fitted    *mat.Dense
}

// K returns the number of jointly modeled series.
func (m *Model) K() int { return len(m.Names) }

// Index returns the column position of the named series, or -1.
func (m *Model) Index(name timeseries.Channel) int {
	for i, n := range m.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// ResidualMeans returns the per-equation sample mean of the residuals. With
// an intercept these are zero up to floating point; callers use this as a
// post-fit sanity check.
func (m *Model) ResidualMeans() []float64 {
	t, k := m.Residuals.Dims()
	out := make([]float64, k)
	for j := 0; j < k; j++ {
		var sum float64
		for i := 0; i < t; i++ {
			sum += m.Residuals.At(i, j)
		}
		out[j] = sum / float64(t)
	}
	return out
}

// Estimate fits the VAR by ordinary least squares, one regression per
// equation over the shared lagged regressor set.
func Estimate(tbl *timeseries.Table, spec Spec) (*Model, error) {
	if tbl == nil || tbl.Y == nil {
		return nil, apperrors.NewInputError("", "no table to estimate")
	}
	T, K := tbl.Y.Dims()
	p := spec.Lags
	if p <= 0 {
		return nil, apperrors.NewConfigurationError("estimate", "lag order must be positive, got %d", p)
	}
	// Identification: each equation has K*p slope parameters plus the
	// intercept, and T-p usable rows.
	if T-p < K*p+1 {
		return nil, apperrors.NewConfigurationError("estimate",
			"unidentified model: %d usable observations for %d parameters per equation (T=%d, K=%d, p=%d)",
			T-p, K*p+1, T, K, p)
	}

	Treg := T - p
	Yreg := mat.NewDense(Treg, K, nil)
	for t := 0; t < Treg; t++ {
		for k := 0; k < K; k++ {
			Yreg.Set(t, k, tbl.Y.At(t+p, k))
		}
	}

	detCols := 0
	if spec.Const {
		detCols = 1
	}
	m := detCols + p*K

	X := mat.NewDense(Treg, m, nil)
	for t := 0; t < Treg; t++ {
		col := 0
		if spec.Const {
			X.Set(t, col, 1)
			col++
		}
		for j := 1; j <= p; j++ {
			srcRow := t + p - j
			for k := 0; k < K; k++ {
				X.Set(t, col, tbl.Y.At(srcRow, k))
				col++
			}
		}
	}

	// B = (X'X)^-1 X'Y, with an SVD least-squares fallback when X'X is
	// singular or badly conditioned.
	var B mat.Dense
	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err == nil {
		var xty mat.Dense
		xty.Mul(X.T(), Yreg)
		B.Mul(&xtxInv, &xty)
	} else {
		var svd mat.SVD
		if ok := svd.Factorize(X, mat.SVDThin); !ok {
			return nil, apperrors.NewConfigurationError("estimate", "singular design matrix and SVD factorization failed")
		}
		rank := svd.Rank(1e-12)
		if rank == 0 {
			B = *mat.NewDense(m, K, nil)
		} else {
			svd.SolveTo(&B, Yreg, rank)
		}
	}

	var C *mat.VecDense
	if spec.Const {
		C = mat.NewVecDense(K, nil)
		for k := 0; k < K; k++ {
			C.SetVec(k, B.At(0, k))
		}
	}

	A := make([]*mat.Dense, p)
	for j := 0; j < p; j++ {
		Aj := mat.NewDense(K, K, nil)
		rowOffset := detCols + j*K
		for eq := 0; eq < K; eq++ {
			for v := 0; v < K; v++ {
				Aj.Set(eq, v, B.At(rowOffset+v, eq))
			}
		}
		A[j] = Aj
	}

	var Yhat mat.Dense
	Yhat.Mul(X, &B)
	var U mat.Dense
	U.Sub(Yreg, &Yhat)

	var utu mat.Dense
	utu.Mul(U.T(), &U)
	df := float64(Treg - m)
	if df <= 0 {
		df = float64(Treg)
	}
	sigmaData := make([]float64, K*K)
	for i := 0; i < K; i++ {
		for j := 0; j < K; j++ {
			sigmaData[i*K+j] = utu.At(i, j) / df
		}
	}

	return &Model{
		Spec:      spec,
		Names:     append([]timeseries.Channel(nil), tbl.Names...),
		A:         A,
		C:         C,
		SigmaU:    mat.NewSymDense(K, sigmaData),
		Residuals: &U,
		Fitted:    &Yhat,
	}, nil
}

// SelectLagOrder searches p in [1, maxLag] and returns the order minimizing
// AIC = -2 logL/T + 2 m/T, where m counts all estimated parameters and the
// Gaussian log-likelihood uses the maximum-likelihood residual covariance.
func SelectLagOrder(tbl *timeseries.Table, maxLag int, withConst bool) (int, map[int]float64, error) {
	if maxLag < 1 {
		return 0, nil, apperrors.NewConfigurationError("lag-order", "max lag must be at least 1, got %d", maxLag)
	}

	_, K := tbl.Y.Dims()
	scores := make(map[int]float64, maxLag)
	best, bestScore := 0, math.Inf(1)
	for p := 1; p <= maxLag; p++ {
		model, err := Estimate(tbl, Spec{Lags: p, Const: withConst})
		if err != nil {
			if p == 1 {
				return 0, nil, err
			}
			// Larger candidates that the data cannot identify simply drop
			// out of the search.
			break
		}
		score, aicErr := aic(model, K)
		if aicErr != nil {
			continue
		}
		scores[p] = score
		if score < bestScore {
			best, bestScore = p, score
		}
	}
	if best == 0 {
		return 0, nil, apperrors.NewConfigurationError("lag-order", "no candidate lag order could be scored")
	}
	return best, scores, nil
}

func aic(m *Model, K int) (float64, error) {
	Treg, _ := m.Residuals.Dims()
	T := float64(Treg)

	// Maximum-likelihood covariance (divide by T, not T-m).
	var utu mat.Dense
	utu.Mul(m.Residuals.T(), m.Residuals)
	sigmaML := mat.NewSymDense(K, nil)
	for i := 0; i < K; i++ {
		for j := i; j < K; j++ {
			sigmaML.SetSym(i, j, utu.At(i, j)/T)
		}
	}

	logDet, sign := mat.LogDet(sigmaML)
	if sign <= 0 || math.IsInf(logDet, 0) || math.IsNaN(logDet) {
		return 0, apperrors.NewConfigurationError("lag-order", "residual covariance is not positive definite")
	}

	params := K * K * m.Spec.Lags
	if m.Spec.Const {
		params += K
	}
	logL := -T / 2 * (float64(K)*math.Log(2*math.Pi) + logDet + float64(K))
	return -2*logL/T + 2*float64(params)/T, nil
}
