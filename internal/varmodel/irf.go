package varmodel

import (
	"gonum.org/v1/gonum/mat"

	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/timeseries"
	apperrors "github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/pkg/errors"
)

// OrthogonalIRF propagates a one-standard-deviation orthogonalized shock to
// the impulse channel through the fitted dynamics for the given horizon,
// returning a horizon x K matrix where row h is every variable's response at
// step h (h=0 is the impact period).
//
// The ordering argument is the assumed contemporaneous causal ordering: the
// residual covariance is factorized in exactly this variable order, so a
// channel only responds at impact to shocks in channels listed before it.
// It must be a permutation of the model's variables and is a deliberate,
// caller-visible modeling choice, not an artifact of column layout.
func (m *Model) OrthogonalIRF(horizon int, impulse timeseries.Channel, ordering []timeseries.Channel) (*mat.Dense, error) {
	if m == nil || len(m.A) == 0 {
		return nil, apperrors.NewConfigurationError("irf", "model not estimated")
	}
	if horizon < 1 {
		return nil, apperrors.NewConfigurationError("irf", "horizon must be at least 1, got %d", horizon)
	}
	K := m.K()

	perm, err := m.permutation(ordering)
	if err != nil {
		return nil, err
	}

	shockPos := -1
	for i, name := range ordering {
		if name == impulse {
			shockPos = i
		}
	}
	if shockPos < 0 {
		return nil, apperrors.NewConfigurationError("irf", "impulse channel %q not in causal ordering", impulse)
	}

	// Cholesky of the permuted covariance; the shock vector is the factor's
	// column for the impulse channel, mapped back to model order.
	sigmaPerm := mat.NewSymDense(K, nil)
	for i := 0; i < K; i++ {
		for j := i; j < K; j++ {
			sigmaPerm.SetSym(i, j, m.SigmaU.At(perm[i], perm[j]))
		}
	}
	var chol mat.Cholesky
	if !chol.Factorize(sigmaPerm) {
		return nil, apperrors.NewConfigurationError("irf", "residual covariance is not positive definite")
	}
	L := mat.NewTriDense(K, mat.Lower, nil)
	chol.LTo(L)

	shock := make([]float64, K)
	for i := 0; i < K; i++ {
		shock[perm[i]] = L.At(i, shockPos)
	}

	psi := m.movingAverage(horizon)

	irf := mat.NewDense(horizon, K, nil)
	shockVec := mat.NewVecDense(K, shock)
	for h := 0; h < horizon; h++ {
		var resp mat.VecDense
		resp.MulVec(psi[h], shockVec)
		for i := 0; i < K; i++ {
			irf.Set(h, i, resp.AtVec(i))
		}
	}
	return irf, nil
}

// movingAverage computes the MA-representation matrices Psi_0..Psi_{h-1}
// recursively: Psi_0 = I, Psi_h = sum_j A_j Psi_{h-j}.
func (m *Model) movingAverage(horizon int) []*mat.Dense {
	K := m.K()
	p := m.Spec.Lags

	psi := make([]*mat.Dense, horizon)
	eye := mat.NewDense(K, K, nil)
	for i := 0; i < K; i++ {
		eye.Set(i, i, 1)
	}
	psi[0] = eye

	for h := 1; h < horizon; h++ {
		M := mat.NewDense(K, K, nil)
		maxLag := p
		if h < p {
			maxLag = h
		}
		for j := 1; j <= maxLag; j++ {
			var tmp mat.Dense
			tmp.Mul(m.A[j-1], psi[h-j])
			M.Add(M, &tmp)
		}
		psi[h] = M
	}
	return psi
}

// permutation maps ordering positions to model column indices, validating
// that ordering is a permutation of the model's variables.
func (m *Model) permutation(ordering []timeseries.Channel) ([]int, error) {
	K := m.K()
	if len(ordering) != K {
		return nil, apperrors.NewConfigurationError("irf",
			"causal ordering has %d entries, model has %d variables", len(ordering), K)
	}
	perm := make([]int, K)
	seen := make(map[int]bool, K)
	for i, name := range ordering {
		idx := m.Index(name)
		if idx < 0 {
			return nil, apperrors.NewConfigurationError("irf", "ordering entry %q is not a model variable", name)
		}
		if seen[idx] {
			return nil, apperrors.NewConfigurationError("irf", "ordering repeats %q", name)
		}
		seen[idx] = true
		perm[i] = idx
	}
	return perm, nil
}
