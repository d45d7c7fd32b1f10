package varmodel

import (
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/timeseries"
	apperrors "github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/pkg/errors"
)

// BootstrapOptions tunes the residual-bootstrap confidence bands.
type BootstrapOptions struct {
	Replications int
	Horizon      int
	Confidence   float64 // e.g. 0.95
	Seed         int64   // 0 means time-based
	// Ordering is the causal ordering handed to OrthogonalIRF.
	Ordering []timeseries.Channel
	// MinSuccessFraction is the share of replicates that must re-estimate
	// successfully for the bands to be usable.
	MinSuccessFraction float64
}

const DefaultMinSuccessFraction = 0.8

// IRFBand is the impulse response of one response variable to a shock in one
// impulse channel, with empirical bootstrap percentile bounds per step.
type IRFBand struct {
	Impulse    timeseries.Channel
	Response   timeseries.Channel
	Confidence float64
	Point      []float64
	Lower      []float64
	Upper      []float64
}

// BootstrapIRF produces, for each impulse channel, the response trajectory of
// the designated response variable with percentile confidence bands from
// residual-bootstrap replicate models. Replicates are independent, so they
// run on a worker pool; a replicate whose re-estimation fails is discarded,
// and the computation fails only when fewer than MinSuccessFraction succeed.
func (m *Model) BootstrapIRF(tbl *timeseries.Table, response timeseries.Channel, opts BootstrapOptions, logger *logrus.Logger) (map[timeseries.Channel]*IRFBand, error) {
	if m == nil || len(m.A) == 0 {
		return nil, apperrors.NewConfigurationError("bootstrap", "model not estimated")
	}
	if opts.Horizon < 1 {
		return nil, apperrors.NewConfigurationError("bootstrap", "horizon must be at least 1, got %d", opts.Horizon)
	}
	if opts.Replications < 1 {
		return nil, apperrors.NewConfigurationError("bootstrap", "replication count must be positive, got %d", opts.Replications)
	}
	if opts.Confidence <= 0 || opts.Confidence >= 1 {
		return nil, apperrors.NewConfigurationError("bootstrap", "confidence must be in (0,1), got %g", opts.Confidence)
	}
	if opts.MinSuccessFraction <= 0 {
		opts.MinSuccessFraction = DefaultMinSuccessFraction
	}
	if logger == nil {
		logger = logrus.New()
	}
	respIdx := m.Index(response)
	if respIdx < 0 {
		return nil, apperrors.NewConfigurationError("bootstrap", "response %q is not a model variable", response)
	}

	alpha := 1 - opts.Confidence
	if floor := int(math.Ceil(2 / alpha)); opts.Replications < floor {
		logger.WithFields(logrus.Fields{
			"replications": opts.Replications,
			"floor":        floor,
		}).Warn("bootstrap replication count below percentile floor; bands will be unstable")
	}

	H := opts.Horizon
	K := m.K()

	// Point estimates from the original model.
	bands := make(map[timeseries.Channel]*IRFBand, K)
	for _, impulse := range m.Names {
		irf, err := m.OrthogonalIRF(H, impulse, opts.Ordering)
		if err != nil {
			return nil, err
		}
		band := &IRFBand{
			Impulse:    impulse,
			Response:   response,
			Confidence: opts.Confidence,
			Point:      make([]float64, H),
			Lower:      make([]float64, H),
			Upper:      make([]float64, H),
		}
		for h := 0; h < H; h++ {
			band.Point[h] = irf.At(h, respIdx)
		}
		bands[impulse] = band
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	masterRng := rand.New(rand.NewSource(seed))
	seeds := make([]int64, opts.Replications)
	for i := range seeds {
		seeds[i] = masterRng.Int63()
	}

	type replication struct {
		ok bool
		// draws[impulse][h] = response at step h under this replicate
		draws map[timeseries.Channel][]float64
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > opts.Replications {
		numWorkers = opts.Replications
	}
	jobs := make(chan int)
	resultsCh := make(chan replication, opts.Replications)

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for b := range jobs {
				rng := rand.New(rand.NewSource(seeds[b]))
				rep := replication{draws: make(map[timeseries.Channel][]float64, K)}

				star, err := m.simulateBootstrapTable(tbl, rng)
				if err != nil {
					resultsCh <- replication{}
					continue
				}
				bootModel, err := Estimate(star, m.Spec)
				if err != nil {
					resultsCh <- replication{}
					continue
				}
				failed := false
				for _, impulse := range m.Names {
					irf, err := bootModel.OrthogonalIRF(H, impulse, opts.Ordering)
					if err != nil {
						failed = true
						break
					}
					series := make([]float64, H)
					for h := 0; h < H; h++ {
						series[h] = irf.At(h, respIdx)
					}
					rep.draws[impulse] = series
				}
				if failed {
					resultsCh <- replication{}
					continue
				}
				rep.ok = true
				resultsCh <- rep
			}
		}()
	}

	go func() {
		for b := 0; b < opts.Replications; b++ {
			jobs <- b
		}
		close(jobs)
	}()

	// draws[impulse][h] collects replicate responses; replicate order does
	// not matter for the percentile computation.
	draws := make(map[timeseries.Channel][][]float64, K)
	for _, impulse := range m.Names {
		perStep := make([][]float64, H)
		for h := range perStep {
			perStep[h] = make([]float64, 0, opts.Replications)
		}
		draws[impulse] = perStep
	}
	succeeded := 0
	for i := 0; i < opts.Replications; i++ {
		rep := <-resultsCh
		if !rep.ok {
			continue
		}
		succeeded++
		for impulse, series := range rep.draws {
			for h := 0; h < H; h++ {
				draws[impulse][h] = append(draws[impulse][h], series[h])
			}
		}
	}
	wg.Wait()
	close(resultsCh)

	if frac := float64(succeeded) / float64(opts.Replications); frac < opts.MinSuccessFraction {
		return nil, apperrors.NewConfigurationError("bootstrap",
			"only %d of %d replicates re-estimated successfully (%.0f%% < required %.0f%%)",
			succeeded, opts.Replications, frac*100, opts.MinSuccessFraction*100)
	}
	if succeeded < opts.Replications {
		logger.WithFields(logrus.Fields{
			"failed": opts.Replications - succeeded,
			"total":  opts.Replications,
		}).Warn("discarded failed bootstrap replicates")
	}

	lowerQ := alpha / 2
	upperQ := 1 - alpha/2
	for _, impulse := range m.Names {
		band := bands[impulse]
		for h := 0; h < H; h++ {
			samples := draws[impulse][h]
			if len(samples) == 0 {
				band.Lower[h] = math.NaN()
				band.Upper[h] = math.NaN()
				continue
			}
			band.Lower[h] = quantile(samples, lowerQ)
			band.Upper[h] = quantile(samples, upperQ)
		}
	}
	return bands, nil
}

// simulateBootstrapTable builds a bootstrap sample of the same length as tbl:
// the first p rows are copied from the data, then the fitted dynamics are
// propagated forward with residual rows resampled with replacement.
func (m *Model) simulateBootstrapTable(tbl *timeseries.Table, rng *rand.Rand) (*timeseries.Table, error) {
	T, K := tbl.Y.Dims()
	p := m.Spec.Lags
	if T <= p {
		return nil, apperrors.NewConfigurationError("bootstrap", "need more than %d observations, got %d", p, T)
	}
	Treg, kRes := m.Residuals.Dims()
	if Treg != T-p || kRes != K {
		return nil, apperrors.NewConfigurationError("bootstrap",
			"residual matrix %dx%d does not match table %dx%d with p=%d", Treg, kRes, T, K, p)
	}

	Ystar := mat.NewDense(T, K, nil)
	for t := 0; t < p; t++ {
		for j := 0; j < K; j++ {
			Ystar.Set(t, j, tbl.Y.At(t, j))
		}
	}

	for t := p; t < T; t++ {
		drawRow := rng.Intn(Treg)
		for eq := 0; eq < K; eq++ {
			val := 0.0
			if m.C != nil {
				val += m.C.AtVec(eq)
			}
			for j := 1; j <= p; j++ {
				Aj := m.A[j-1]
				for k := 0; k < K; k++ {
					val += Aj.At(eq, k) * Ystar.At(t-j, k)
				}
			}
			Ystar.Set(t, eq, val+m.Residuals.At(drawRow, eq))
		}
	}

	times := make([]float64, T)
	copy(times, tbl.Time)
	return &timeseries.Table{
		Y:     Ystar,
		Time:  times,
		Names: tbl.Names,
	}, nil
}

// quantile returns the empirical q-quantile with linear interpolation between
// order statistics.
func quantile(samples []float64, q float64) float64 {
	n := len(samples)
	if n == 0 {
		return math.NaN()
	}
	tmp := make([]float64, n)
	copy(tmp, samples)
	sort.Float64s(tmp)

	if q <= 0 {
		return tmp[0]
	}
	if q >= 1 {
		return tmp[n-1]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return tmp[lo]
	}
	w := pos - float64(lo)
	return tmp[lo]*(1-w) + tmp[hi]*w
}
