// Package allocation converts impulse-response trajectories into per-channel
// long-run elasticities and normalizes those into budget shares.
package allocation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/timeseries"
	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/varmodel"
	apperrors "github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/pkg/errors"
)

// DefaultTThreshold is the pseudo t-statistic cutoff for keeping an
// impulse-response step in the long-run sum. It is deliberately looser than
// the conventional ~1.96: steps are retained whenever the point estimate
// exceeds one standard error. Inherited behavior; override via configuration
// rather than editing this constant.
const DefaultTThreshold = 1.0

// degenerateTotal is the floor below which a summed elasticity is treated as
// zero for allocation purposes.
const degenerateTotal = 1e-9

// LongRunElasticity filters the per-step point estimates of one channel's
// impulse response for significance and sums the survivors. The standard
// error per step is recovered from the bootstrap band width at the band's
// own confidence level, se = (upper-lower)/(2z); steps with |point/se| <=
// tThreshold contribute zero.
func LongRunElasticity(band *varmodel.IRFBand, tThreshold float64) float64 {
	if tThreshold <= 0 {
		tThreshold = DefaultTThreshold
	}
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(1 - (1-band.Confidence)/2)

	var total float64
	for h := range band.Point {
		se := (band.Upper[h] - band.Lower[h]) / (2 * z)
		if se <= 0 || math.IsNaN(se) {
			continue
		}
		if math.Abs(band.Point[h]/se) > tThreshold {
			total += band.Point[h]
		}
	}
	return total
}

// Plan maps each channel to its recommended budget share. Shares are in
// [0,1] and sum to 1; channels with non-positive elasticity get share 0.
type Plan struct {
	Shares map[timeseries.Channel]float64
	Total  float64 // summed positive elasticity mass the shares divide
}

// Ranked returns channels by descending share.
func (p *Plan) Ranked() []timeseries.Channel {
	out := make([]timeseries.Channel, 0, len(p.Shares))
	for ch := range p.Shares {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool {
		if p.Shares[out[i]] != p.Shares[out[j]] {
			return p.Shares[out[i]] > p.Shares[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// Allocate normalizes elasticities into budget shares. Negative elasticities
// are clipped to zero before normalizing. When no channel contributes
// positive elasticity the plan is undefined and a DegenerateAllocationError
// is returned instead of unstable shares.
func Allocate(elasticities map[timeseries.Channel]float64) (*Plan, error) {
	if len(elasticities) == 0 {
		return nil, apperrors.NewInputError("", "no elasticities to allocate")
	}

	clipped := make(map[timeseries.Channel]float64, len(elasticities))
	var total float64
	for ch, e := range elasticities {
		if e > 0 {
			clipped[ch] = e
			total += e
		} else {
			clipped[ch] = 0
		}
	}
	if total <= degenerateTotal {
		return nil, &apperrors.DegenerateAllocationError{Total: total}
	}

	shares := make(map[timeseries.Channel]float64, len(clipped))
	for ch, e := range clipped {
		shares[ch] = e / total
	}
	return &Plan{Shares: shares, Total: total}, nil
}
