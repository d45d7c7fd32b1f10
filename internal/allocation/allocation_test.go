package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/timeseries"
	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/varmodel"
	apperrors "github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/pkg/errors"
)

func TestAllocateNormalizesPositiveElasticities(t *testing.T) {
	plan, err := Allocate(map[timeseries.Channel]float64{
		"tv":     3,
		"search": 1,
		"social": 0.5,
	})
	require.NoError(t, err)

	var sum float64
	for ch, share := range plan.Shares {
		assert.Greater(t, share, 0.0, "channel %s", ch)
		sum += share
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.InDelta(t, 3.0/4.5, plan.Shares["tv"], 1e-12)
	assert.Equal(t, []timeseries.Channel{"tv", "search", "social"}, plan.Ranked())
}

func TestAllocateClipsNegativeToZero(t *testing.T) {
	plan, err := Allocate(map[timeseries.Channel]float64{
		"tv":    2,
		"print": -1.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, plan.Shares["print"])
	assert.InDelta(t, 1.0, plan.Shares["tv"], 1e-12)
	assert.InDelta(t, 2.0, plan.Total, 1e-12)
}

func TestAllocateDegenerateWhenNothingPositive(t *testing.T) {
	_, err := Allocate(map[timeseries.Channel]float64{
		"tv":    0,
		"print": -0.2,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDegenerateAllocation)

	var degen *apperrors.DegenerateAllocationError
	require.ErrorAs(t, err, &degen)
	assert.Equal(t, 0.0, degen.Total)
}

func TestAllocateEmptyInput(t *testing.T) {
	_, err := Allocate(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestLongRunElasticitySumsSignificantSteps(t *testing.T) {
	// With 95% bands, z is about 1.96. Step 0 has point 1 and half-width
	// 0.98 (se about 0.5, t about 2): kept. Step 1 has point 0.1 and the
	// same width (t about 0.2): dropped. Step 2 is kept again.
	band := &varmodel.IRFBand{
		Impulse:    "tv",
		Response:   "sales",
		Confidence: 0.95,
		Point:      []float64{1.0, 0.1, 0.8},
		Lower:      []float64{0.02, -0.88, -0.18},
		Upper:      []float64{1.98, 1.08, 1.78},
	}
	got := LongRunElasticity(band, DefaultTThreshold)
	assert.InDelta(t, 1.8, got, 1e-9)
}

func TestLongRunElasticityZeroWidthBandsContributeNothing(t *testing.T) {
	band := &varmodel.IRFBand{
		Confidence: 0.95,
		Point:      []float64{0.5, 0.5},
		Lower:      []float64{0.5, 0.5},
		Upper:      []float64{0.5, 0.5},
	}
	assert.Equal(t, 0.0, LongRunElasticity(band, DefaultTThreshold))
}

func TestLongRunElasticityKeepsNegativeSignificantSteps(t *testing.T) {
	// Significance is two-sided; a strongly negative step still counts
	// toward the sum (and may drag it below zero).
	band := &varmodel.IRFBand{
		Confidence: 0.95,
		Point:      []float64{-1.0},
		Lower:      []float64{-1.5},
		Upper:      []float64{-0.5},
	}
	got := LongRunElasticity(band, DefaultTThreshold)
	assert.InDelta(t, -1.0, got, 1e-9)
}

func TestLongRunElasticityDefaultsThreshold(t *testing.T) {
	band := &varmodel.IRFBand{
		Confidence: 0.95,
		Point:      []float64{1.0},
		Lower:      []float64{0.02},
		Upper:      []float64{1.98},
	}
	// A non-positive threshold falls back to the default cutoff.
	assert.Equal(t, LongRunElasticity(band, DefaultTThreshold), LongRunElasticity(band, -1))
}
