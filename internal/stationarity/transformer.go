package stationarity

import (
	"github.com/sirupsen/logrus"

	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/timeseries"
	apperrors "github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/pkg/errors"
)

// Verdict is the per-series stationarity assessment: the three test outcomes,
// the vote they produced, and the seasonal-strength reading.
type Verdict struct {
	Channel           timeseries.Channel
	Tests             map[TestKind]*TestResult
	NeedsFirstDiff    bool
	SeasonalStrength  float64
	NeedsSeasonalDiff bool
}

// MajorityVote is the single decision policy combining the three tests: the
// series needs first differencing when at least two of the three flag
// non-stationarity, each per its own null orientation.
func MajorityVote(tests map[TestKind]*TestResult) bool {
	votes := 0
	for _, res := range tests {
		if res.NonStationary {
			votes++
		}
	}
	return votes >= 2
}

// TransformedSeries is a series after log scaling and the differencing steps
// the verdict called for, together with the metadata describing them and the
// confirmation re-check run on the result.
type TransformedSeries struct {
	Channel timeseries.Channel
	Values  []float64
	Meta    timeseries.Transform
	Recheck *Verdict
}

// Transformer applies the stationarization policy per series.
type Transformer struct {
	Period            int     // seasonal periodicity, e.g. 52 for weekly data
	SeasonalThreshold float64 // seasonal strength above this marks a seasonal unit root
	Alpha             float64 // significance level fed to the unit-root tests
	logger            *logrus.Logger
}

const (
	// DefaultSeasonalThreshold follows the usual 0.64 seasonal-strength rule
	// of thumb for one seasonal difference.
	DefaultSeasonalThreshold = 0.64
	DefaultAlpha             = 0.05
)

func NewTransformer(period int, seasonalThreshold, alpha float64, logger *logrus.Logger) *Transformer {
	if seasonalThreshold <= 0 {
		seasonalThreshold = DefaultSeasonalThreshold
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Transformer{
		Period:            period,
		SeasonalThreshold: seasonalThreshold,
		Alpha:             alpha,
		logger:            logger,
	}
}

// assess runs the three unit-root tests on xs.
func (tr *Transformer) assess(channel timeseries.Channel, xs []float64) (map[TestKind]*TestResult, error) {
	adf, err := ADF(xs, 0, tr.Alpha)
	if err != nil {
		return nil, err
	}
	pp, err := PhillipsPerron(xs, 0, tr.Alpha)
	if err != nil {
		return nil, err
	}
	kpss, err := KPSS(xs, 0, tr.Alpha)
	if err != nil {
		return nil, err
	}
	return map[TestKind]*TestResult{
		TestADF:  adf,
		TestPP:   pp,
		TestKPSS: kpss,
	}, nil
}

// Transform stationarizes one raw positive series: log scale, vote on first
// differencing, measure seasonal strength for seasonal differencing, apply
// the marked transforms (first difference before seasonal difference), and
// re-check. A re-check that still votes non-stationary aborts the pipeline.
func (tr *Transformer) Transform(channel timeseries.Channel, raw []float64) (*TransformedSeries, *Verdict, error) {
	logged, err := timeseries.Log(channel, raw)
	if err != nil {
		return nil, nil, err
	}

	tests, err := tr.assess(channel, logged)
	if err != nil {
		return nil, nil, err
	}

	verdict := &Verdict{
		Channel:        channel,
		Tests:          tests,
		NeedsFirstDiff: MajorityVote(tests),
	}

	if tr.Period > 1 && len(logged) >= 2*tr.Period {
		dec := timeseries.Decompose(logged, tr.Period)
		verdict.SeasonalStrength = dec.SeasonalStrength()
		verdict.NeedsSeasonalDiff = verdict.SeasonalStrength > tr.SeasonalThreshold
	}

	tr.logger.WithFields(logrus.Fields{
		"channel":           channel,
		"first_diff":        verdict.NeedsFirstDiff,
		"seasonal_diff":     verdict.NeedsSeasonalDiff,
		"seasonal_strength": verdict.SeasonalStrength,
	}).Debug("stationarity verdict")

	values := logged
	meta := timeseries.Transform{Log: true, SeasonalPeriod: tr.Period}
	if verdict.NeedsFirstDiff {
		values = timeseries.Diff(values)
		meta.FirstDiff = true
	}
	if verdict.NeedsSeasonalDiff {
		values = timeseries.SeasonalDiff(values, tr.Period)
		meta.SeasonalDiff = true
		if values == nil {
			return nil, verdict, apperrors.NewConfigurationError("stationarity",
				"channel %q too short for seasonal differencing at period %d", channel, tr.Period)
		}
	}

	ts := &TransformedSeries{Channel: channel, Values: values, Meta: meta}

	// The vote above is final; this re-run is a confirmation only, and a
	// remaining non-stationary majority means the model assumptions do not
	// hold for this data.
	recheckTests, err := tr.assess(channel, values)
	if err != nil {
		return nil, verdict, err
	}
	ts.Recheck = &Verdict{
		Channel:        channel,
		Tests:          recheckTests,
		NeedsFirstDiff: MajorityVote(recheckTests),
	}
	if ts.Recheck.NeedsFirstDiff {
		return nil, verdict, apperrors.NewModelAssumptionError(string(channel), "stationarity",
			"series still non-stationary after differencing (first=%t seasonal=%t)",
			meta.FirstDiff, meta.SeasonalDiff)
	}

	return ts, verdict, nil
}
