// Package pipeline wires the components into the single-pass batch
// computation: stationarize, fit the joint VAR, simulate orthogonalized
// impulse responses with bootstrap bands, test Granger causality, and derive
// the budget allocation.
package pipeline

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/allocation"
	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/config"
	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/stationarity"
	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/timeseries"
	"github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/internal/varmodel"
	apperrors "github.com/darishkhan/VAR-Analysis-On-Omnichannel-Marketing/pkg/errors"
)

// ChannelResult collects everything the pipeline derives for one channel,
// keyed by channel identifier rather than scattered across loose variables.
type ChannelResult struct {
	Raw         []float64
	Transformed *stationarity.TransformedSeries
	Verdict     *stationarity.Verdict
	IRF         *varmodel.IRFBand
	CausesSales *varmodel.CausalityResult
	SalesCauses *varmodel.CausalityResult
	Elasticity  float64
	Share       float64
}

// ResultBundle is the full output of one pipeline run, consumed read-only by
// the reporting side.
type ResultBundle struct {
	RunID        uuid.UUID
	Sales        timeseries.Channel
	ChannelOrder []timeseries.Channel
	Channels     map[timeseries.Channel]*ChannelResult
	SalesVerdict *stationarity.Verdict
	Model        *varmodel.Model
	SelectedLag  int
	LagScores    map[int]float64
	Plan         *allocation.Plan
}

// Pipeline runs the analysis for one entity's table.
type Pipeline struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func New(cfg *config.Config, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{cfg: cfg, logger: logger}
}

// Run executes the full pipeline on tbl, whose columns must include every
// configured channel and the sales series. Errors are fatal and carry the
// channel and stage that produced them; nothing is retried.
func (p *Pipeline) Run(tbl *timeseries.Table) (*ResultBundle, error) {
	runID := uuid.New()
	log := p.logger.WithField("run_id", runID)

	sales := timeseries.Channel(p.cfg.Data.Sales)
	channels := make([]timeseries.Channel, len(p.cfg.Data.Channels))
	for i, c := range p.cfg.Data.Channels {
		channels[i] = timeseries.Channel(c)
	}

	bundle := &ResultBundle{
		RunID:        runID,
		Sales:        sales,
		ChannelOrder: channels,
		Channels:     make(map[timeseries.Channel]*ChannelResult, len(channels)),
	}

	// 1. Stationarize every series independently.
	transformer := stationarity.NewTransformer(
		p.cfg.Model.SeasonalPeriod, p.cfg.Model.SeasonalThreshold, p.cfg.Model.Alpha, p.logger)

	transformed := make(map[timeseries.Channel][]float64, len(channels)+1)
	for _, ch := range append(append([]timeseries.Channel{}, channels...), sales) {
		raw := tbl.Column(ch)
		if raw == nil {
			return nil, apperrors.NewInputError(string(ch), "column missing from input table")
		}
		ts, verdict, err := transformer.Transform(ch, raw)
		if err != nil {
			return nil, err
		}
		transformed[ch] = ts.Values
		if ch == sales {
			bundle.SalesVerdict = verdict
		} else {
			bundle.Channels[ch] = &ChannelResult{Raw: raw, Transformed: ts, Verdict: verdict}
		}
	}

	// 2. Re-align to the shortest common length; differencing losses differ
	// per series and the estimator requires identical indexing.
	ordering := p.causalOrdering(channels, sales)
	modelTbl, err := timeseries.AlignTail(ordering, transformed)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"observations": modelTbl.Len(),
		"variables":    len(ordering),
	}).Info("aligned transformed series")

	// 3. Lag order search and joint fit.
	lag, scores, err := varmodel.SelectLagOrder(modelTbl, p.cfg.Model.MaxLag, true)
	if err != nil {
		return nil, err
	}
	bundle.SelectedLag = lag
	bundle.LagScores = scores

	model, err := varmodel.Estimate(modelTbl, varmodel.Spec{Lags: lag, Const: true})
	if err != nil {
		return nil, err
	}
	bundle.Model = model
	log.WithFields(logrus.Fields{
		"lag":       lag,
		"variables": model.K(),
	}).Info("fitted VAR model")

	// 4. Orthogonalized impulse responses with bootstrap bands.
	bands, err := model.BootstrapIRF(modelTbl, sales, varmodel.BootstrapOptions{
		Replications:       p.cfg.Bootstrap.Replications,
		Horizon:            p.cfg.Bootstrap.Horizon,
		Confidence:         p.cfg.Bootstrap.Confidence,
		Seed:               p.cfg.Bootstrap.Seed,
		Ordering:           ordering,
		MinSuccessFraction: p.cfg.Bootstrap.MinSuccessFraction,
	}, p.logger)
	if err != nil {
		return nil, err
	}

	// 5. Granger causality in both directions, per channel. The directions
	// are independent tests and do not imply each other.
	elasticities := make(map[timeseries.Channel]float64, len(channels))
	for _, ch := range channels {
		res := bundle.Channels[ch]
		res.IRF = bands[ch]

		chXs := modelTbl.Column(ch)
		salesXs := modelTbl.Column(sales)
		if res.CausesSales, err = varmodel.TestCausality(ch, sales, chXs, salesXs, lag, p.cfg.Model.Alpha); err != nil {
			return nil, err
		}
		if res.SalesCauses, err = varmodel.TestCausality(sales, ch, salesXs, chXs, lag, p.cfg.Model.Alpha); err != nil {
			return nil, err
		}

		// 6. Long-run elasticity from the significant impulse-response
		// steps, only for channels whose history predicts sales at all.
		if res.CausesSales.Significant {
			res.Elasticity = allocation.LongRunElasticity(res.IRF, p.cfg.Elasticity.TThreshold)
		}
		elasticities[ch] = res.Elasticity

		log.WithFields(logrus.Fields{
			"channel":       ch,
			"granger_p":     res.CausesSales.PValue,
			"granger_sig":   res.CausesSales.Significant,
			"elasticity":    res.Elasticity,
			"reverse_p":     res.SalesCauses.PValue,
			"reverse_sig":   res.SalesCauses.Significant,
		}).Info("channel causality and elasticity")
	}

	// 7. Budget shares. A non-positive elasticity total is surfaced as a
	// degenerate allocation, never divided through silently.
	plan, err := allocation.Allocate(elasticities)
	if err != nil {
		return nil, err
	}
	bundle.Plan = plan
	for ch, res := range bundle.Channels {
		res.Share = plan.Shares[ch]
	}

	log.WithField("top_channel", plan.Ranked()[0]).Info("allocation plan computed")
	return bundle, nil
}

// causalOrdering returns the contemporaneous shock ordering: the configured
// override if present, otherwise channels in configured order with sales
// last (activity moves within the week before sales responds).
func (p *Pipeline) causalOrdering(channels []timeseries.Channel, sales timeseries.Channel) []timeseries.Channel {
	if len(p.cfg.Model.CausalOrdering) > 0 {
		out := make([]timeseries.Channel, len(p.cfg.Model.CausalOrdering))
		for i, c := range p.cfg.Model.CausalOrdering {
			out[i] = timeseries.Channel(c)
		}
		return out
	}
	return append(append([]timeseries.Channel{}, channels...), sales)
}
