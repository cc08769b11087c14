// Package analyzer computes per-bar spread analytics and cross-source
// divergence over the normalized bar model.
package analyzer

import (
	"github.com/moznion/go-optional"
	"github.com/quantfeed/fxlens/internal/logger"
	"github.com/quantfeed/fxlens/internal/types"
	"github.com/quantfeed/fxlens/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultPipScale converts a EUR/USD price difference into pips.
const DefaultPipScale = 10_000

// DefaultSummaryInterval is the number of accepted bars between periodic summaries.
const DefaultSummaryInterval = 10

// spreadTolerance absorbs numeric noise around zero before a spread counts as
// crossed. Prices are decimals, but upstream feeds are not.
var spreadTolerance = decimal.New(1, -10)

// Anomaly marks a malformed-but-structurally-valid observation. Anomalies are
// reported in results, never used to reject a bar.
type Anomaly string

const (
	// AnomalyCrossedSpread means ask.close < bid.close beyond tolerance.
	AnomalyCrossedSpread Anomaly = "crossed_spread"
	// AnomalyInvertedOHLC means a price series violates low <= open,close <= high.
	AnomalyInvertedOHLC Anomaly = "inverted_ohlc"
)

// AnalysisState is the per-source running state. Each analyzer instance owns its
// state exclusively; it is reset only at session start.
type AnalysisState struct {
	BarCount       int64
	LastSpreadPips optional.Option[decimal.Decimal]
	LastClose      decimal.Decimal
	LastVolume     int64
	SpreadPipsSum  decimal.Decimal
	SpreadBarCount int64
}

// AnalysisResult is the outcome of analyzing one bar.
type AnalysisResult struct {
	Source     types.Source
	BarCount   int64
	Price      decimal.Decimal
	SpreadPips optional.Option[decimal.Decimal]
	Anomalies  []Anomaly
}

// Summary is the periodic digest pushed to the summary sink every K bars.
type Summary struct {
	Source         types.Source
	BarCount       int64
	LastSpreadPips optional.Option[decimal.Decimal]
	LastClose      decimal.Decimal
	LastVolume     int64
	AvgSpreadPips  optional.Option[decimal.Decimal]
}

// SummarySink receives periodic summaries. Sink failures are swallowed by the
// analyzer: analytics must never abort the feed.
type SummarySink interface {
	PushSummary(summary Summary) error
}

// SpreadAnalyzerConfig parameterizes one analyzer instance.
type SpreadAnalyzerConfig struct {
	// PipScale converts price differences to pips (10,000 for EUR/USD).
	PipScale int64 `yaml:"pip_scale" validate:"required,gt=0"`
	// SummaryInterval is K: a summary is emitted every K accepted bars.
	SummaryInterval int64 `yaml:"summary_interval" validate:"required,gt=0"`
}

// DefaultSpreadAnalyzerConfig returns the EUR/USD defaults.
func DefaultSpreadAnalyzerConfig() SpreadAnalyzerConfig {
	return SpreadAnalyzerConfig{
		PipScale:        DefaultPipScale,
		SummaryInterval: DefaultSummaryInterval,
	}
}

// SpreadAnalyzer tracks spread and price analytics for a single source.
type SpreadAnalyzer struct {
	source types.Source
	config SpreadAnalyzerConfig
	state  AnalysisState
	sink   SummarySink
	log    *logger.Logger
}

// NewSpreadAnalyzer creates an analyzer for one source. A nil sink disables
// periodic summaries; a nil logger falls back to a no-op logger.
func NewSpreadAnalyzer(source types.Source, config SpreadAnalyzerConfig, sink SummarySink, log *logger.Logger) *SpreadAnalyzer {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &SpreadAnalyzer{
		source: source,
		config: config,
		state:  AnalysisState{},
		sink:   sink,
		log:    log,
	}
}

// State returns a copy of the current per-source state.
func (a *SpreadAnalyzer) State() AnalysisState {
	return a.state
}

// AnalyzeBar analyzes one accepted bar and updates the running state. For quote
// bars it computes the close spread in pips; for trade bars it records price
// only. A crossed spread comes back as an InvalidSpread error alongside a fully
// populated result, and the bar is still counted: the error is a report, not a
// rejection.
func (a *SpreadAnalyzer) AnalyzeBar(bar types.Bar) (AnalysisResult, error) {
	result := AnalysisResult{
		Source: a.source,
		Price:  bar.ClosePrice(),
	}

	var spreadErr error

	switch b := bar.(type) {
	case types.QuoteBar:
		spreadPips := b.SpreadClose().Mul(decimal.NewFromInt(a.config.PipScale))
		result.SpreadPips = optional.Some(spreadPips)

		if b.SpreadClose().LessThan(spreadTolerance.Neg()) {
			result.Anomalies = append(result.Anomalies, AnomalyCrossedSpread)
			spreadErr = errors.Newf(errors.ErrCodeInvalidSpread,
				"crossed spread %s pips on %s at %s", spreadPips.String(), a.source, b.Time)
		}

		if b.Bid.Inverted() || b.Ask.Inverted() {
			result.Anomalies = append(result.Anomalies, AnomalyInvertedOHLC)
		}

		a.state.LastSpreadPips = optional.Some(spreadPips)
		a.state.SpreadPipsSum = a.state.SpreadPipsSum.Add(spreadPips)
		a.state.SpreadBarCount++
		a.state.LastVolume = b.Volume.TakeOr(0)
	case types.TradeBar:
		if b.OHLC.Inverted() {
			result.Anomalies = append(result.Anomalies, AnomalyInvertedOHLC)
		}

		a.state.LastVolume = b.Volume
	}

	a.state.BarCount++
	a.state.LastClose = bar.ClosePrice()
	result.BarCount = a.state.BarCount

	if a.state.BarCount%a.config.SummaryInterval == 0 {
		a.emitSummary()
	}

	return result, spreadErr
}

// emitSummary pushes the periodic digest to the sink. Failures are swallowed.
func (a *SpreadAnalyzer) emitSummary() {
	if a.sink == nil {
		return
	}

	summary := Summary{
		Source:         a.source,
		BarCount:       a.state.BarCount,
		LastSpreadPips: a.state.LastSpreadPips,
		LastClose:      a.state.LastClose,
		LastVolume:     a.state.LastVolume,
		AvgSpreadPips:  optional.None[decimal.Decimal](),
	}

	if a.state.SpreadBarCount > 0 {
		summary.AvgSpreadPips = optional.Some(
			a.state.SpreadPipsSum.Div(decimal.NewFromInt(a.state.SpreadBarCount)))
	}

	if err := a.sink.PushSummary(summary); err != nil {
		a.log.Warn("summary sink failed",
			zap.String("source", string(a.source)),
			zap.Error(err),
		)
	}
}

// ZapSummarySink logs periodic summaries through the session logger.
type ZapSummarySink struct {
	log *logger.Logger
}

// NewZapSummarySink creates a sink backed by the given logger.
func NewZapSummarySink(log *logger.Logger) *ZapSummarySink {
	return &ZapSummarySink{log: log}
}

// PushSummary implements SummarySink.
func (s *ZapSummarySink) PushSummary(summary Summary) error {
	fields := []zap.Field{
		zap.String("source", string(summary.Source)),
		zap.Int64("bar_count", summary.BarCount),
		zap.String("last_close", summary.LastClose.String()),
		zap.Int64("last_volume", summary.LastVolume),
	}

	if summary.LastSpreadPips.IsSome() {
		fields = append(fields, zap.String("last_spread_pips", summary.LastSpreadPips.Unwrap().String()))
	}

	if summary.AvgSpreadPips.IsSome() {
		fields = append(fields, zap.String("avg_spread_pips", summary.AvgSpreadPips.Unwrap().StringFixed(2)))
	}

	s.log.Info("bar summary", fields...)

	return nil
}
