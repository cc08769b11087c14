// Package chart routes normalized values to named plot series. Rendering lives
// behind the PlotSink interface; the router itself holds no chart logic.
package chart

import (
	"time"

	"github.com/quantfeed/fxlens/internal/analyzer"
	"github.com/quantfeed/fxlens/internal/logger"
	"github.com/quantfeed/fxlens/internal/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Series names follow the original chart layout: one price series per source,
// spread series for the quote-shaped feeds, and one divergence series.
const (
	SeriesCustomPrice      = "Custom_Price"
	SeriesTradingViewPrice = "TradingView_Price"
	SeriesBrokerPrice      = "Broker_Price"
	SeriesCustomSpread     = "Custom_Spread"
	SeriesBrokerSpread     = "Broker_Spread"
	SeriesMaxDivergence    = "Max_Divergence"
)

var priceSeries = map[types.Source]string{
	types.SourceCustomCSV:   SeriesCustomPrice,
	types.SourceTradingView: SeriesTradingViewPrice,
	types.SourceBroker:      SeriesBrokerPrice,
}

var spreadSeries = map[types.Source]string{
	types.SourceCustomCSV: SeriesCustomSpread,
	types.SourceBroker:    SeriesBrokerSpread,
}

// PlotSink receives (series, timestamp, value) triples and is responsible for
// rendering them. Implementations are collaborators, not core.
type PlotSink interface {
	Plot(series string, timestamp time.Time, value decimal.Decimal) error
}

// Router maps bars and comparison snapshots onto named series. Sink failures
// are logged and swallowed: charting must never abort the feed.
type Router struct {
	sink PlotSink
	log  *logger.Logger
}

// NewRouter creates a router over the given sink. A nil logger falls back to a
// no-op logger.
func NewRouter(sink PlotSink, log *logger.Logger) *Router {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Router{
		sink: sink,
		log:  log,
	}
}

// RouteBar plots a bar's close price on its source's price series, and for
// quote bars the close spread in pips on the source's spread series.
func (r *Router) RouteBar(bar types.Bar, spreadPips decimal.Decimal) {
	source := bar.BarSource()

	if series, ok := priceSeries[source]; ok {
		r.plot(series, bar.BarTime(), bar.ClosePrice())
	}

	if types.Classify(bar) != types.BarTypeQuote {
		return
	}

	if series, ok := spreadSeries[source]; ok {
		r.plot(series, bar.BarTime(), spreadPips)
	}
}

// RouteSnapshot plots the max pairwise divergence of one comparison snapshot.
func (r *Router) RouteSnapshot(snapshot analyzer.ComparisonSnapshot) {
	r.plot(SeriesMaxDivergence, snapshot.Time, snapshot.MaxDivergence)
}

func (r *Router) plot(series string, timestamp time.Time, value decimal.Decimal) {
	if r.sink == nil {
		return
	}

	if err := r.sink.Plot(series, timestamp, value); err != nil {
		r.log.Warn("plot sink failed",
			zap.String("series", series),
			zap.Error(err),
		)
	}
}
