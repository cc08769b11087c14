package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quantfeed/fxlens/internal/chart"
	"github.com/quantfeed/fxlens/internal/types"
	"github.com/quantfeed/fxlens/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SessionTestSuite struct {
	suite.Suite
	dir string
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (suite *SessionTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

type recordedPlot struct {
	series string
	time   time.Time
	value  decimal.Decimal
}

type recordingSink struct {
	plots []recordedPlot
}

func (s *recordingSink) Plot(series string, timestamp time.Time, value decimal.Decimal) error {
	s.plots = append(s.plots, recordedPlot{series: series, time: timestamp, value: value})

	return nil
}

func (s *recordingSink) bySeries(series string) []recordedPlot {
	var matched []recordedPlot

	for _, plot := range s.plots {
		if plot.series == series {
			matched = append(matched, plot)
		}
	}

	return matched
}

// sliceBrokerFeed replays a fixed set of quote bars.
type sliceBrokerFeed struct {
	bars []types.QuoteBar
	pos  int
}

func (f *sliceBrokerFeed) Next() (types.QuoteBar, bool) {
	if f.pos >= len(f.bars) {
		return types.QuoteBar{}, false
	}

	bar := f.bars[f.pos]
	f.pos++

	return bar, true
}

func (suite *SessionTestSuite) writeFile(name, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	return path
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

const customCSV = `Date,BidOpen,BidHigh,BidLow,BidClose,AskOpen,AskHigh,AskLow,AskClose,Volume
2025-07-10 00:00:00,1.17376,1.17377,1.17353,1.17359,1.17387,1.17388,1.17363,1.17369,278
2025-07-10 00:01:00,abc,1.17377,1.17353,1.17359,1.17387,1.17388,1.17363,1.17369,278
2025-07-10 00:02:00,1.17380,1.17385,1.17360,1.17370,1.17390,1.17395,1.17370,1.17380,120
`

// 1752105600 = 2025-07-10 00:00:00 UTC, 1752105720 = 00:02:00.
const tradingViewCSV = `time,open,high,low,close,Volume
1752105600,1.17370,1.17380,1.17360,1.17364,5
1752105720,1.17372,1.17390,1.17370,1.17385,3
`

func (suite *SessionTestSuite) newSession(config Config, sink chart.PlotSink) *Session {
	s, err := NewSession(config, sink, nil)
	suite.Require().NoError(err)

	return s
}

func (suite *SessionTestSuite) TestRunMergesSourcesAndCompares() {
	config := DefaultConfig()
	config.CustomCSVPath = suite.writeFile("EUR_USD.csv", customCSV)
	config.TradingViewCSVPath = suite.writeFile("FX_EURUSD.csv", tradingViewCSV)

	sink := &recordingSink{}
	s := suite.newSession(config, sink)

	report, err := s.Run()
	suite.NoError(err)

	// The malformed 00:01:00 custom line is skipped; the other two are accepted.
	suite.Equal(int64(2), report.Sources[types.SourceCustomCSV].Accepted)
	suite.Equal(int64(1), report.Sources[types.SourceCustomCSV].Skipped)
	suite.Equal(int64(2), report.Sources[types.SourceTradingView].Accepted)
	suite.Equal(int64(0), report.Sources[types.SourceTradingView].Skipped)

	// Both sources are present at 00:00:00 and 00:02:00.
	suite.Equal(int64(2), report.Comparisons)

	suite.Len(sink.bySeries(chart.SeriesCustomPrice), 2)
	suite.Len(sink.bySeries(chart.SeriesCustomSpread), 2)
	suite.Len(sink.bySeries(chart.SeriesTradingViewPrice), 2)
	suite.Len(sink.bySeries(chart.SeriesMaxDivergence), 2)

	// 00:00:00 divergence: custom midpoint 1.17364 vs TradingView close 1.17364.
	first := sink.bySeries(chart.SeriesMaxDivergence)[0]
	suite.Equal(time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), first.time)
	suite.True(first.value.IsZero(), "got %s", first.value)
}

func (suite *SessionTestSuite) TestRunWithBrokerFeed() {
	config := DefaultConfig()
	config.CustomCSVPath = suite.writeFile("EUR_USD.csv", customCSV)

	feed := &sliceBrokerFeed{bars: []types.QuoteBar{
		{
			Time:   time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
			Bid:    types.OHLC{Open: dec("1.17355"), High: dec("1.17360"), Low: dec("1.17350"), Close: dec("1.17355")},
			Ask:    types.OHLC{Open: dec("1.17371"), High: dec("1.17376"), Low: dec("1.17366"), Close: dec("1.17371")},
			Source: types.SourceBroker,
		},
	}}

	sink := &recordingSink{}
	s := suite.newSession(config, sink)
	s.AttachBrokerFeed(feed)

	report, err := s.Run()
	suite.NoError(err)

	suite.Equal(int64(1), report.Sources[types.SourceBroker].Accepted)
	suite.Equal(int64(1), report.Comparisons)
	suite.Len(sink.bySeries(chart.SeriesBrokerPrice), 1)
	suite.Len(sink.bySeries(chart.SeriesBrokerSpread), 1)
}

func (suite *SessionTestSuite) TestRunSingleSourceNeverCompares() {
	config := DefaultConfig()
	config.CustomCSVPath = suite.writeFile("EUR_USD.csv", customCSV)

	sink := &recordingSink{}
	s := suite.newSession(config, sink)

	report, err := s.Run()
	suite.NoError(err)
	suite.Equal(int64(0), report.Comparisons)
	suite.Empty(sink.bySeries(chart.SeriesMaxDivergence))
}

func (suite *SessionTestSuite) TestIngestLineSkipLeavesCountersUnchanged() {
	s := suite.newSession(DefaultConfig(), nil)

	_, err := s.IngestLine("2025-07-10 00:00:00,abc,1.17377,1.17353,1.17359,1.17387,1.17388,1.17363,1.17369,278", types.SourceCustomCSV)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodePriceParse))

	report := s.Report()
	suite.Equal(int64(0), report.Sources[types.SourceCustomCSV].Accepted)
	suite.Equal(int64(1), report.Sources[types.SourceCustomCSV].Skipped)
}

func (suite *SessionTestSuite) TestIngestLineUnknownSourceReturnsError() {
	s := suite.newSession(DefaultConfig(), nil)

	var err error

	suite.NotPanics(func() {
		_, err = s.IngestLine("1,2,3", types.Source("ticks"))
	})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownSource))

	report := s.Report()
	suite.Equal(int64(1), report.Sources[types.Source("ticks")].Skipped)
	suite.Equal(int64(0), report.Sources[types.Source("ticks")].Accepted)
}

func (suite *SessionTestSuite) TestRunMissingDataFile() {
	config := DefaultConfig()
	config.CustomCSVPath = filepath.Join(suite.dir, "missing.csv")

	s := suite.newSession(config, nil)

	_, err := s.Run()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataPathError))
}

func (suite *SessionTestSuite) TestCrossedSpreadCountsAnomalyAndBar() {
	crossed := `2025-07-10 00:00:00,1.17376,1.17377,1.17353,1.17369,1.17387,1.17388,1.17363,1.17359,278
`
	config := DefaultConfig()
	config.CustomCSVPath = suite.writeFile("EUR_USD.csv", crossed)

	sink := &recordingSink{}
	s := suite.newSession(config, sink)

	report, err := s.Run()
	suite.NoError(err)
	suite.Equal(int64(1), report.Sources[types.SourceCustomCSV].Accepted)
	suite.Equal(int64(1), report.Sources[types.SourceCustomCSV].Anomalies)

	// The crossed bar is still plotted, spread included.
	spreads := sink.bySeries(chart.SeriesCustomSpread)
	suite.Len(spreads, 1)
	suite.True(spreads[0].value.IsNegative())
}
