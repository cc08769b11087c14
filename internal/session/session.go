// Package session replays the configured sources in timestamp order and drives
// one synchronous classify -> analyze -> compare -> chart pass per aligned
// minute. It owns the skip-and-log recovery at the ingestion boundary: no parse
// error is ever fatal to the run.
package session

import (
	"bufio"
	"os"
	"time"

	"github.com/quantfeed/fxlens/internal/analyzer"
	"github.com/quantfeed/fxlens/internal/chart"
	"github.com/quantfeed/fxlens/internal/ingest"
	"github.com/quantfeed/fxlens/internal/logger"
	"github.com/quantfeed/fxlens/internal/types"
	"github.com/quantfeed/fxlens/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BrokerFeed supplies pre-parsed quote bars in timestamp order. The broker
// feed needs classification only, never parsing.
type BrokerFeed interface {
	Next() (types.QuoteBar, bool)
}

// SourceStats counts one source's session outcomes.
type SourceStats struct {
	Accepted  int64
	Skipped   int64
	Anomalies int64
}

// Report is the end-of-session digest.
type Report struct {
	Sources     map[types.Source]SourceStats
	Comparisons int64
}

// Session wires the ingestion registry, per-source analyzers, the comparator
// and the chart router into one single-threaded replay.
type Session struct {
	config      Config
	registry    *ingest.Registry
	analyzers   map[types.Source]*analyzer.SpreadAnalyzer
	comparator  *analyzer.SourceComparator
	router      *chart.Router
	log         *logger.Logger
	brokerFeed  BrokerFeed
	stats       map[types.Source]*SourceStats
	comparisons int64
}

// NewSession creates a session over the given plot sink. A nil sink disables
// charting; a nil logger falls back to a no-op logger.
func NewSession(config Config, sink chart.PlotSink, log *logger.Logger) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	analyzerConfig := analyzer.SpreadAnalyzerConfig{
		PipScale:        config.PipScale,
		SummaryInterval: config.SummaryInterval,
	}
	summarySink := analyzer.NewZapSummarySink(log)

	analyzers := make(map[types.Source]*analyzer.SpreadAnalyzer, len(types.SourcePriority))
	stats := make(map[types.Source]*SourceStats, len(types.SourcePriority))

	for _, source := range types.SourcePriority {
		analyzers[source] = analyzer.NewSpreadAnalyzer(source, analyzerConfig, summarySink, log)
		stats[source] = &SourceStats{}
	}

	return &Session{
		config:      config,
		registry:    ingest.NewRegistry(),
		analyzers:   analyzers,
		comparator:  analyzer.NewSourceComparator(config.PipScale),
		router:      chart.NewRouter(sink, log),
		log:         log,
		brokerFeed:  nil,
		stats:       stats,
		comparisons: 0,
	}, nil
}

// AttachBrokerFeed sets the broker-native quote feed for the next Run.
func (s *Session) AttachBrokerFeed(feed BrokerFeed) {
	s.brokerFeed = feed
}

// IngestLine parses one raw line through the registry. Parse failures are
// logged, counted against the source's skip counter and returned; the
// analyzer counters stay untouched because the bar never reaches them.
func (s *Session) IngestLine(line string, source types.Source) (types.Bar, error) {
	bar, err := s.registry.Ingest(line, source)
	if err != nil {
		s.sourceStats(source).Skipped++
		s.log.Warn("skipping malformed line",
			zap.String("source", string(source)),
			zap.String("line", line),
			zap.Error(err),
		)

		return nil, err
	}

	s.sourceStats(source).Accepted++

	return bar, nil
}

// sourceStats returns the counter block for a source, creating it on first
// use. Lines may arrive tagged with a source outside the declared priority
// table; their errors still come back as values, never as a panic.
func (s *Session) sourceStats(source types.Source) *SourceStats {
	stats, ok := s.stats[source]
	if !ok {
		stats = &SourceStats{}
		s.stats[source] = stats
	}

	return stats
}

// ProcessSlice runs one synchronous pass over the bars that share a timestamp:
// classify and analyze each in priority order, plot, then compare across
// sources. Fewer than two sources is a gap, not an error.
func (s *Session) ProcessSlice(bars map[types.Source]types.Bar) {
	for _, source := range types.SourcePriority {
		bar, ok := bars[source]
		if !ok {
			continue
		}

		result, err := s.analyzers[source].AnalyzeBar(bar)
		if err != nil {
			// Crossed spreads are reported, never fatal; the bar stays counted.
			s.log.Warn("spread anomaly",
				zap.String("source", string(source)),
				zap.Error(err),
			)
		}

		s.stats[source].Anomalies += int64(len(result.Anomalies))

		spreadPips := decimal.Zero
		if result.SpreadPips.IsSome() {
			spreadPips = result.SpreadPips.Unwrap()
		}

		s.router.RouteBar(bar, spreadPips)

		if types.Classify(bar) == types.BarTypeQuote && s.log.Core().Enabled(zap.DebugLevel) {
			s.log.Debug("quote bar",
				zap.String("source", string(source)),
				zap.Time("time", bar.BarTime()),
				zap.String("spread_pips", spreadPips.String()),
			)
		}
	}

	snapshot, err := s.comparator.Compare(bars)
	if err != nil {
		if !errors.IsInsufficientSourcesError(err) {
			s.log.Warn("comparison failed", zap.Error(err))
		}

		return
	}

	s.comparisons++
	s.router.RouteSnapshot(snapshot)
}

// Run replays all configured sources in merged timestamp order and returns the
// session report. Each source's bars arrive time-sorted, so the replay is a
// k-way merge with one bar of lookahead per source and no full-history buffer.
func (s *Session) Run() (Report, error) {
	cursors, cleanup, err := s.openCursors()
	if err != nil {
		return Report{}, err
	}

	defer cleanup()

	for {
		groupTime, ok := earliestTime(cursors)
		if !ok {
			break
		}

		group := make(map[types.Source]types.Bar)

		for _, cursor := range cursors {
			if cursor.next != nil && cursor.next.BarTime().Equal(groupTime) {
				group[cursor.source] = cursor.next
				s.advance(cursor)
			}
		}

		s.ProcessSlice(group)
	}

	return s.Report(), nil
}

// Report returns the current session counters.
func (s *Session) Report() Report {
	report := Report{
		Sources:     make(map[types.Source]SourceStats, len(s.stats)),
		Comparisons: s.comparisons,
	}

	for source, stats := range s.stats {
		report.Sources[source] = *stats
	}

	return report
}

// cursor is one source's replay position: the scanner (nil for the broker
// feed) and the next undelivered bar.
type cursor struct {
	source  types.Source
	scanner *bufio.Scanner
	next    types.Bar
}

func (s *Session) openCursors() ([]*cursor, func(), error) {
	var (
		cursors []*cursor
		files   []*os.File
	)

	cleanup := func() {
		for _, file := range files {
			_ = file.Close()
		}
	}

	paths := map[types.Source]string{
		types.SourceCustomCSV:   s.config.CustomCSVPath,
		types.SourceTradingView: s.config.TradingViewCSVPath,
	}

	for _, source := range types.SourcePriority {
		path, ok := paths[source]
		if !ok || path == "" {
			continue
		}

		file, err := os.Open(path)
		if err != nil {
			cleanup()

			return nil, nil, errors.Wrapf(errors.ErrCodeDataPathError, err, "failed to open data file: %s", path)
		}

		files = append(files, file)
		c := &cursor{source: source, scanner: bufio.NewScanner(file)}
		s.advance(c)
		cursors = append(cursors, c)
	}

	if s.brokerFeed != nil {
		c := &cursor{source: types.SourceBroker}
		s.advance(c)
		cursors = append(cursors, c)
	}

	return cursors, cleanup, nil
}

// advance moves a cursor to its next accepted bar, skipping headers, blank
// lines and malformed records along the way.
func (s *Session) advance(c *cursor) {
	c.next = nil

	if c.source == types.SourceBroker {
		if s.brokerFeed == nil {
			return
		}

		bar, ok := s.brokerFeed.Next()
		if !ok {
			return
		}

		s.stats[types.SourceBroker].Accepted++
		c.next = bar

		return
	}

	for c.scanner.Scan() {
		line := c.scanner.Text()
		if !ingest.IsDataLine(line) {
			continue
		}

		bar, err := s.IngestLine(line, c.source)
		if err != nil {
			continue
		}

		c.next = bar

		return
	}
}

// earliestTime returns the smallest pending timestamp across cursors.
func earliestTime(cursors []*cursor) (time.Time, bool) {
	var (
		earliest time.Time
		found    bool
	)

	for _, cursor := range cursors {
		if cursor.next == nil {
			continue
		}

		if !found || cursor.next.BarTime().Before(earliest) {
			earliest = cursor.next.BarTime()
			found = true
		}
	}

	return earliest, found
}
