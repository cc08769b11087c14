package types

// Source identifies one of the originating data feeds.
type Source string

const (
	// SourceCustomCSV is the custom Bid/Ask CSV feed.
	SourceCustomCSV Source = "custom_csv"
	// SourceTradingView is the Unix-timestamp OHLCV CSV feed.
	SourceTradingView Source = "tradingview_csv"
	// SourceBroker is the broker-native quote feed, delivered pre-parsed.
	SourceBroker Source = "broker"
)

// SourcePriority is the fixed comparison order: custom CSV first, then the
// TradingView CSV, then the broker feed. Comparisons iterate in this order so
// that primary-vs-secondary pairings are reproducible across runs.
var SourcePriority = []Source{
	SourceCustomCSV,
	SourceTradingView,
	SourceBroker,
}

// Known reports whether s is one of the declared feeds.
func (s Source) Known() bool {
	switch s {
	case SourceCustomCSV, SourceTradingView, SourceBroker:
		return true
	default:
		return false
	}
}
