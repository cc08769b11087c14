package ingest

import (
	"strconv"
	"time"

	"github.com/quantfeed/fxlens/internal/types"
	"github.com/quantfeed/fxlens/pkg/errors"
)

// unixOhlcvFields is the declared schema of the Unix-timestamp OHLCV CSV.
var unixOhlcvFields = []string{"time", "open", "high", "low", "close", "Volume"}

// UnixOhlcvBarParser parses the Unix-timestamp OHLCV CSV format into trade bars.
//
// Format: time,open,high,low,close,Volume with time as integer Unix seconds.
// Unix time is inherently UTC, so conversion carries no timezone ambiguity.
type UnixOhlcvBarParser struct{}

// NewUnixOhlcvBarParser creates a parser for the 6-field OHLCV schema.
func NewUnixOhlcvBarParser() *UnixOhlcvBarParser {
	return &UnixOhlcvBarParser{}
}

// Parse converts one raw line into a TradeBar. Unlike the Bid/Ask format,
// volume is required here: the OHLCV feed always carries it, so a missing value
// means a corrupt row rather than an auxiliary gap.
func (p *UnixOhlcvBarParser) Parse(line string) (types.TradeBar, error) {
	fields := Tokenize(line)
	if len(fields) != len(unixOhlcvFields) {
		return types.TradeBar{}, errors.Newf(errors.ErrCodeFieldCountMismatch,
			"expected %d fields, got %d", len(unixOhlcvFields), len(fields))
	}

	seconds, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return types.TradeBar{}, errors.Wrapf(errors.ErrCodeTimestampParse, err,
			"field time %q is not a valid unix timestamp", fields[0])
	}

	if seconds < 0 {
		return types.TradeBar{}, errors.Newf(errors.ErrCodeTimestampParse,
			"field time %q must not be negative", fields[0])
	}

	bar := types.TradeBar{
		Time:   time.Unix(seconds, 0).UTC(),
		Source: types.SourceTradingView,
	}

	for i, name := range unixOhlcvFields[1:5] {
		price, err := parsePrice(fields[i+1], name)
		if err != nil {
			return types.TradeBar{}, err
		}

		switch name {
		case "open":
			bar.Open = price
		case "high":
			bar.High = price
		case "low":
			bar.Low = price
		case "close":
			bar.Close = price
		}
	}

	volume, err := strconv.ParseInt(fields[5], 10, 64)
	if err != nil {
		return types.TradeBar{}, errors.Wrapf(errors.ErrCodeVolumeParse, err,
			"field Volume %q is not a valid volume", fields[5])
	}

	if volume < 0 {
		return types.TradeBar{}, errors.Newf(errors.ErrCodeVolumeParse,
			"field Volume %q must not be negative", fields[5])
	}

	bar.Volume = volume

	return bar, nil
}
