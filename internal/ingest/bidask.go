package ingest

import (
	"strconv"
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantfeed/fxlens/internal/types"
	"github.com/quantfeed/fxlens/pkg/errors"
	"github.com/shopspring/decimal"
)

// bidAskTimeLayout is the timestamp format of the custom Bid/Ask CSV.
const bidAskTimeLayout = "2006-01-02 15:04:05"

// bidAskFields is the declared schema of the custom Bid/Ask CSV, in field order.
var bidAskFields = []string{
	"Date",
	"BidOpen", "BidHigh", "BidLow", "BidClose",
	"AskOpen", "AskHigh", "AskLow", "AskClose",
	"Volume",
}

// BidAskBarParser parses the custom Bid/Ask CSV format into quote bars.
//
// Format: Date,BidOpen,BidHigh,BidLow,BidClose,AskOpen,AskHigh,AskLow,AskClose,Volume
// with Date as "2006-01-02 15:04:05" in UTC.
type BidAskBarParser struct {
	// FieldCount is the expected number of fields per record.
	FieldCount int
}

// NewBidAskBarParser creates a parser expecting the declared 10-field schema.
func NewBidAskBarParser() *BidAskBarParser {
	return &BidAskBarParser{
		FieldCount: len(bidAskFields),
	}
}

// Parse converts one raw line into a QuoteBar. It is a pure function: all
// failures come back as typed errors and no partially populated bar escapes.
//
// A physically inconsistent row (e.g. bid.high < bid.low) is still returned;
// OHLC ordering is an analyzer concern, not a parse-time rejection, so noisy
// provider rows are never silently lost.
func (p *BidAskBarParser) Parse(line string) (types.QuoteBar, error) {
	fields := Tokenize(line)
	if len(fields) != p.FieldCount {
		return types.QuoteBar{}, errors.Newf(errors.ErrCodeFieldCountMismatch,
			"expected %d fields, got %d", p.FieldCount, len(fields))
	}

	timestamp, err := time.ParseInLocation(bidAskTimeLayout, fields[0], time.UTC)
	if err != nil {
		return types.QuoteBar{}, errors.Wrapf(errors.ErrCodeTimestampFormat, err,
			"field Date %q does not match %q", fields[0], bidAskTimeLayout)
	}

	prices := make([]decimal.Decimal, 8)

	for i := 0; i < 8; i++ {
		price, err := parsePrice(fields[i+1], bidAskFields[i+1])
		if err != nil {
			return types.QuoteBar{}, err
		}

		prices[i] = price
	}

	return types.QuoteBar{
		Time:   timestamp,
		Bid:    types.OHLC{Open: prices[0], High: prices[1], Low: prices[2], Close: prices[3]},
		Ask:    types.OHLC{Open: prices[4], High: prices[5], Low: prices[6], Close: prices[7]},
		Volume: parseOptionalVolume(fields[9]),
		Source: types.SourceCustomCSV,
	}, nil
}

// parsePrice parses one price field as a positive decimal. The returned error
// names the offending field so skipped lines are diagnosable from logs alone.
func parsePrice(field, name string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(field)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(errors.ErrCodePriceParse, err,
			"field %s %q is not a valid price", name, field)
	}

	if !price.IsPositive() {
		return decimal.Decimal{}, errors.Newf(errors.ErrCodePriceParse,
			"field %s %q must be positive", name, field)
	}

	return price, nil
}

// parseOptionalVolume parses a non-negative integer volume. Volume is auxiliary
// in the Bid/Ask feed: an absent or unparsable value yields None (consumers read
// it as zero) rather than failing the whole record.
func parseOptionalVolume(field string) optional.Option[int64] {
	volume, err := strconv.ParseInt(field, 10, 64)
	if err != nil || volume < 0 {
		return optional.None[int64]()
	}

	return optional.Some(volume)
}
