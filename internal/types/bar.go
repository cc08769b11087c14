package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// BarType classifies the structural shape of a bar.
type BarType string

const (
	BarTypeQuote BarType = "quote"
	BarTypeTrade BarType = "trade"
	// BarTypeUnknown is returned for a nil bar or an unrecognized variant.
	BarTypeUnknown BarType = ""
)

// OHLC holds one open/high/low/close price series. Prices are decimals so that
// parsed values re-serialize exactly as they appeared in the source file.
type OHLC struct {
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

// Inverted reports whether the series violates the expected low <= open,close <= high
// ordering. Upstream providers occasionally emit such rows; parsers keep them and
// analyzers flag them.
func (o OHLC) Inverted() bool {
	if o.Low.GreaterThan(o.Open) || o.Low.GreaterThan(o.Close) {
		return true
	}

	if o.High.LessThan(o.Open) || o.High.LessThan(o.Close) {
		return true
	}

	return false
}

// Bar is the canonical normalized bar. It has exactly two implementations,
// QuoteBar and TradeBar; consumers dispatch on shape via Classify rather than on
// the originating parser.
type Bar interface {
	BarTime() time.Time
	BarSource() Source
	// ClosePrice returns the representative close for the interval: the trade close
	// for a TradeBar, the bid/ask midpoint close for a QuoteBar.
	ClosePrice() decimal.Decimal
}

// QuoteBar is one time interval's bid and ask OHLC summary. Volume is auxiliary
// in quote feeds and may be absent.
type QuoteBar struct {
	Time   time.Time
	Bid    OHLC
	Ask    OHLC
	Volume optional.Option[int64]
	Source Source
}

// BarTime implements Bar.
func (b QuoteBar) BarTime() time.Time {
	return b.Time
}

// BarSource implements Bar.
func (b QuoteBar) BarSource() Source {
	return b.Source
}

// ClosePrice implements Bar. The main close of a quote bar is the bid/ask midpoint.
func (b QuoteBar) ClosePrice() decimal.Decimal {
	return b.Bid.Close.Add(b.Ask.Close).Div(decimal.NewFromInt(2))
}

// SpreadClose returns ask.close - bid.close in price units.
func (b QuoteBar) SpreadClose() decimal.Decimal {
	return b.Ask.Close.Sub(b.Bid.Close)
}

// TradeBar is one time interval's single-sided OHLCV summary.
type TradeBar struct {
	Time   time.Time
	OHLC
	Volume int64
	Source Source
}

// BarTime implements Bar.
func (b TradeBar) BarTime() time.Time {
	return b.Time
}

// BarSource implements Bar.
func (b TradeBar) BarSource() Source {
	return b.Source
}

// ClosePrice implements Bar.
func (b TradeBar) ClosePrice() decimal.Decimal {
	return b.Close
}

// Classify reports the structural shape of a bar. It is a pure function of the
// bar's variant: a bid/ask pair means quote, a single OHLC series means trade.
func Classify(bar Bar) BarType {
	switch bar.(type) {
	case QuoteBar, *QuoteBar:
		return BarTypeQuote
	case TradeBar, *TradeBar:
		return BarTypeTrade
	default:
		return BarTypeUnknown
	}
}
