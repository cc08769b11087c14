package analyzer

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantfeed/fxlens/internal/types"
	"github.com/quantfeed/fxlens/pkg/errors"
	"github.com/shopspring/decimal"
)

// minComparableSources is the smallest number of sources a comparison needs.
const minComparableSources = 2

// PairDivergence is one pairwise comparison between two sources at a timestamp.
// A is always the higher-priority source of the pair.
type PairDivergence struct {
	A          types.Source
	B          types.Source
	Price      decimal.Decimal
	SpreadPips optional.Option[decimal.Decimal]
}

// ComparisonSnapshot is the ephemeral result for one aligned timestamp. It is
// consumed immediately by the chart collaborator and never persisted.
type ComparisonSnapshot struct {
	Time time.Time
	// Prices holds each present source's close price.
	Prices map[types.Source]decimal.Decimal
	// SpreadPips holds close spreads for the quote-shaped sources only.
	SpreadPips map[types.Source]decimal.Decimal
	// Pairs lists pairwise divergences in priority order.
	Pairs []PairDivergence
	// MaxDivergence is the largest pairwise absolute price difference.
	MaxDivergence decimal.Decimal
}

// SourceComparator reports divergence in price and spread across sources that
// produced a bar for the same minute.
type SourceComparator struct {
	pipScale decimal.Decimal
	// priority is read-only after construction; it fixes the iteration order so
	// primary-vs-secondary comparisons are reproducible across runs.
	priority []types.Source
}

// NewSourceComparator creates a comparator using the declared source priority.
func NewSourceComparator(pipScale int64) *SourceComparator {
	return &SourceComparator{
		pipScale: decimal.NewFromInt(pipScale),
		priority: types.SourcePriority,
	}
}

// Compare computes pairwise divergences across the bars present at one
// timestamp. Fewer than two sources yields an InsufficientSourcesError: a no-op
// signal rather than a failure, since feeds have gaps. Timestamps are matched
// exactly by the caller; there is no interpolation here.
func (c *SourceComparator) Compare(bars map[types.Source]types.Bar) (ComparisonSnapshot, error) {
	present := make([]types.Source, 0, len(bars))

	for _, source := range c.priority {
		if _, ok := bars[source]; ok {
			present = append(present, source)
		}
	}

	if len(present) < minComparableSources {
		return ComparisonSnapshot{}, errors.NewInsufficientSourcesError(
			minComparableSources, len(present), "not enough sources at timestamp for comparison")
	}

	snapshot := ComparisonSnapshot{
		Time:       bars[present[0]].BarTime(),
		Prices:     make(map[types.Source]decimal.Decimal, len(present)),
		SpreadPips: make(map[types.Source]decimal.Decimal),
	}

	for _, source := range present {
		bar := bars[source]
		snapshot.Prices[source] = bar.ClosePrice()

		if quote, ok := bar.(types.QuoteBar); ok {
			snapshot.SpreadPips[source] = quote.SpreadClose().Mul(c.pipScale)
		}
	}

	for i := 0; i < len(present); i++ {
		for j := i + 1; j < len(present); j++ {
			a, b := present[i], present[j]
			pair := PairDivergence{
				A:          a,
				B:          b,
				Price:      snapshot.Prices[a].Sub(snapshot.Prices[b]).Abs(),
				SpreadPips: optional.None[decimal.Decimal](),
			}

			spreadA, okA := snapshot.SpreadPips[a]
			spreadB, okB := snapshot.SpreadPips[b]

			if okA && okB {
				pair.SpreadPips = optional.Some(spreadA.Sub(spreadB).Abs())
			}

			if pair.Price.GreaterThan(snapshot.MaxDivergence) {
				snapshot.MaxDivergence = pair.Price
			}

			snapshot.Pairs = append(snapshot.Pairs, pair)
		}
	}

	return snapshot, nil
}
