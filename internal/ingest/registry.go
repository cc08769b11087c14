package ingest

import (
	"github.com/quantfeed/fxlens/internal/types"
	"github.com/quantfeed/fxlens/pkg/errors"
)

// ParseFunc converts one raw line into a normalized bar.
type ParseFunc func(line string) (types.Bar, error)

// Registry maps a source identifier to the parser implementing its format.
// New formats register a new entry; there is no parser hierarchy to extend.
type Registry struct {
	parsers map[types.Source]ParseFunc
}

// NewRegistry creates a registry with the two line-oriented formats registered.
// The broker feed delivers structured quote bars and never routes through a parser.
func NewRegistry() *Registry {
	bidAsk := NewBidAskBarParser()
	ohlcv := NewUnixOhlcvBarParser()

	r := &Registry{
		parsers: make(map[types.Source]ParseFunc),
	}

	r.Register(types.SourceCustomCSV, func(line string) (types.Bar, error) {
		bar, err := bidAsk.Parse(line)
		if err != nil {
			return nil, err
		}

		return bar, nil
	})
	r.Register(types.SourceTradingView, func(line string) (types.Bar, error) {
		bar, err := ohlcv.Parse(line)
		if err != nil {
			return nil, err
		}

		return bar, nil
	})

	return r
}

// Register binds a parser to a source identifier, replacing any previous entry.
func (r *Registry) Register(source types.Source, parse ParseFunc) {
	r.parsers[source] = parse
}

// Ingest is the sole entry point orchestration calls per raw line. It returns
// either a fully populated bar or a typed error; it never panics on malformed
// input, and the caller decides whether to skip-and-log or abort.
func (r *Registry) Ingest(line string, source types.Source) (types.Bar, error) {
	parse, ok := r.parsers[source]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownSource,
			"no parser registered for source %q", source)
	}

	return parse(line)
}
