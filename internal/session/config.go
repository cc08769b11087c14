package session

import (
	"github.com/go-playground/validator/v10"
	"github.com/quantfeed/fxlens/internal/analyzer"
	"github.com/quantfeed/fxlens/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of one analysis session.
type Config struct {
	// PipScale converts price differences into pips (10,000 for EUR/USD).
	PipScale int64 `yaml:"pip_scale" validate:"required,gt=0"`
	// SummaryInterval is the number of accepted bars between periodic summaries.
	SummaryInterval int64 `yaml:"summary_interval" validate:"required,gt=0"`
	// CustomCSVPath points at the custom Bid/Ask CSV file. Empty disables the feed.
	CustomCSVPath string `yaml:"custom_csv_path"`
	// TradingViewCSVPath points at the Unix-timestamp OHLCV CSV file. Empty
	// disables the feed.
	TradingViewCSVPath string `yaml:"tradingview_csv_path"`
	// ChartOutput is the HTML file the chart collaborator renders to. Empty
	// disables rendering.
	ChartOutput string `yaml:"chart_output"`
}

// DefaultConfig returns the EUR/USD session defaults.
func DefaultConfig() Config {
	return Config{
		PipScale:           analyzer.DefaultPipScale,
		SummaryInterval:    analyzer.DefaultSummaryInterval,
		CustomCSVPath:      "",
		TradingViewCSVPath: "",
		ChartOutput:        "",
	}
}

// ParseConfig unmarshals and validates a yaml session config.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse session config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate checks the config's structural constraints.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid session config", err)
	}

	return nil
}
