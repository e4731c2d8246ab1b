package narrow

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/akmonengine/narrow/epa"
	"github.com/akmonengine/narrow/gjk"
)

// Config gathers the tolerances and budgets of every query, and the logger
// the entry points of this package report through.
type Config struct {
	GJK gjk.Config `json:"gjk"`
	EPA epa.Config `json:"epa"`

	// Logger receives low-confidence results at Debug level and numeric
	// degeneracies at Warn level. A nil logger discards everything.
	Logger *zap.SugaredLogger `json:"-"`
}

// DefaultConfig is tuned for shapes of about one unit in size. Callers working
// at very small or very large scales should scale the absolute tolerances.
func DefaultConfig() Config {
	return Config{
		GJK:    gjk.DefaultConfig(),
		EPA:    epa.DefaultConfig(),
		Logger: zap.NewNop().Sugar(),
	}
}

// Validate checks every tolerance and budget.
func (c Config) Validate() error {
	if err := c.GJK.Validate(); err != nil {
		return err
	}
	return c.EPA.Validate()
}

// DecodeConfig decodes an attribute map, such as a decoded JSON object, on
// top of the default configuration. Keys follow the json tags of Config:
//
//	{"gjk": {"max_iterations": 128}, "epa": {"tolerance": 1e-8}}
//
// Unknown keys are rejected.
func DecodeConfig(attributes map[string]any) (Config, error) {
	conf := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		ErrorUnused: true,
		Result:      &conf,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

func (c Config) logger() *zap.SugaredLogger {
	if c.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return c.Logger
}

// report logs the outcome of a query.
func (c Config) report(query string, est gjk.Estimate, iterations int, err error) {
	switch {
	case err != nil && errors.Is(err, gjk.ErrNumericDegeneracy):
		c.logger().Warnw("numeric degeneracy", "query", query, "error", err)
	case err == nil && est.LowConfidence:
		c.logger().Debugw("low-confidence result", "query", query, "reason", est.Reason.String(), "iterations", iterations)
	}
}
