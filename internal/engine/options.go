package engine

import (
	"log/slog"

	"github.com/roach88/sidebearing/internal/metrics"
)

// Option configures an Evaluator or Arbiter.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

func newConfig(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}
