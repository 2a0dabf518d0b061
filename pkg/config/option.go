package config

import (
	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

type (
	options struct {
		logger  logrus.FieldLogger
		metrics metrics.Registry
		tracer  trace.Tracer
	}
	Option     interface{ apply(*options) }
	optionFunc func(o *options)
)

func (f optionFunc) apply(o *options) {
	f(o)
}

func defaultOptions() options {
	return options{
		logger: logrus.StandardLogger(),
	}
}

// WithLogger sets the logger of built-in logging and retry advice.
func WithLogger(logger logrus.FieldLogger) Option {
	return optionFunc(
		func(o *options) {
			if logger != nil {
				o.logger = logger
			}
		})
}

// WithMetricsRegistry sets the registry of built-in metrics advice,
// metrics.DefaultRegistry otherwise.
func WithMetricsRegistry(r metrics.Registry) Option {
	return optionFunc(
		func(o *options) {
			o.metrics = r
		})
}

// WithTracer sets the tracer of built-in tracing advice, the global tracer
// provider's otherwise.
func WithTracer(t trace.Tracer) Option {
	return optionFunc(
		func(o *options) {
			o.tracer = t
		})
}
