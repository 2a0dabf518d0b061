package pool

import (
	"time"

	"github.com/sirupsen/logrus"
)

type (
	options struct {
		size    int
		logger  logrus.FieldLogger
		timeout time.Duration
	}
	Option     interface{ apply(*options) }
	optionFunc func(o *options)
)

func (f optionFunc) apply(o *options) {
	f(o)
}

func defaultOptions() options {
	return options{
		size:   8,
		logger: logrus.StandardLogger(),
	}
}

// WithSize sets the maximum number of objects alive at once.
func WithSize(size int) Option {
	return optionFunc(
		func(o *options) {
			o.size = size
		})
}

func WithLogger(logger logrus.FieldLogger) Option {
	return optionFunc(
		func(o *options) {
			if logger != nil {
				o.logger = logger
			}
		})
}

// WithBorrowTimeout bounds how long the target source waits for a free
// object. Zero waits as long as the call context allows.
func WithBorrowTimeout(timeout time.Duration) Option {
	return optionFunc(
		func(o *options) {
			o.timeout = timeout
		})
}
