// Package advice is a library of ready-made advice for aspect proxies.
package advice

import (
	"time"

	"github.com/cenkalti/backoff"
	"github.com/go-park/weave/pkg/aspect"
	"github.com/sirupsen/logrus"
)

var _ aspect.MethodInterceptor = (*Retry)(nil)

// Retry re-runs the rest of the chain while it fails. MaxAttempts counts the
// first call, so 3 means at most 2 retries.
type Retry struct {
	MaxAttempts int           `mapstructure:"maxAttempts"`
	Delay       time.Duration `mapstructure:"delay"`
	// Multiplier grows the delay exponentially when above 1.
	Multiplier float64       `mapstructure:"multiplier"`
	MaxDelay   time.Duration `mapstructure:"maxDelay"`
	// RetryOn selects retryable errors, all errors when nil.
	RetryOn func(error) bool   `mapstructure:"-"`
	Logger  logrus.FieldLogger `mapstructure:"-"`
}

func (r *Retry) backOff() backoff.BackOff {
	var b backoff.BackOff = backoff.NewConstantBackOff(r.Delay)
	if r.Multiplier > 1 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = r.Delay
		eb.Multiplier = r.Multiplier
		eb.RandomizationFactor = 0
		eb.MaxElapsedTime = 0
		if r.MaxDelay > 0 {
			eb.MaxInterval = r.MaxDelay
		}
		b = eb
	}
	retries := r.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(b, uint64(retries))
}

func (r *Retry) Invoke(pjp aspect.ProceedingJoinpoint) (results []any, err error) {
	logger := r.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	attempt := 0
	backoff.RetryNotify(func() error {
		attempt++
		results, err = pjp.Proceed()
		if err != nil && r.RetryOn != nil && !r.RetryOn(err) {
			return nil
		}
		return err
	}, backoff.WithContext(r.backOff(), pjp.Context()), func(err error, next time.Duration) {
		logger.WithFields(logrus.Fields{
			"method":  pjp.FuncName(),
			"attempt": attempt,
			"next":    next,
		}).WithError(err).Debug("retrying")
	})
	return results, err
}
