package advice

import (
	"github.com/go-park/weave/pkg/aspect"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

var ErrThrottled = errors.New("advice: call throttled")

var _ aspect.MethodInterceptor = (*Throttle)(nil)

// Throttle rate limits advised calls. Blocking throttles wait for a token
// using the call context, others fail fast with ErrThrottled.
type Throttle struct {
	Limiter  *rate.Limiter
	Blocking bool
}

// NewThrottle allows perSecond calls with bursts of burst calls.
func NewThrottle(perSecond float64, burst int, blocking bool) *Throttle {
	return &Throttle{
		Limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		Blocking: blocking,
	}
}

func (t *Throttle) Invoke(pjp aspect.ProceedingJoinpoint) ([]any, error) {
	if t.Blocking {
		if err := t.Limiter.Wait(pjp.Context()); err != nil {
			return nil, errors.Wrapf(ErrThrottled, "%s: %v", pjp.FuncName(), err)
		}
	} else if !t.Limiter.Allow() {
		return nil, errors.Wrap(ErrThrottled, pjp.FuncName())
	}
	return pjp.Proceed()
}
