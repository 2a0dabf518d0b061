package advice

import (
	"time"

	"github.com/go-park/weave/pkg/aspect"
	"github.com/rcrowley/go-metrics"
)

var _ aspect.MethodInterceptor = (*Metrics)(nil)

// Metrics times every advised call and counts failures, per method, as
// "<prefix><method>.calls" and "<prefix><method>.errors".
type Metrics struct {
	Registry metrics.Registry `mapstructure:"-"`
	Prefix   string           `mapstructure:"prefix"`
}

func (m *Metrics) registry() metrics.Registry {
	if m.Registry == nil {
		return metrics.DefaultRegistry
	}
	return m.Registry
}

func (m *Metrics) Invoke(pjp aspect.ProceedingJoinpoint) ([]any, error) {
	name := m.Prefix + pjp.FuncName()
	r := m.registry()
	start := time.Now()
	results, err := pjp.Proceed()
	metrics.GetOrRegisterTimer(name+".calls", r).UpdateSince(start)
	if err != nil {
		metrics.GetOrRegisterCounter(name+".errors", r).Inc(1)
	}
	return results, err
}
