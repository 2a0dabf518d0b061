package advice

import (
	"time"

	"github.com/go-park/weave/pkg/aspect"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var _ aspect.MethodInterceptor = (*Logging)(nil)

// Logging logs entry, return and failure of every advised call under one
// invocation id.
type Logging struct {
	Logger logrus.FieldLogger `mapstructure:"-"`
	// Level of entry and return messages, info when empty. Failures are
	// logged at error level.
	Level      string `mapstructure:"level"`
	LogArgs    bool   `mapstructure:"logArgs"`
	LogResults bool   `mapstructure:"logResults"`
}

func (l *Logging) level() logrus.Level {
	if lvl, err := logrus.ParseLevel(l.Level); err == nil {
		return lvl
	}
	return logrus.InfoLevel
}

func (l *Logging) Invoke(pjp aspect.ProceedingJoinpoint) ([]any, error) {
	logger := l.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithFields(logrus.Fields{
		"invocation": uuid.NewString(),
		"method":     pjp.FuncName(),
	})
	lvl := l.level()
	enter := entry
	if l.LogArgs {
		enter = enter.WithField("args", pjp.Params())
	}
	enter.Log(lvl, "invoke")

	start := time.Now()
	results, err := pjp.Proceed()
	entry = entry.WithField("elapsed", time.Since(start))
	if err != nil {
		entry.WithError(err).Error("invoke failed")
		return results, err
	}
	if l.LogResults {
		entry = entry.WithField("results", results)
	}
	entry.Log(lvl, "returned")
	return results, nil
}
