package advice

import (
	"github.com/go-park/weave/pkg/aspect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/go-park/weave/pkg/advice"

var _ aspect.MethodInterceptor = (*Tracing)(nil)

// Tracing wraps every advised call in a span named after the method. Methods
// taking a context.Context receive the span context in its place.
type Tracing struct {
	Tracer trace.Tracer `mapstructure:"-"`
}

func (t *Tracing) tracer() trace.Tracer {
	if t.Tracer == nil {
		return otel.Tracer(tracerName)
	}
	return t.Tracer
}

func (t *Tracing) Invoke(pjp aspect.ProceedingJoinpoint) (results []any, err error) {
	m := pjp.Method()
	attrs := []attribute.KeyValue{attribute.String("code.function", m.Name())}
	if dt := m.DeclaringType(); dt != nil {
		attrs = append(attrs, attribute.String("code.namespace", dt.String()))
	}
	ctx, span := t.tracer().Start(pjp.Context(), pjp.FuncName(), trace.WithAttributes(attrs...))
	defer span.End()

	if args, ok := aspect.ReplaceContext(m, pjp.Params(), ctx); ok {
		results, err = pjp.Proceed(args...)
	} else {
		results, err = pjp.Proceed()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return results, err
}
