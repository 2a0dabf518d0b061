package config

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-park/weave/pkg/advice"
	"github.com/go-park/weave/pkg/aspect"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

var (
	ErrUnknownAdvice    = errors.New("config: unknown advice")
	ErrUnknownInterface = errors.New("config: unknown interface")
)

// Builder creates advice from the properties of an advisor definition.
type Builder func(props map[string]any) (aspect.Advice, error)

// Registry resolves advice and interface names used by definitions.
type Registry struct {
	options
	mu         sync.RWMutex
	builders   map[string]Builder
	interfaces map[string]reflect.Type
}

// NewRegistry returns a registry holding the built-in advice: logging,
// retry, metrics, tracing, throttle, cache, exception and validation.
func NewRegistry(opts ...Option) *Registry {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	r := &Registry{
		options:    o,
		builders:   map[string]Builder{},
		interfaces: map[string]reflect.Type{},
	}
	r.registerDefaults()
	return r
}

func (r *Registry) RegisterAdvice(name string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[name] = b
}

// RegisterInterface makes iface available to definitions as name.
func (r *Registry) RegisterInterface(name string, iface reflect.Type) error {
	if iface == nil || iface.Kind() != reflect.Interface {
		return errors.Wrapf(aspect.ErrNotInterface, "%s: %v", name, iface)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interfaces[name] = iface
	return nil
}

func (r *Registry) Advice(name string, props map[string]any) (aspect.Advice, error) {
	r.mu.RLock()
	b, ok := r.builders[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrap(ErrUnknownAdvice, name)
	}
	a, err := b(props)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s advice", name)
	}
	return a, nil
}

func (r *Registry) Interface(name string) (reflect.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	iface, ok := r.interfaces[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownInterface, name)
	}
	return iface, nil
}

// AdviceNames lists the registered advice, sorted.
func (r *Registry) AdviceNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Decode copies props into out, a pointer to a struct with mapstructure
// tags. Durations may be given as strings like "250ms"; unknown keys fail.
func Decode(props map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.Wrap(dec.Decode(props), "decode properties")
}

func (r *Registry) registerDefaults() {
	r.RegisterAdvice("logging", func(props map[string]any) (aspect.Advice, error) {
		a := &advice.Logging{Logger: r.logger}
		return a, Decode(props, a)
	})
	r.RegisterAdvice("retry", func(props map[string]any) (aspect.Advice, error) {
		a := &advice.Retry{MaxAttempts: 3, Logger: r.logger}
		if err := Decode(props, a); err != nil {
			return nil, err
		}
		if a.MaxAttempts < 1 {
			return nil, errors.Errorf("maxAttempts %d", a.MaxAttempts)
		}
		return a, nil
	})
	r.RegisterAdvice("metrics", func(props map[string]any) (aspect.Advice, error) {
		a := &advice.Metrics{Registry: r.metrics}
		return a, Decode(props, a)
	})
	r.RegisterAdvice("tracing", func(props map[string]any) (aspect.Advice, error) {
		return &advice.Tracing{Tracer: r.tracer}, Decode(props, &struct{}{})
	})
	r.RegisterAdvice("throttle", func(props map[string]any) (aspect.Advice, error) {
		var p struct {
			Rate     float64 `mapstructure:"rate"`
			Burst    int     `mapstructure:"burst"`
			Blocking bool    `mapstructure:"blocking"`
		}
		p.Burst = 1
		if err := Decode(props, &p); err != nil {
			return nil, err
		}
		if p.Rate <= 0 || p.Burst <= 0 {
			return nil, errors.Errorf("rate %v burst %d", p.Rate, p.Burst)
		}
		return advice.NewThrottle(p.Rate, p.Burst, p.Blocking), nil
	})
	r.RegisterAdvice("cache", func(props map[string]any) (aspect.Advice, error) {
		p := struct {
			Size int    `mapstructure:"size"`
			Key  string `mapstructure:"key"`
		}{Size: 128}
		if err := Decode(props, &p); err != nil {
			return nil, err
		}
		return advice.NewCacheResult(p.Size, p.Key)
	})
	r.RegisterAdvice("validation", func(props map[string]any) (aspect.Advice, error) {
		var p struct {
			Rules []advice.ValidationRule `mapstructure:"rules"`
		}
		if err := Decode(props, &p); err != nil {
			return nil, err
		}
		return advice.NewValidation(p.Rules...)
	})
	r.RegisterAdvice("exception", buildExceptionHandler)
}

type exceptionRuleDef struct {
	Match   string `mapstructure:"match"`
	Action  string `mapstructure:"action"`
	Message string `mapstructure:"message"`
	Values  []any  `mapstructure:"values"`
}

func buildExceptionHandler(props map[string]any) (aspect.Advice, error) {
	var p struct {
		Rules []exceptionRuleDef `mapstructure:"rules"`
	}
	if err := Decode(props, &p); err != nil {
		return nil, err
	}
	h := &advice.ExceptionHandler{}
	for i, def := range p.Rules {
		rule := advice.ExceptionRule{Values: def.Values}
		if def.Match != "" {
			match, err := advice.OnErrorExpr(def.Match)
			if err != nil {
				return nil, errors.Wrapf(err, "rule %d", i)
			}
			rule.Match = match
		}
		switch strings.ToLower(def.Action) {
		case "", "swallow":
			rule.Action = advice.Swallow
		case "return":
			rule.Action = advice.Return
		case "translate":
			if def.Message == "" {
				return nil, errors.Errorf("rule %d: translate needs a message", i)
			}
			rule.Action = advice.Translate
			rule.Translate = advice.TranslateTo(errors.New(def.Message))
		default:
			return nil, errors.Errorf("rule %d: unknown action %q", i, def.Action)
		}
		h.Rules = append(h.Rules, rule)
	}
	return h, nil
}
