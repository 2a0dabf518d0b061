package aspect

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ProxyFactory builds AopProxy instances from its ProxyConfig.
type ProxyFactory struct {
	ProxyConfig
	options factoryOptions
}

func NewProxyFactory(opts ...Option[factoryOptions]) *ProxyFactory {
	f := &ProxyFactory{options: defaultFactoryOptions()}
	for _, opt := range opts {
		opt(&f.options)
	}
	return f
}

// NewProxyFactoryFor is a shortcut for a singleton target exposing the given
// interfaces.
func NewProxyFactoryFor(target any, interfaces ...reflect.Type) (*ProxyFactory, error) {
	f := NewProxyFactory()
	if err := f.SetTarget(target); err != nil {
		return nil, err
	}
	if err := f.AddInterface(interfaces...); err != nil {
		return nil, err
	}
	return f, nil
}

// GetProxy validates the configuration and creates a proxy over a snapshot
// of it. Misconfiguration is reported here, not at call time.
func (f *ProxyFactory) GetProxy() (*AopProxy, error) {
	cfg := f.snapshot()
	if cfg.source == nil || cfg.source.TargetType() == nil {
		return nil, errors.Wrap(ErrNoTarget, "get proxy")
	}
	p := &AopProxy{
		config:     cfg,
		targetType: cfg.source.TargetType(),
		dispatch:   map[string]*dispatch{},
		logger:     f.options.logger,
	}
	advisors := SortAdvisors(cfg.advisors)
	resolved := make([][]MethodInterceptor, len(advisors))
	for i, a := range advisors {
		list, err := f.options.registry.Interceptors(a)
		if err != nil {
			return nil, err
		}
		resolved[i] = list
	}
	b := &chainBuilder{advisors: advisors, interceptors: resolved}

	for _, iface := range cfg.interfaces {
		if !p.targetType.Implements(iface) {
			return nil, errors.Wrapf(ErrNotImplemented, "%s does not implement %s", p.targetType, iface)
		}
		p.interfaces = append(p.interfaces, iface)
		for _, m := range MethodsOf(iface) {
			p.expose(b, m, p.targetType, nil)
		}
	}
	if cfg.proxyTargetType || len(cfg.interfaces) == 0 {
		if !cfg.proxyTargetType {
			p.logger.WithField("target", p.targetType.String()).Debug("no interfaces configured, proxying the target type")
		}
		for _, m := range MethodsOf(p.targetType) {
			p.expose(b, m, p.targetType, nil)
		}
	}
	for _, intro := range SortAdvisors(cfg.introductions) {
		if !intro.TypeFilter().MatchesType(p.targetType) {
			continue
		}
		mixin, err := intro.Mixin()
		if err != nil {
			return nil, err
		}
		mixinType := reflect.TypeOf(mixin)
		for _, iface := range intro.Interfaces() {
			served := true
			for _, m := range MethodsOf(iface) {
				if d, ok := p.dispatch[m.Name()]; ok {
					if d.method.Type() != m.Type() {
						return nil, errors.Wrapf(ErrInvalidIntroduction, "%s: %s.%s clashes with %s",
							intro.Name(), iface, m.Name(), d.method.FullName())
					}
					served = false
					continue
				}
				p.expose(b, m, mixinType, mixin)
			}
			if served {
				p.interfaces = append(p.interfaces, iface)
			}
		}
	}
	p.logger.WithFields(logrus.Fields{
		"target":        p.targetType.String(),
		"methods":       len(p.dispatch),
		"advisors":      len(advisors),
		"introductions": len(cfg.introductions),
	}).Debug("proxy created")
	return p, nil
}

type chainBuilder struct {
	advisors     []Advisor
	interceptors [][]MethodInterceptor
}

// build resolves the static chain of a method: type filter first, then the
// method matcher. Runtime matchers stay on the entry for per-call checks.
func (b *chainBuilder) build(m Method, targetType reflect.Type) []chainEntry {
	var chain []chainEntry
	for i, a := range b.advisors {
		pc := TruePointcut
		if pa, ok := a.(PointcutAdvisor); ok && pa.Pointcut() != nil {
			pc = pa.Pointcut()
		}
		if !pc.TypeFilter().MatchesType(targetType) {
			continue
		}
		mm := pc.MethodMatcher()
		if !mm.Matches(m, targetType) {
			continue
		}
		var runtime MethodMatcher
		if mm.IsRuntime() {
			runtime = mm
		}
		for _, mi := range b.interceptors[i] {
			chain = append(chain, chainEntry{interceptor: mi, matcher: runtime})
		}
	}
	return chain
}
