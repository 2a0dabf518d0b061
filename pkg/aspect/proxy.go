package aspect

import (
	"reflect"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// AopProxy routes calls by method name through the advisor chain resolved
// for that method. Generated wrappers implement the proxied interfaces on top
// of Invoke. A proxy is safe for concurrent use; every call gets its own
// invocation.
type AopProxy struct {
	config     *ProxyConfig
	targetType reflect.Type
	interfaces []reflect.Type
	dispatch   map[string]*dispatch
	logger     logrus.FieldLogger
}

type dispatch struct {
	method     Method
	targetType reflect.Type
	chain      []chainEntry
	// mixin is set for introduced methods, which never reach the target.
	mixin any
}

// expose adds m unless a method of that name is already exposed, so target
// interfaces win over introductions.
func (p *AopProxy) expose(b *chainBuilder, m Method, targetType reflect.Type, mixin any) {
	if _, ok := p.dispatch[m.Name()]; ok {
		return
	}
	p.dispatch[m.Name()] = &dispatch{
		method:     m,
		targetType: targetType,
		chain:      b.build(m, targetType),
		mixin:      mixin,
	}
}

// Invoke calls the named method with args through the interceptor chain.
// Results exclude a trailing error result, which is returned as err.
func (p *AopProxy) Invoke(name string, args ...any) ([]any, error) {
	d, ok := p.dispatch[name]
	if !ok {
		return nil, errors.Wrapf(ErrMethodNotExposed, "%s.%s", p.targetType, name)
	}
	target := d.mixin
	if target == nil {
		source := p.config.source
		t, err := source.GetTarget(contextOf(args))
		if err != nil {
			return nil, err
		}
		defer p.release(source, t)
		target = t
	}
	inv := &invocation{
		proxy:      p,
		method:     d.method,
		targetType: d.targetType,
		target:     target,
		args:       args,
		chain:      d.chain,
	}
	results, err := inv.Proceed()
	return padResults(d.method, results), err
}

func (p *AopProxy) release(source TargetSource, target any) {
	if err := source.ReleaseTarget(target); err != nil {
		p.logger.WithError(err).WithField("target", p.targetType.String()).Warn("release target")
	}
}

// Implements reports whether every method of iface is exposed by the proxy.
func (p *AopProxy) Implements(iface reflect.Type) bool {
	if iface == nil || iface.Kind() != reflect.Interface {
		return false
	}
	for _, v := range p.interfaces {
		if v == iface {
			return true
		}
	}
	for _, m := range MethodsOf(iface) {
		d, ok := p.dispatch[m.Name()]
		if !ok || d.method.Type() != m.Type() {
			return false
		}
	}
	return true
}

// Interfaces lists the target and introduced interfaces.
func (p *AopProxy) Interfaces() []reflect.Type {
	return append([]reflect.Type(nil), p.interfaces...)
}

// Methods lists the exposed method names, sorted.
func (p *AopProxy) Methods() []string {
	names := make([]string, 0, len(p.dispatch))
	for name := range p.dispatch {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Method returns the exposed method by name.
func (p *AopProxy) Method(name string) (Method, bool) {
	d, ok := p.dispatch[name]
	if !ok {
		return nil, false
	}
	return d.method, true
}

func (p *AopProxy) TargetType() reflect.Type   { return p.targetType }
func (p *AopProxy) TargetSource() TargetSource { return p.config.source }
func (p *AopProxy) Advisors() []Advisor        { return p.config.Advisors() }
