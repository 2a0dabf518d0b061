package aspect

import (
	"reflect"

	"github.com/go-park/weave/pkg/tools/collections"
	"github.com/pkg/errors"
)

// ProxyConfig is the advised state behind a proxy: target, advisors,
// introductions and exposed interfaces. It is not safe for concurrent
// mutation; configure it completely before calling GetProxy. Proxies work on
// a snapshot, later changes only affect proxies created afterwards.
type ProxyConfig struct {
	source          TargetSource
	interfaces      []reflect.Type
	proxyTargetType bool
	advisors        []Advisor
	introductions   []IntroductionAdvisor
	frozen          bool
}

func (c *ProxyConfig) checkFrozen() error {
	if c.frozen {
		return ErrFrozen
	}
	return nil
}

// SetTarget proxies a single shared target.
func (c *ProxyConfig) SetTarget(target any) error {
	if target == nil {
		return ErrNoTarget
	}
	return c.SetTargetSource(NewSingletonTargetSource(target))
}

func (c *ProxyConfig) SetTargetSource(source TargetSource) error {
	if err := c.checkFrozen(); err != nil {
		return err
	}
	if source == nil {
		return ErrNoTarget
	}
	c.source = source
	return nil
}

// AddInterface exposes the methods of the given interfaces on the proxy.
func (c *ProxyConfig) AddInterface(interfaces ...reflect.Type) error {
	if err := c.checkFrozen(); err != nil {
		return err
	}
	for _, t := range interfaces {
		if t == nil || t.Kind() != reflect.Interface {
			return errors.Wrapf(ErrNotInterface, "%v", t)
		}
		if !collections.Contains(c.interfaces, t) {
			c.interfaces = append(c.interfaces, t)
		}
	}
	return nil
}

// SetProxyTargetType exposes the whole method set of the target type, not
// only the interface methods.
func (c *ProxyConfig) SetProxyTargetType(v bool) error {
	if err := c.checkFrozen(); err != nil {
		return err
	}
	c.proxyTargetType = v
	return nil
}

// AddAdvisor registers an advisor. Introduction advisors are routed to
// AddIntroduction.
func (c *ProxyConfig) AddAdvisor(a Advisor) error {
	if err := c.checkFrozen(); err != nil {
		return err
	}
	if a == nil {
		return errors.Wrap(ErrUnknownAdvice, "nil advisor")
	}
	if ia, ok := a.(IntroductionAdvisor); ok {
		return c.AddIntroduction(ia)
	}
	c.advisors = append(c.advisors, a)
	return nil
}

// AddAdvice registers advice matching every method.
func (c *ProxyConfig) AddAdvice(advice Advice) error {
	if advice == nil {
		return errors.Wrap(ErrUnknownAdvice, "nil advice")
	}
	return c.AddAdvisor(NewAdvisor(advice))
}

func (c *ProxyConfig) AddIntroduction(ia IntroductionAdvisor) error {
	if err := c.checkFrozen(); err != nil {
		return err
	}
	if ia == nil {
		return errors.Wrap(ErrInvalidIntroduction, "nil introduction")
	}
	if err := ia.ValidateInterfaces(); err != nil {
		return err
	}
	c.introductions = append(c.introductions, ia)
	return nil
}

// RemoveAdvisor removes the first registration of a and reports whether it
// was present.
func (c *ProxyConfig) RemoveAdvisor(a Advisor) (bool, error) {
	if err := c.checkFrozen(); err != nil {
		return false, err
	}
	for i, v := range c.advisors {
		if v == a {
			c.advisors = append(c.advisors[:i:i], c.advisors[i+1:]...)
			return true, nil
		}
	}
	for i, v := range c.introductions {
		if Advisor(v) == a {
			c.introductions = append(c.introductions[:i:i], c.introductions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Advisors returns the advisors in application order.
func (c *ProxyConfig) Advisors() []Advisor { return SortAdvisors(c.advisors) }

func (c *ProxyConfig) Introductions() []IntroductionAdvisor { return SortAdvisors(c.introductions) }

func (c *ProxyConfig) Interfaces() []reflect.Type {
	return append([]reflect.Type(nil), c.interfaces...)
}

func (c *ProxyConfig) ProxyTargetType() bool      { return c.proxyTargetType }
func (c *ProxyConfig) TargetSource() TargetSource { return c.source }

// Freeze rejects further changes with ErrFrozen.
func (c *ProxyConfig) Freeze()        { c.frozen = true }
func (c *ProxyConfig) IsFrozen() bool { return c.frozen }

func (c *ProxyConfig) snapshot() *ProxyConfig {
	return &ProxyConfig{
		source:          c.source,
		interfaces:      c.Interfaces(),
		proxyTargetType: c.proxyTargetType,
		advisors:        append([]Advisor(nil), c.advisors...),
		introductions:   append([]IntroductionAdvisor(nil), c.introductions...),
		frozen:          true,
	}
}
