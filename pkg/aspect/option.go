package aspect

import (
	"reflect"

	"github.com/sirupsen/logrus"
)

type (
	Option[T any] func(*T)

	MethodOption       = Option[method]
	AdvisorOption      = Option[advisor]
	IntroductionOption = Option[introduction]
	FactoryOption      = Option[factoryOptions]
)

func WithMethodName(name string) Option[method] {
	return func(o *method) {
		o.name = name
	}
}

func WithMethodDeclaringType(t reflect.Type) Option[method] {
	return func(o *method) {
		o.declaringType = t
	}
}

// WithMethodType sets the func type without receiver.
func WithMethodType(t reflect.Type) Option[method] {
	return func(o *method) {
		o.typ = t
	}
}

func WithAdvisorName(name string) Option[advisor] {
	return func(o *advisor) {
		o.name = name
	}
}

func WithPointcut(pc Pointcut) Option[advisor] {
	return func(o *advisor) {
		o.pointcut = pc
	}
}

func WithOrder(order int) Option[advisor] {
	return func(o *advisor) {
		o.order = order
		o.orderSet = true
	}
}

func WithPerInstance(perInstance bool) Option[advisor] {
	return func(o *advisor) {
		o.perInstance = perInstance
	}
}

func WithIntroductionName(name string) Option[introduction] {
	return func(o *introduction) {
		o.name = name
	}
}

// WithMixin sets a mixin shared by every proxy.
func WithMixin(mixin any) Option[introduction] {
	return func(o *introduction) {
		o.mixin = mixin
	}
}

// WithMixinFactory makes the introduction per-instance: each proxy gets its
// own mixin.
func WithMixinFactory(factory func() (any, error)) Option[introduction] {
	return func(o *introduction) {
		o.factory = factory
	}
}

func WithInterfaces(interfaces ...reflect.Type) Option[introduction] {
	return func(o *introduction) {
		o.interfaces = append(o.interfaces, interfaces...)
	}
}

func WithIntroductionFilter(tf TypeFilter) Option[introduction] {
	return func(o *introduction) {
		o.typeFilter = tf
	}
}

func WithIntroductionOrder(order int) Option[introduction] {
	return func(o *introduction) {
		o.order = order
	}
}

type factoryOptions struct {
	logger   logrus.FieldLogger
	registry *AdapterRegistry
}

func defaultFactoryOptions() factoryOptions {
	return factoryOptions{
		logger:   logrus.StandardLogger(),
		registry: NewAdapterRegistry(),
	}
}

func WithLogger(logger logrus.FieldLogger) Option[factoryOptions] {
	return func(o *factoryOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithAdapterRegistry(registry *AdapterRegistry) Option[factoryOptions] {
	return func(o *factoryOptions) {
		if registry != nil {
			o.registry = registry
		}
	}
}
