package aspect

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/pkg/errors"
)

const (
	HighestPrecedence = math.MinInt32
	LowestPrecedence  = math.MaxInt32
)

type (
	// implement PointcutAdvisor
	advisor struct {
		name        string
		advice      Advice
		pointcut    Pointcut
		order       int
		orderSet    bool
		perInstance bool
	}
	// implement IntroductionAdvisor
	introduction struct {
		name       string
		mixin      any
		factory    func() (any, error)
		interfaces []reflect.Type
		typeFilter TypeFilter
		order      int
	}
)

// NewAdvisor binds advice to a pointcut, TruePointcut unless WithPointcut is
// given. Without WithOrder the advice's own Order is used when it is Ordered,
// LowestPrecedence otherwise.
func NewAdvisor(advice Advice, opts ...Option[advisor]) PointcutAdvisor {
	a := &advisor{advice: advice, pointcut: TruePointcut}
	for _, opt := range opts {
		opt(a)
	}
	if a.pointcut == nil {
		a.pointcut = TruePointcut
	}
	if a.name == "" {
		a.name = fmt.Sprintf("%T", advice)
	}
	return a
}

func (a *advisor) Name() string        { return a.name }
func (a *advisor) Advice() Advice      { return a.advice }
func (a *advisor) Pointcut() Pointcut  { return a.pointcut }
func (a *advisor) IsPerInstance() bool { return a.perInstance }

func (a *advisor) Order() int {
	if a.orderSet {
		return a.order
	}
	if o, ok := a.advice.(Ordered); ok {
		return o.Order()
	}
	return LowestPrecedence
}

func NewIntroduction(opts ...Option[introduction]) IntroductionAdvisor {
	i := &introduction{typeFilter: TrueTypeFilter, order: LowestPrecedence}
	for _, opt := range opts {
		opt(i)
	}
	if i.typeFilter == nil {
		i.typeFilter = TrueTypeFilter
	}
	if i.name == "" {
		i.name = "introduction"
		if len(i.interfaces) > 0 {
			i.name = i.interfaces[0].String()
		}
	}
	return i
}

func (i *introduction) Name() string               { return i.name }
func (i *introduction) Order() int                 { return i.order }
func (i *introduction) Advice() Advice             { return i.mixin }
func (i *introduction) IsPerInstance() bool        { return i.factory != nil }
func (i *introduction) TypeFilter() TypeFilter     { return i.typeFilter }
func (i *introduction) Interfaces() []reflect.Type { return i.interfaces }

func (i *introduction) ValidateInterfaces() error {
	if len(i.interfaces) == 0 {
		return errors.Wrapf(ErrInvalidIntroduction, "%s: no interfaces", i.name)
	}
	if i.mixin == nil && i.factory == nil {
		return errors.Wrapf(ErrInvalidIntroduction, "%s: no mixin", i.name)
	}
	for _, t := range i.interfaces {
		if t == nil || t.Kind() != reflect.Interface {
			return errors.Wrapf(ErrNotInterface, "%s: %v", i.name, t)
		}
	}
	if i.mixin != nil {
		return validateMixin(i.name, i.mixin, i.interfaces)
	}
	return nil
}

func (i *introduction) Mixin() (any, error) {
	if i.factory == nil {
		return i.mixin, nil
	}
	mixin, err := i.factory()
	if err != nil {
		return nil, errors.Wrapf(err, "%s: create mixin", i.name)
	}
	if err := validateMixin(i.name, mixin, i.interfaces); err != nil {
		return nil, err
	}
	return mixin, nil
}

func validateMixin(name string, mixin any, interfaces []reflect.Type) error {
	mt := reflect.TypeOf(mixin)
	if mt == nil {
		return errors.Wrapf(ErrInvalidIntroduction, "%s: nil mixin", name)
	}
	for _, t := range interfaces {
		if !mt.Implements(t) {
			return errors.Wrapf(ErrNotImplemented, "%s: %s does not implement %s", name, mt, t)
		}
	}
	return nil
}

// SortAdvisors orders advisors ascending by Order; equal orders keep their
// registration order.
func SortAdvisors[T Advisor](list []T) []T {
	sorted := make([]T, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})
	return sorted
}
