package aspect

import (
	"context"
	"reflect"
)

var (
	_ Method              = (*method)(nil)
	_ ProceedingJoinpoint = (*invocation)(nil)
	_ PointcutAdvisor     = (*advisor)(nil)
	_ IntroductionAdvisor = (*introduction)(nil)
)

type (
	Nameable interface {
		Name() string
	}

	// Ordered advice or advisors sort ascending by Order.
	Ordered interface {
		Order() int
	}

	// Advice is a unit of cross-cutting behavior. Concrete advice implements
	// one or more of BeforeAdvice, AfterReturningAdvice, ThrowsAdvice or
	// MethodInterceptor.
	Advice interface{}

	// BeforeAdvice runs ahead of the join point. A non-nil error aborts the
	// call and is returned to the caller.
	BeforeAdvice interface {
		Before(jp Joinpoint) error
	}

	// AfterReturningAdvice runs only after a call returned without error.
	// A non-nil error replaces the original return.
	AfterReturningAdvice interface {
		AfterReturning(jp Joinpoint, results []any) error
	}

	// ThrowsAdvice observes failed calls. Returning nil re-raises the original
	// error, returning non-nil replaces it.
	ThrowsAdvice interface {
		AfterThrowing(jp Joinpoint, err error) error
	}

	// MethodInterceptor is around advice. It must call Proceed to continue the
	// chain and may call it zero or many times.
	MethodInterceptor interface {
		Invoke(pjp ProceedingJoinpoint) ([]any, error)
	}

	// Method
	Method interface {
		Nameable
		DeclaringType() reflect.Type
		// Type is the func type of the method without receiver.
		Type() reflect.Type
		FullName() string
		ParamTypes() []reflect.Type
		ResultTypes() []reflect.Type
		ReturnsError() bool
	}

	// TypeFilter
	TypeFilter interface {
		MatchesType(t reflect.Type) bool
	}

	// MethodMatcher decides statically whether a method is advised. Runtime
	// matchers are consulted again for every call with the actual arguments.
	MethodMatcher interface {
		Matches(m Method, targetType reflect.Type) bool
		IsRuntime() bool
		MatchesArgs(m Method, targetType reflect.Type, args []any) bool
	}

	// Pointcut
	Pointcut interface {
		TypeFilter() TypeFilter
		MethodMatcher() MethodMatcher
	}

	// Advisor
	Advisor interface {
		Nameable
		Ordered
		Advice() Advice
		IsPerInstance() bool
	}

	// PointcutAdvisor
	PointcutAdvisor interface {
		Advisor
		Pointcut() Pointcut
	}

	// IntroductionAdvisor adds interfaces to a proxy, implemented by a mixin
	// instead of the target.
	IntroductionAdvisor interface {
		Advisor
		TypeFilter() TypeFilter
		Interfaces() []reflect.Type
		ValidateInterfaces() error
		// Mixin returns the shared mixin, or a new one for per-instance
		// introductions.
		Mixin() (any, error)
	}

	// Joinpoint
	Joinpoint interface {
		Nameable
		ParamTo(i int) any
		Params() []any
		FuncName() string
		Method() Method
		Target() any
		This() *AopProxy
		Context() context.Context
	}

	// ProceedingJoinpoint
	ProceedingJoinpoint interface {
		Joinpoint
		SetParams(args ...any)
		Proceed(args ...any) ([]any, error)
	}

	// TargetSource supplies the target for each call.
	TargetSource interface {
		TargetType() reflect.Type
		IsStatic() bool
		GetTarget(ctx context.Context) (any, error)
		ReleaseTarget(target any) error
	}
)

// InterceptorFunc adapts a function to MethodInterceptor.
type InterceptorFunc func(pjp ProceedingJoinpoint) ([]any, error)

func (f InterceptorFunc) Invoke(pjp ProceedingJoinpoint) ([]any, error) { return f(pjp) }

// BeforeFunc adapts a function to BeforeAdvice.
type BeforeFunc func(jp Joinpoint) error

func (f BeforeFunc) Before(jp Joinpoint) error { return f(jp) }

// AfterReturningFunc adapts a function to AfterReturningAdvice.
type AfterReturningFunc func(jp Joinpoint, results []any) error

func (f AfterReturningFunc) AfterReturning(jp Joinpoint, results []any) error { return f(jp, results) }

// ThrowsFunc adapts a function to ThrowsAdvice.
type ThrowsFunc func(jp Joinpoint, err error) error

func (f ThrowsFunc) AfterThrowing(jp Joinpoint, err error) error { return f(jp, err) }

// InterfaceOf returns the reflect.Type of the interface T.
func InterfaceOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
