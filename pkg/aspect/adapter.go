package aspect

import (
	"github.com/pkg/errors"
)

// AdvisorAdapter turns an advice kind into an interceptor.
type AdvisorAdapter interface {
	SupportsAdvice(advice Advice) bool
	Interceptor(advice Advice) MethodInterceptor
}

// AdapterRegistry resolves advisors into interceptors. MethodInterceptor
// advice is used as is; every adapter supporting the advice contributes one
// more interceptor, in registration order.
type AdapterRegistry struct {
	adapters []AdvisorAdapter
}

// NewAdapterRegistry returns a registry knowing before, after-returning and
// throws advice.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		adapters: []AdvisorAdapter{beforeAdapter{}, afterReturningAdapter{}, throwsAdapter{}},
	}
}

func (r *AdapterRegistry) Register(adapters ...AdvisorAdapter) {
	r.adapters = append(r.adapters, adapters...)
}

func (r *AdapterRegistry) Interceptors(a Advisor) ([]MethodInterceptor, error) {
	advice := a.Advice()
	var list []MethodInterceptor
	if mi, ok := advice.(MethodInterceptor); ok {
		list = append(list, mi)
	}
	for _, adapter := range r.adapters {
		if adapter.SupportsAdvice(advice) {
			list = append(list, adapter.Interceptor(advice))
		}
	}
	if len(list) == 0 {
		return nil, errors.Wrapf(ErrUnknownAdvice, "advisor %s: %T", a.Name(), advice)
	}
	return list, nil
}

type beforeAdapter struct{}

func (beforeAdapter) SupportsAdvice(advice Advice) bool {
	_, ok := advice.(BeforeAdvice)
	return ok
}

func (beforeAdapter) Interceptor(advice Advice) MethodInterceptor {
	before := advice.(BeforeAdvice)
	return InterceptorFunc(func(pjp ProceedingJoinpoint) ([]any, error) {
		if err := before.Before(pjp); err != nil {
			return nil, err
		}
		return pjp.Proceed()
	})
}

type afterReturningAdapter struct{}

func (afterReturningAdapter) SupportsAdvice(advice Advice) bool {
	_, ok := advice.(AfterReturningAdvice)
	return ok
}

func (afterReturningAdapter) Interceptor(advice Advice) MethodInterceptor {
	after := advice.(AfterReturningAdvice)
	return InterceptorFunc(func(pjp ProceedingJoinpoint) ([]any, error) {
		results, err := pjp.Proceed()
		if err != nil {
			return results, err
		}
		if err := after.AfterReturning(pjp, results); err != nil {
			return nil, err
		}
		return results, nil
	})
}

type throwsAdapter struct{}

func (throwsAdapter) SupportsAdvice(advice Advice) bool {
	_, ok := advice.(ThrowsAdvice)
	return ok
}

func (throwsAdapter) Interceptor(advice Advice) MethodInterceptor {
	throws := advice.(ThrowsAdvice)
	return InterceptorFunc(func(pjp ProceedingJoinpoint) ([]any, error) {
		results, err := pjp.Proceed()
		if err == nil {
			return results, nil
		}
		if replaced := throws.AfterThrowing(pjp, err); replaced != nil {
			return results, replaced
		}
		return results, err
	})
}
