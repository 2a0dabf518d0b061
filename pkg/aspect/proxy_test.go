package aspect

import (
	"context"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Calculator = (*calculatorProxy)(nil)

func TestBeforeAdviceRunsAheadOfTarget(t *testing.T) {
	rec := &recorder{}
	target := newCalculator()
	logBefore := BeforeFunc(func(jp Joinpoint) error {
		rec.add("before %s%v", jp.Name(), jp.Params())
		return nil
	})
	calc, _, err := newCalculatorProxy(target, NewAdvisor(logBefore))
	require.NoError(t, err)

	got, err := calc.Add(2, 3)
	rec.add("returned %d", got)
	require.NoError(t, err)

	want, _ := newCalculator().Add(2, 3)
	assert.Equal(t, want, got)
	assert.Equal(t, 5, got)
	assert.Equal(t, "before Add[2 3],returned 5", rec.String())
}

func TestBeforeAdviceErrorAbortsCall(t *testing.T) {
	target := newCalculator()
	denied := errors.New("denied")
	calc, _, err := newCalculatorProxy(target, NewAdvisor(BeforeFunc(func(Joinpoint) error { return denied })))
	require.NoError(t, err)

	_, err = calc.Add(1, 1)
	assert.ErrorIs(t, err, denied)
	assert.Zero(t, target.calls["Add"])
}

func TestAfterReturningAdvice(t *testing.T) {
	var seen []any
	after := AfterReturningFunc(func(jp Joinpoint, results []any) error {
		seen = results
		return nil
	})
	calc, _, err := newCalculatorProxy(newCalculator(), NewAdvisor(after))
	require.NoError(t, err)

	_, err = calc.Add(4, 5)
	require.NoError(t, err)
	assert.Equal(t, []any{9}, seen)

	seen = nil
	_, err = calc.Div(1, 0)
	assert.ErrorIs(t, err, errDivZero)
	assert.Nil(t, seen)
}

func TestAfterReturningErrorReplacesReturn(t *testing.T) {
	replaced := errors.New("replaced")
	calc, _, err := newCalculatorProxy(newCalculator(), NewAdvisor(AfterReturningFunc(func(Joinpoint, []any) error {
		return replaced
	})))
	require.NoError(t, err)

	got, err := calc.Add(1, 2)
	assert.ErrorIs(t, err, replaced)
	assert.Zero(t, got)
}

func TestThrowsAdviceOnlyOnError(t *testing.T) {
	var observed []error
	throws := ThrowsFunc(func(jp Joinpoint, err error) error {
		observed = append(observed, err)
		return nil
	})
	calc, _, err := newCalculatorProxy(newCalculator(), NewAdvisor(throws))
	require.NoError(t, err)

	_, err = calc.Div(6, 3)
	require.NoError(t, err)
	assert.Empty(t, observed)

	_, err = calc.Div(6, 0)
	assert.ErrorIs(t, err, errDivZero)
	require.Len(t, observed, 1)
	assert.ErrorIs(t, observed[0], errDivZero)
}

func TestThrowsAdviceSeesInterceptorError(t *testing.T) {
	failing := errors.New("interceptor failed")
	var observed error
	calc, _, err := newCalculatorProxy(newCalculator(),
		NewAdvisor(ThrowsFunc(func(_ Joinpoint, err error) error {
			observed = err
			return nil
		}), WithOrder(1)),
		NewAdvisor(InterceptorFunc(func(ProceedingJoinpoint) ([]any, error) {
			return nil, failing
		}), WithOrder(2)),
	)
	require.NoError(t, err)

	_, err = calc.Add(1, 1)
	assert.ErrorIs(t, err, failing)
	assert.ErrorIs(t, observed, failing)
}

func TestThrowsAdviceTranslatesError(t *testing.T) {
	translated := errors.New("translated")
	calc, _, err := newCalculatorProxy(newCalculator(), NewAdvisor(ThrowsFunc(func(_ Joinpoint, err error) error {
		return errors.Wrap(translated, err.Error())
	})))
	require.NoError(t, err)

	_, err = calc.Div(1, 0)
	assert.ErrorIs(t, err, translated)
}

func TestProceedZeroTimesShortCircuits(t *testing.T) {
	target := newCalculator()
	calc, _, err := newCalculatorProxy(target, NewAdvisor(InterceptorFunc(func(ProceedingJoinpoint) ([]any, error) {
		return nil, nil
	})))
	require.NoError(t, err)

	got, err := calc.Add(2, 2)
	require.NoError(t, err)
	assert.Zero(t, got)
	assert.Zero(t, target.calls["Add"])
}

func TestProceedManyTimesRerunsChain(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		target := newCalculator()
		inner := 0
		calc, _, err := newCalculatorProxy(target,
			NewAdvisor(InterceptorFunc(func(pjp ProceedingJoinpoint) (results []any, err error) {
				for i := 0; i < n; i++ {
					results, err = pjp.Proceed()
				}
				return
			}), WithOrder(1)),
			NewAdvisor(BeforeFunc(func(Joinpoint) error {
				inner++
				return nil
			}), WithOrder(2)),
		)
		require.NoError(t, err)

		got, err := calc.Add(1, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, got)
		assert.Equal(t, n, target.calls["Add"])
		assert.Equal(t, n, inner)
	}
}

func TestProceedWithArgumentsRewritesCall(t *testing.T) {
	target := newCalculator()
	var innerArgs []any
	calc, _, err := newCalculatorProxy(target,
		NewAdvisor(InterceptorFunc(func(pjp ProceedingJoinpoint) ([]any, error) {
			return pjp.Proceed(pjp.ParamTo(1).(int)*10, pjp.ParamTo(2))
		}), WithOrder(1)),
		NewAdvisor(BeforeFunc(func(jp Joinpoint) error {
			innerArgs = jp.Params()
			return nil
		}), WithOrder(2)),
	)
	require.NoError(t, err)

	got, err := calc.Add(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 12, got)
	assert.Equal(t, []any{10, 2}, innerArgs)
}

func TestSetParamsRejectsWrongTypes(t *testing.T) {
	calc, _, err := newCalculatorProxy(newCalculator(), NewAdvisor(InterceptorFunc(func(pjp ProceedingJoinpoint) ([]any, error) {
		pjp.SetParams("one", 2)
		return pjp.Proceed()
	})))
	require.NoError(t, err)

	_, err = calc.Add(1, 2)
	assert.ErrorIs(t, err, ErrArgumentType)
}

func TestRuntimeMatcherEvaluatedPerCall(t *testing.T) {
	mm, err := ExprMethodMatcher(`args[1] == 0`)
	require.NoError(t, err)
	guarded := 0
	guard := InterceptorFunc(func(pjp ProceedingJoinpoint) ([]any, error) {
		guarded++
		return []any{-1}, nil
	})
	calc, _, err := newCalculatorProxy(newCalculator(), NewAdvisor(guard, WithPointcut(NewPointcut(nil, mm))))
	require.NoError(t, err)

	got, err := calc.Div(8, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
	assert.Zero(t, guarded)

	got, err = calc.Div(8, 0)
	require.NoError(t, err)
	assert.Equal(t, -1, got)
	assert.Equal(t, 1, guarded)
}

func TestVariadicAndNoErrorMethods(t *testing.T) {
	calc, _, err := newCalculatorProxy(newCalculator())
	require.NoError(t, err)
	assert.Equal(t, 6, calc.Sum(context.Background(), 1, 2, 3))
	assert.Equal(t, 0, calc.Sum(context.Background()))
}

func TestNoErrorMethodPanicsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	calc, _, err := newCalculatorProxy(newCalculator(), NewAdvisor(BeforeFunc(func(Joinpoint) error { return boom })))
	require.NoError(t, err)
	assert.PanicsWithError(t, boom.Error(), func() {
		calc.Sum(context.Background(), 1)
	})
}

func TestJoinpointContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	var got context.Context
	calc, _, err := newCalculatorProxy(newCalculator(), NewAdvisor(BeforeFunc(func(jp Joinpoint) error {
		got = jp.Context()
		return nil
	})))
	require.NoError(t, err)

	calc.Sum(ctx, 1)
	assert.Equal(t, "v", got.Value(key{}))

	_, _ = calc.Add(1, 1)
	assert.Equal(t, context.Background(), got)
}

func TestJoinpointExposesCallSite(t *testing.T) {
	target := newCalculator()
	var jp Joinpoint
	calc, p, err := newCalculatorProxy(target, NewAdvisor(BeforeFunc(func(j Joinpoint) error {
		jp = j
		return nil
	})))
	require.NoError(t, err)

	_, _ = calc.Div(9, 3)
	require.NotNil(t, jp)
	assert.Equal(t, "Div", jp.Name())
	assert.Equal(t, "aspect.Calculator.Div", jp.FuncName())
	assert.Same(t, target, jp.Target())
	assert.Same(t, p, jp.This())
	assert.Equal(t, 9, jp.ParamTo(1))
	assert.Nil(t, jp.ParamTo(3))
	assert.Equal(t, InterfaceOf[Calculator](), jp.Method().DeclaringType())
}

func TestIntroductionDispatchesToMixin(t *testing.T) {
	target := newCalculator()
	mixin := &lockMixin{}
	f, err := NewProxyFactoryFor(target, InterfaceOf[Calculator]())
	require.NoError(t, err)
	var seenTarget any
	require.NoError(t, f.AddAdvice(BeforeFunc(func(jp Joinpoint) error {
		seenTarget = jp.Target()
		return nil
	})))
	require.NoError(t, f.AddIntroduction(NewIntroduction(WithMixin(mixin), WithInterfaces(InterfaceOf[Lockable]()))))
	p, err := f.GetProxy()
	require.NoError(t, err)

	assert.True(t, p.Implements(InterfaceOf[Lockable]()))
	assert.True(t, p.Implements(InterfaceOf[Calculator]()))

	_, err = p.Invoke("Lock")
	require.NoError(t, err)
	assert.True(t, mixin.locked)
	assert.Same(t, mixin, seenTarget)
	results, err := p.Invoke("Locked")
	require.NoError(t, err)
	assert.Equal(t, []any{true}, results)
	assert.Empty(t, target.calls)
}

func TestPerInstanceIntroduction(t *testing.T) {
	f, err := NewProxyFactoryFor(newCalculator(), InterfaceOf[Calculator]())
	require.NoError(t, err)
	intro := NewIntroduction(
		WithMixinFactory(func() (any, error) { return &lockMixin{}, nil }),
		WithInterfaces(InterfaceOf[Lockable]()),
	)
	assert.True(t, intro.IsPerInstance())
	require.NoError(t, f.AddIntroduction(intro))

	p1, err := f.GetProxy()
	require.NoError(t, err)
	p2, err := f.GetProxy()
	require.NoError(t, err)

	_, err = p1.Invoke("Lock")
	require.NoError(t, err)
	r1, _ := p1.Invoke("Locked")
	r2, _ := p2.Invoke("Locked")
	assert.Equal(t, []any{true}, r1)
	assert.Equal(t, []any{false}, r2)
}

func TestIntroductionValidation(t *testing.T) {
	f := NewProxyFactory()
	err := f.AddIntroduction(NewIntroduction(WithMixin(newCalculator()), WithInterfaces(InterfaceOf[Lockable]())))
	assert.ErrorIs(t, err, ErrNotImplemented)

	err = f.AddIntroduction(NewIntroduction(WithMixin(&lockMixin{})))
	assert.ErrorIs(t, err, ErrInvalidIntroduction)

	err = f.AddIntroduction(NewIntroduction(WithMixin(&lockMixin{}), WithInterfaces(reflect.TypeOf(0))))
	assert.ErrorIs(t, err, ErrNotInterface)
}

func TestIntroductionTypeFilter(t *testing.T) {
	f, err := NewProxyFactoryFor(newCalculator(), InterfaceOf[Calculator]())
	require.NoError(t, err)
	require.NoError(t, f.AddIntroduction(NewIntroduction(
		WithMixin(&lockMixin{}),
		WithInterfaces(InterfaceOf[Lockable]()),
		WithIntroductionFilter(TypeFilterFunc(func(reflect.Type) bool { return false })),
	)))
	p, err := f.GetProxy()
	require.NoError(t, err)
	assert.False(t, p.Implements(InterfaceOf[Lockable]()))
	_, err = p.Invoke("Lock")
	assert.ErrorIs(t, err, ErrMethodNotExposed)
}

type adder interface {
	Add(s string) string
}

type adderMixin struct{}

func (adderMixin) Add(s string) string { return s + s }

type summer interface {
	Add(a, b int) (int, error)
}

type summerMixin struct{ calls int }

func (m *summerMixin) Add(a, b int) (int, error) {
	m.calls++
	return 0, nil
}

func TestIntroductionClashingWithTarget(t *testing.T) {
	f, err := NewProxyFactoryFor(newCalculator(), InterfaceOf[Calculator]())
	require.NoError(t, err)
	require.NoError(t, f.AddIntroduction(NewIntroduction(
		WithIntroductionName("adder"),
		WithMixin(adderMixin{}),
		WithInterfaces(InterfaceOf[adder]()),
	)))
	_, err = f.GetProxy()
	assert.ErrorIs(t, err, ErrInvalidIntroduction)
}

func TestIntroductionShadowedByTarget(t *testing.T) {
	target, mixin := newCalculator(), &summerMixin{}
	f, err := NewProxyFactoryFor(target, InterfaceOf[Calculator]())
	require.NoError(t, err)
	require.NoError(t, f.AddIntroduction(NewIntroduction(WithMixin(mixin), WithInterfaces(InterfaceOf[summer]()))))
	p, err := f.GetProxy()
	require.NoError(t, err)

	assert.NotContains(t, p.Interfaces(), InterfaceOf[summer]())
	results, err := p.Invoke("Add", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []any{5}, results)
	assert.Equal(t, 1, target.calls["Add"])
	assert.Zero(t, mixin.calls)
}

func TestNilIntroduction(t *testing.T) {
	f := NewProxyFactory()
	assert.ErrorIs(t, f.AddIntroduction(nil), ErrInvalidIntroduction)
}

func TestProxyTargetTypeExposesConcreteMethods(t *testing.T) {
	target := newCalculator()
	f, err := NewProxyFactoryFor(target, InterfaceOf[Calculator]())
	require.NoError(t, err)
	p, err := f.GetProxy()
	require.NoError(t, err)
	_, err = p.Invoke("Reset")
	assert.ErrorIs(t, err, ErrMethodNotExposed)

	require.NoError(t, f.SetProxyTargetType(true))
	p, err = f.GetProxy()
	require.NoError(t, err)
	assert.Equal(t, []string{"Add", "Div", "Reset", "Sum"}, p.Methods())
	target.calls["Add"] = 3
	_, err = p.Invoke("Reset")
	require.NoError(t, err)
	assert.Empty(t, target.calls)

	m, ok := p.Method("Reset")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(target), m.DeclaringType())
}

func TestNoInterfacesFallsBackToTargetType(t *testing.T) {
	f := NewProxyFactory()
	require.NoError(t, f.SetTarget(newCalculator()))
	p, err := f.GetProxy()
	require.NoError(t, err)
	assert.Contains(t, p.Methods(), "Reset")
	results, err := p.Invoke("Add", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []any{2}, results)
}

func TestProxyIdentityIsDistinct(t *testing.T) {
	target := newCalculator()
	calc, p, err := newCalculatorProxy(target)
	require.NoError(t, err)
	assert.NotEqual(t, any(target), any(calc))
	assert.NotEqual(t, any(target), any(p))
}

func TestGetProxyReportsMisconfiguration(t *testing.T) {
	_, err := NewProxyFactory().GetProxy()
	assert.ErrorIs(t, err, ErrNoTarget)

	f, err := NewProxyFactoryFor(&lockMixin{}, InterfaceOf[Calculator]())
	require.NoError(t, err)
	_, err = f.GetProxy()
	assert.ErrorIs(t, err, ErrNotImplemented)

	f, err = NewProxyFactoryFor(newCalculator(), InterfaceOf[Calculator]())
	require.NoError(t, err)
	require.NoError(t, f.AddAdvice(struct{}{}))
	_, err = f.GetProxy()
	assert.ErrorIs(t, err, ErrUnknownAdvice)

	assert.ErrorIs(t, f.AddInterface(reflect.TypeOf(1)), ErrNotInterface)
}

func TestUnknownMethodAndArgumentCount(t *testing.T) {
	_, p, err := newCalculatorProxy(newCalculator())
	require.NoError(t, err)
	_, err = p.Invoke("Mul", 1, 2)
	assert.ErrorIs(t, err, ErrMethodNotExposed)
	_, err = p.Invoke("Add", 1)
	assert.ErrorIs(t, err, ErrArgumentCount)
}

func TestNilArguments(t *testing.T) {
	_, p, err := newCalculatorProxy(newCalculator())
	require.NoError(t, err)
	_, err = p.Invoke("Add", nil, 2)
	assert.ErrorIs(t, err, ErrArgumentType)

	results, err := p.Invoke("Sum", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{0}, results)
}

func TestFrozenConfiguration(t *testing.T) {
	f, err := NewProxyFactoryFor(newCalculator(), InterfaceOf[Calculator]())
	require.NoError(t, err)
	f.Freeze()
	assert.True(t, f.IsFrozen())
	assert.ErrorIs(t, f.AddAdvice(BeforeFunc(func(Joinpoint) error { return nil })), ErrFrozen)
	assert.ErrorIs(t, f.SetProxyTargetType(true), ErrFrozen)
	_, err = f.RemoveAdvisor(nil)
	assert.ErrorIs(t, err, ErrFrozen)
	_, err = f.GetProxy()
	assert.NoError(t, err)
}

func TestProxySnapshotIgnoresLaterChanges(t *testing.T) {
	f, err := NewProxyFactoryFor(newCalculator(), InterfaceOf[Calculator]())
	require.NoError(t, err)
	p, err := f.GetProxy()
	require.NoError(t, err)

	called := false
	a := NewAdvisor(BeforeFunc(func(Joinpoint) error {
		called = true
		return nil
	}))
	require.NoError(t, f.AddAdvisor(a))
	_, err = p.Invoke("Add", 1, 2)
	require.NoError(t, err)
	assert.False(t, called)
	assert.Empty(t, p.Advisors())

	removed, err := f.RemoveAdvisor(a)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, f.Advisors())
}

func TestAdapterRegistryCustomAdapter(t *testing.T) {
	registry := NewAdapterRegistry()
	registry.Register(auditAdapter{})
	rec := &recorder{}

	f := NewProxyFactory(WithAdapterRegistry(registry))
	require.NoError(t, f.SetTarget(newCalculator()))
	require.NoError(t, f.AddInterface(InterfaceOf[Calculator]()))
	require.NoError(t, f.AddAdvice(&audit{log: rec}))
	p, err := f.GetProxy()
	require.NoError(t, err)

	_, err = p.Invoke("Add", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "audit Add", rec.String())
}

type audit struct{ log *recorder }

type auditAdapter struct{}

func (auditAdapter) SupportsAdvice(a Advice) bool {
	_, ok := a.(*audit)
	return ok
}

func (auditAdapter) Interceptor(a Advice) MethodInterceptor {
	au := a.(*audit)
	return InterceptorFunc(func(pjp ProceedingJoinpoint) ([]any, error) {
		au.log.add("audit %s", pjp.Name())
		return pjp.Proceed()
	})
}

func TestAdviceWithSeveralKinds(t *testing.T) {
	rec := &recorder{}
	both := &beforeAndAfter{rec: rec}
	calc, _, err := newCalculatorProxy(newCalculator(), NewAdvisor(both))
	require.NoError(t, err)
	_, err = calc.Add(1, 1)
	require.NoError(t, err)
	assert.Equal(t, "before,after", rec.String())
}

type beforeAndAfter struct{ rec *recorder }

func (b *beforeAndAfter) Before(Joinpoint) error {
	b.rec.add("before")
	return nil
}

func (b *beforeAndAfter) AfterReturning(Joinpoint, []any) error {
	b.rec.add("after")
	return nil
}
