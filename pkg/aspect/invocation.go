package aspect

import (
	"context"
	"reflect"

	"github.com/pkg/errors"
)

// chainEntry is one interceptor of a resolved chain. Entries with a matcher
// came from runtime pointcuts and are skipped when the arguments don't match.
type chainEntry struct {
	interceptor MethodInterceptor
	matcher     MethodMatcher
}

// invocation is the state of one call. Proceed hands the next interceptor a
// copy positioned one step further, so an interceptor calling Proceed twice
// runs the rest of the chain twice.
type invocation struct {
	proxy      *AopProxy
	method     Method
	targetType reflect.Type
	target     any
	args       []any
	chain      []chainEntry
	index      int
}

func (inv *invocation) Name() string     { return inv.method.Name() }
func (inv *invocation) FuncName() string { return inv.method.FullName() }
func (inv *invocation) Method() Method   { return inv.method }
func (inv *invocation) Params() []any    { return inv.args }
func (inv *invocation) Target() any      { return inv.target }
func (inv *invocation) This() *AopProxy  { return inv.proxy }

// ParamTo returns the i-th argument counting from 1, nil when out of range.
func (inv *invocation) ParamTo(i int) any {
	if i < 1 || i > len(inv.args) {
		return nil
	}
	return inv.args[i-1]
}

func (inv *invocation) SetParams(args ...any) {
	inv.args = args
}

func (inv *invocation) Context() context.Context {
	return contextOf(inv.args)
}

func (inv *invocation) Proceed(args ...any) ([]any, error) {
	if len(args) > 0 {
		inv.args = args
	}
	for pos := inv.index; pos < len(inv.chain); pos++ {
		entry := inv.chain[pos]
		if entry.matcher != nil && !entry.matcher.MatchesArgs(inv.method, inv.targetType, inv.args) {
			continue
		}
		next := *inv
		next.index = pos + 1
		return entry.interceptor.Invoke(&next)
	}
	return invokeTarget(inv.target, inv.method, inv.args)
}

var contextType = InterfaceOf[context.Context]()

// ReplaceContext returns a copy of args with the context parameter of m set
// to ctx. ok is false when m takes no context.
func ReplaceContext(m Method, args []any, ctx context.Context) (out []any, ok bool) {
	for i, t := range m.ParamTypes() {
		if t != contextType || i >= len(args) {
			continue
		}
		out = append([]any(nil), args...)
		out[i] = ctx
		return out, true
	}
	return args, false
}

func contextOf(args []any) context.Context {
	for _, a := range args {
		if ctx, ok := a.(context.Context); ok && ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

// invokeTarget calls the method on target reflectively. A trailing error
// result is returned as the error.
func invokeTarget(target any, m Method, args []any) ([]any, error) {
	if target == nil {
		return nil, errors.Wrapf(ErrNoTarget, "invoke %s", m.FullName())
	}
	fn := reflect.ValueOf(target).MethodByName(m.Name())
	if !fn.IsValid() {
		return nil, errors.Wrapf(ErrMethodNotExposed, "%T has no method %s", target, m.Name())
	}
	ft := fn.Type()
	if len(args) != ft.NumIn() {
		return nil, errors.Wrapf(ErrArgumentCount, "%s: want %d, got %d", m.FullName(), ft.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := ft.In(i)
		if a == nil {
			if !nillable(pt) {
				return nil, errors.Wrapf(ErrArgumentType, "%s: argument %d is nil, want %s", m.FullName(), i+1, pt)
			}
			in[i] = reflect.Zero(pt)
			continue
		}
		v := reflect.ValueOf(a)
		if !v.Type().AssignableTo(pt) {
			return nil, errors.Wrapf(ErrArgumentType, "%s: argument %d is %s, want %s", m.FullName(), i+1, v.Type(), pt)
		}
		in[i] = v
	}
	var out []reflect.Value
	if ft.IsVariadic() {
		out = fn.CallSlice(in)
	} else {
		out = fn.Call(in)
	}
	var err error
	if n := len(out); n > 0 && ft.Out(n-1) == errorType {
		if e := out[n-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
		out = out[:n-1]
	}
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, err
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return true
	}
	return false
}

// padResults fills results missing after a short-circuit with zero values.
func padResults(m Method, results []any) []any {
	want := valueResultTypes(m)
	if len(results) >= len(want) {
		return results
	}
	padded := make([]any, len(want))
	copy(padded, results)
	for i := len(results); i < len(want); i++ {
		padded[i] = reflect.Zero(want[i]).Interface()
	}
	return padded
}
