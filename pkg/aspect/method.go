package aspect

import (
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// JoinPoint identifies a candidate call site.
type JoinPoint struct {
	Type   reflect.Type
	Method Method
}

type method struct {
	name          string
	declaringType reflect.Type
	typ           reflect.Type
}

func NewMethod(opts ...Option[method]) Method {
	m := &method{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MethodOf looks up an exported method of t. Methods of concrete types are
// returned without their receiver.
func MethodOf(t reflect.Type, name string) (Method, bool) {
	rm, ok := t.MethodByName(name)
	if !ok {
		return nil, false
	}
	return methodFromReflect(t, rm), true
}

// MethodsOf returns the exported method set of t in reflect order.
func MethodsOf(t reflect.Type) []Method {
	list := make([]Method, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		rm := t.Method(i)
		if !rm.IsExported() {
			continue
		}
		list = append(list, methodFromReflect(t, rm))
	}
	return list
}

func methodFromReflect(t reflect.Type, rm reflect.Method) Method {
	ft := rm.Type
	if t.Kind() != reflect.Interface {
		in := make([]reflect.Type, 0, ft.NumIn()-1)
		for i := 1; i < ft.NumIn(); i++ {
			in = append(in, ft.In(i))
		}
		out := make([]reflect.Type, 0, ft.NumOut())
		for i := 0; i < ft.NumOut(); i++ {
			out = append(out, ft.Out(i))
		}
		ft = reflect.FuncOf(in, out, ft.IsVariadic())
	}
	return NewMethod(
		WithMethodName(rm.Name),
		WithMethodDeclaringType(t),
		WithMethodType(ft),
	)
}

func (m *method) Name() string                { return m.name }
func (m *method) DeclaringType() reflect.Type { return m.declaringType }
func (m *method) Type() reflect.Type          { return m.typ }

func (m *method) FullName() string {
	if m.declaringType == nil {
		return m.name
	}
	return m.declaringType.String() + "." + m.name
}

func (m *method) ParamTypes() []reflect.Type {
	if m.typ == nil {
		return nil
	}
	list := make([]reflect.Type, m.typ.NumIn())
	for i := range list {
		list[i] = m.typ.In(i)
	}
	return list
}

func (m *method) ResultTypes() []reflect.Type {
	if m.typ == nil {
		return nil
	}
	list := make([]reflect.Type, m.typ.NumOut())
	for i := range list {
		list[i] = m.typ.Out(i)
	}
	return list
}

func (m *method) ReturnsError() bool {
	if m.typ == nil || m.typ.NumOut() == 0 {
		return false
	}
	return m.typ.Out(m.typ.NumOut()-1) == errorType
}

func (m *method) String() string { return m.FullName() }

// valueResultTypes are the result types without a trailing error.
func valueResultTypes(m Method) []reflect.Type {
	list := m.ResultTypes()
	if m.ReturnsError() {
		list = list[:len(list)-1]
	}
	return list
}
