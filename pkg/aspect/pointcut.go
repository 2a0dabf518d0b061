package aspect

import (
	"reflect"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
)

var (
	// TrueTypeFilter matches every type.
	TrueTypeFilter TypeFilter = TypeFilterFunc(func(reflect.Type) bool { return true })
	// TrueMethodMatcher matches every method.
	TrueMethodMatcher MethodMatcher = MethodMatcherFunc(func(Method, reflect.Type) bool { return true })
	// TruePointcut matches every join point.
	TruePointcut = NewPointcut(TrueTypeFilter, TrueMethodMatcher)
)

// TypeFilterFunc adapts a predicate to TypeFilter.
type TypeFilterFunc func(t reflect.Type) bool

func (f TypeFilterFunc) MatchesType(t reflect.Type) bool { return f(t) }

// MethodMatcherFunc adapts a predicate to a static MethodMatcher.
type MethodMatcherFunc func(m Method, targetType reflect.Type) bool

func (f MethodMatcherFunc) Matches(m Method, targetType reflect.Type) bool { return f(m, targetType) }
func (f MethodMatcherFunc) IsRuntime() bool                               { return false }

func (f MethodMatcherFunc) MatchesArgs(m Method, targetType reflect.Type, _ []any) bool {
	return f(m, targetType)
}

type pointcut struct {
	tf TypeFilter
	mm MethodMatcher
}

// NewPointcut pairs a type filter with a method matcher. Nil parts match
// everything.
func NewPointcut(tf TypeFilter, mm MethodMatcher) Pointcut {
	if tf == nil {
		tf = TrueTypeFilter
	}
	if mm == nil {
		mm = TrueMethodMatcher
	}
	return &pointcut{tf: tf, mm: mm}
}

func (p *pointcut) TypeFilter() TypeFilter       { return p.tf }
func (p *pointcut) MethodMatcher() MethodMatcher { return p.mm }

// TypeIs matches t itself, and for interfaces every implementing type.
func TypeIs(t reflect.Type) TypeFilter {
	return TypeFilterFunc(func(target reflect.Type) bool {
		if target == t {
			return true
		}
		return t.Kind() == reflect.Interface && target != nil && target.Implements(t)
	})
}

// NameMatchPointcut matches method names against simple patterns where '*'
// stands for any run of characters.
func NameMatchPointcut(patterns ...string) (Pointcut, error) {
	list := make([]*regexp2.Regexp, 0, len(patterns))
	for _, p := range patterns {
		expr := "^" + strings.ReplaceAll(regexp2.Escape(p), `\*`, ".*") + "$"
		re, err := regexp2.Compile(expr, regexp2.None)
		if err != nil {
			return nil, errors.Wrapf(err, "name pattern %q", p)
		}
		list = append(list, re)
	}
	mm := MethodMatcherFunc(func(m Method, _ reflect.Type) bool {
		return matchAny(list, m.Name())
	})
	return NewPointcut(TrueTypeFilter, mm), nil
}

// RegexpPointcut matches the fully qualified method name, "pkg.Type.Method",
// against .NET style regular expressions. Excluded patterns win.
func RegexpPointcut(patterns []string, excluded ...string) (Pointcut, error) {
	include, err := compileAll(patterns)
	if err != nil {
		return nil, err
	}
	exclude, err := compileAll(excluded)
	if err != nil {
		return nil, err
	}
	mm := MethodMatcherFunc(func(m Method, targetType reflect.Type) bool {
		names := []string{m.FullName()}
		if targetType != nil && targetType != m.DeclaringType() {
			names = append(names, targetType.String()+"."+m.Name())
		}
		for _, name := range names {
			if matchAny(include, name) && !matchAny(exclude, name) {
				return true
			}
		}
		return false
	})
	return NewPointcut(TrueTypeFilter, mm), nil
}

func compileAll(patterns []string) ([]*regexp2.Regexp, error) {
	list := make([]*regexp2.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp2.Compile(p, regexp2.None)
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %q", p)
		}
		list = append(list, re)
	}
	return list, nil
}

func matchAny(list []*regexp2.Regexp, s string) bool {
	for _, re := range list {
		if ok, err := re.MatchString(s); err == nil && ok {
			return true
		}
	}
	return false
}

// AnnotationPointcut matches methods carrying annotation on either the
// declaring type or the target type.
func AnnotationPointcut(annotation string) Pointcut {
	mm := MethodMatcherFunc(func(m Method, targetType reflect.Type) bool {
		if HasAnnotation(m.DeclaringType(), m.Name(), annotation) {
			return true
		}
		return targetType != nil && HasAnnotation(targetType, m.Name(), annotation)
	})
	return NewPointcut(TrueTypeFilter, mm)
}

// Union matches a join point matched by any of the pointcuts.
func Union(list ...Pointcut) Pointcut {
	c := composite(list)
	return NewPointcut(TypeFilterFunc(c.anyType), &unionMatcher{c})
}

// Intersection matches a join point matched by all of the pointcuts.
func Intersection(list ...Pointcut) Pointcut {
	c := composite(list)
	return NewPointcut(TypeFilterFunc(c.allTypes), &intersectionMatcher{c})
}

type composite []Pointcut

func (c composite) anyType(t reflect.Type) bool {
	for _, p := range c {
		if p.TypeFilter().MatchesType(t) {
			return true
		}
	}
	return false
}

func (c composite) allTypes(t reflect.Type) bool {
	for _, p := range c {
		if !p.TypeFilter().MatchesType(t) {
			return false
		}
	}
	return true
}

func (c composite) isRuntime() bool {
	for _, p := range c {
		if p.MethodMatcher().IsRuntime() {
			return true
		}
	}
	return false
}

func staticMatch(p Pointcut, m Method, t reflect.Type) bool {
	return p.TypeFilter().MatchesType(t) && p.MethodMatcher().Matches(m, t)
}

func runtimeMatch(p Pointcut, m Method, t reflect.Type, args []any) bool {
	mm := p.MethodMatcher()
	return !mm.IsRuntime() || mm.MatchesArgs(m, t, args)
}

type unionMatcher struct{ composite }

func (u *unionMatcher) Matches(m Method, t reflect.Type) bool {
	for _, p := range u.composite {
		if staticMatch(p, m, t) {
			return true
		}
	}
	return false
}

func (u *unionMatcher) IsRuntime() bool { return u.isRuntime() }

func (u *unionMatcher) MatchesArgs(m Method, t reflect.Type, args []any) bool {
	for _, p := range u.composite {
		if staticMatch(p, m, t) && runtimeMatch(p, m, t, args) {
			return true
		}
	}
	return false
}

type intersectionMatcher struct{ composite }

func (i *intersectionMatcher) Matches(m Method, t reflect.Type) bool {
	for _, p := range i.composite {
		if !staticMatch(p, m, t) {
			return false
		}
	}
	return true
}

func (i *intersectionMatcher) IsRuntime() bool { return i.isRuntime() }

func (i *intersectionMatcher) MatchesArgs(m Method, t reflect.Type, args []any) bool {
	for _, p := range i.composite {
		if !runtimeMatch(p, m, t, args) {
			return false
		}
	}
	return true
}
