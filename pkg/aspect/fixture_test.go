package aspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var errDivZero = errors.New("division by zero")

type Calculator interface {
	Add(a, b int) (int, error)
	Div(a, b int) (int, error)
	Sum(ctx context.Context, values ...int) int
}

type Lockable interface {
	Lock()
	Unlock()
	Locked() bool
}

type calculator struct {
	calls  map[string]int
	failAt int
}

func newCalculator() *calculator {
	return &calculator{calls: map[string]int{}}
}

func (c *calculator) Add(a, b int) (int, error) {
	c.calls["Add"]++
	return a + b, nil
}

func (c *calculator) Div(a, b int) (int, error) {
	c.calls["Div"]++
	if b == 0 {
		return 0, errDivZero
	}
	return a / b, nil
}

func (c *calculator) Sum(_ context.Context, values ...int) int {
	c.calls["Sum"]++
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

// Reset is only reachable when the target type is proxied.
func (c *calculator) Reset() {
	c.calls = map[string]int{}
}

type lockMixin struct {
	locked bool
}

func (l *lockMixin) Lock()        { l.locked = true }
func (l *lockMixin) Unlock()      { l.locked = false }
func (l *lockMixin) Locked() bool { return l.locked }

// calculatorProxy is what the generator emits for Calculator.
type calculatorProxy struct {
	proxy *AopProxy
}

func (p *calculatorProxy) Add(a int, b int) (r0 int, err error) {
	results, err := p.proxy.Invoke("Add", a, b)
	if err != nil {
		return
	}
	r0, _ = results[0].(int)
	return
}

func (p *calculatorProxy) Div(a int, b int) (r0 int, err error) {
	results, err := p.proxy.Invoke("Div", a, b)
	if err != nil {
		return
	}
	r0, _ = results[0].(int)
	return
}

func (p *calculatorProxy) Sum(ctx context.Context, values ...int) (r0 int) {
	results, err := p.proxy.Invoke("Sum", ctx, values)
	if err != nil {
		panic(err)
	}
	r0, _ = results[0].(int)
	return
}

type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) String() string { return strings.Join(r.events, ",") }

func newCalculatorProxy(target *calculator, advisors ...Advisor) (*calculatorProxy, *AopProxy, error) {
	f, err := NewProxyFactoryFor(target, InterfaceOf[Calculator]())
	if err != nil {
		return nil, nil, err
	}
	for _, a := range advisors {
		if err := f.AddAdvisor(a); err != nil {
			return nil, nil, err
		}
	}
	p, err := f.GetProxy()
	if err != nil {
		return nil, nil, err
	}
	return &calculatorProxy{proxy: p}, p, nil
}
