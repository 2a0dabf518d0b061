package advice

import (
	"context"
	"testing"

	"github.com/go-park/weave/pkg/aspect"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var errUnavailable = errors.New("unavailable")

type Account interface {
	Balance(ctx context.Context, id string) (int, error)
	Deposit(ctx context.Context, id string, amount int) error
	Add(a, b int) int
}

type account struct {
	calls    map[string]int
	failures int
	failWith error
	lastCtx  context.Context
	balances map[string]int
}

func newAccount() *account {
	return &account{calls: map[string]int{}, balances: map[string]int{"alice": 10}, failWith: errUnavailable}
}

func (a *account) Balance(ctx context.Context, id string) (int, error) {
	a.calls["Balance"]++
	a.lastCtx = ctx
	if a.failures > 0 {
		a.failures--
		return 0, a.failWith
	}
	return a.balances[id], nil
}

func (a *account) Deposit(ctx context.Context, id string, amount int) error {
	a.calls["Deposit"]++
	a.lastCtx = ctx
	if a.failures > 0 {
		a.failures--
		return a.failWith
	}
	a.balances[id] += amount
	return nil
}

func (a *account) Add(x, y int) int {
	a.calls["Add"]++
	return x + y
}

// accountProxy is what the generator emits for Account.
type accountProxy struct {
	proxy *aspect.AopProxy
}

func (p *accountProxy) Balance(ctx context.Context, id string) (int, error) {
	out, err := p.proxy.Invoke("Balance", ctx, id)
	if err != nil {
		return 0, err
	}
	return out[0].(int), nil
}

func (p *accountProxy) Deposit(ctx context.Context, id string, amount int) error {
	_, err := p.proxy.Invoke("Deposit", ctx, id, amount)
	return err
}

func (p *accountProxy) Add(a, b int) int {
	out, err := p.proxy.Invoke("Add", a, b)
	if err != nil {
		panic(err)
	}
	return out[0].(int)
}

func newAccountProxy(t *testing.T, target *account, advice ...aspect.Advice) Account {
	t.Helper()
	f, err := aspect.NewProxyFactoryFor(target, aspect.InterfaceOf[Account]())
	require.NoError(t, err)
	for _, a := range advice {
		require.NoError(t, f.AddAdvice(a))
	}
	p, err := f.GetProxy()
	require.NoError(t, err)
	return &accountProxy{proxy: p}
}
