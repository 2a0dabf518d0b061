// Package pool provides a bounded object pool and a pooled target source for
// proxies. Borrowing blocks until an object is free; closing the pool destroys
// every object, idle or borrowed, and fails pending borrows.
package pool

import (
	"context"
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// ObjectFactory manages the lifecycle of pooled objects.
type ObjectFactory interface {
	MakeObject(ctx context.Context) (any, error)
	DestroyObject(obj any) error
	ValidateObject(obj any) bool
	ActivateObject(obj any) error
	PassivateObject(obj any) error
}

// FactoryFunc is an ObjectFactory whose objects need no lifecycle handling.
type FactoryFunc func(ctx context.Context) (any, error)

func (f FactoryFunc) MakeObject(ctx context.Context) (any, error) { return f(ctx) }
func (f FactoryFunc) DestroyObject(any) error                     { return nil }
func (f FactoryFunc) ValidateObject(any) bool                     { return true }
func (f FactoryFunc) ActivateObject(any) error                    { return nil }
func (f FactoryFunc) PassivateObject(any) error                   { return nil }

// Pool is a fixed size object pool. Pooled objects must be comparable,
// pointers in practice.
type Pool struct {
	options
	factory ObjectFactory
	sem     *semaphore.Weighted

	mu     sync.Mutex
	free   []any
	busy   map[any]struct{}
	closed bool

	closing context.Context
	close   context.CancelFunc
}

func New(factory ObjectFactory, opts ...Option) (*Pool, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	if factory == nil {
		return nil, newError(OpBorrow, ErrInvalidConfig, errors.New("nil object factory"))
	}
	if o.size <= 0 {
		return nil, newError(OpBorrow, ErrInvalidConfig, errors.Errorf("pool size %d", o.size))
	}
	closing, cancel := context.WithCancel(context.Background())
	return &Pool{
		options: o,
		factory: factory,
		sem:     semaphore.NewWeighted(int64(o.size)),
		busy:    map[any]struct{}{},
		closing: closing,
		close:   cancel,
	}, nil
}

// Borrow checks out an object, waiting for one to be returned when the pool
// is exhausted. It fails with ErrPoolExhausted when ctx ends first and with
// ErrPoolClosed when the pool is or gets closed.
func (p *Pool) Borrow(ctx context.Context) (any, error) {
	if p.isClosed() {
		return nil, newError(OpBorrow, ErrPoolClosed, nil)
	}
	ctx, stop := p.watch(ctx)
	defer stop()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		if p.isClosed() {
			return nil, newError(OpBorrow, ErrPoolClosed, nil)
		}
		return nil, newError(OpBorrow, ErrPoolExhausted, err)
	}
	return p.checkout(ctx)
}

// TryBorrow checks out an object without waiting.
func (p *Pool) TryBorrow(ctx context.Context) (any, error) {
	if p.isClosed() {
		return nil, newError(OpBorrow, ErrPoolClosed, nil)
	}
	if !p.sem.TryAcquire(1) {
		return nil, newError(OpBorrow, ErrPoolExhausted, nil)
	}
	ctx, stop := p.watch(ctx)
	defer stop()
	return p.checkout(ctx)
}

// watch derives a context that is cancelled when the pool closes.
func (p *Pool) watch(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.closing, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// checkout runs with a semaphore slot held and gives it back on failure. The
// factory is called without p.mu held, so Close can cancel a slow MakeObject.
func (p *Pool) checkout(ctx context.Context) (any, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			p.sem.Release(1)
			return nil, newError(OpBorrow, ErrPoolClosed, nil)
		}
		if len(p.free) == 0 {
			p.mu.Unlock()
			break
		}
		obj := p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
		p.mu.Unlock()
		if err := p.factory.ActivateObject(obj); err == nil && p.factory.ValidateObject(obj) {
			return p.claim(obj, false)
		}
		p.destroy(obj)
	}

	obj, err := p.factory.MakeObject(ctx)
	if err != nil {
		p.sem.Release(1)
		if p.isClosed() {
			return nil, newError(OpBorrow, ErrPoolClosed, err)
		}
		return nil, newError(OpBorrow, ErrFactory, errors.Wrap(err, "make object"))
	}
	if t := reflect.TypeOf(obj); t == nil || !t.Comparable() {
		p.sem.Release(1)
		return nil, newError(OpBorrow, ErrInvalidConfig, errors.Errorf("pooled object %T is not comparable", obj))
	}
	if err := p.factory.ActivateObject(obj); err != nil {
		p.destroy(obj)
		p.sem.Release(1)
		return nil, newError(OpBorrow, ErrFactory, errors.Wrap(err, "activate object"))
	}
	return p.claim(obj, true)
}

// claim marks obj as borrowed. An object claimed after Close is destroyed
// and the borrow fails with ErrPoolClosed.
func (p *Pool) claim(obj any, created bool) (any, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.destroy(obj)
		p.sem.Release(1)
		return nil, newError(OpBorrow, ErrPoolClosed, nil)
	}
	p.busy[obj] = struct{}{}
	active := len(p.busy)
	p.mu.Unlock()
	if created {
		p.logger.WithField("active", active).Debug("pool object created")
	}
	return obj, nil
}

// Return checks obj back in. Objects that are not checked out are ignored, so
// returning twice, or after Close destroyed the object, has no effect.
func (p *Pool) Return(obj any) error {
	if obj == nil || !reflect.TypeOf(obj).Comparable() {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.busy[obj]; !ok {
		return nil
	}
	delete(p.busy, obj)
	defer p.sem.Release(1)
	if err := p.factory.PassivateObject(obj); err != nil {
		p.destroy(obj)
		return newError(OpReturn, ErrFactory, errors.Wrap(err, "passivate object"))
	}
	p.free = append(p.free, obj)
	return nil
}

// Close destroys idle and borrowed objects and fails pending and future
// borrows with ErrPoolClosed. Closing twice is a no-op.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	objs := append([]any(nil), p.free...)
	for obj := range p.busy {
		objs = append(objs, obj)
	}
	p.free = nil
	p.busy = map[any]struct{}{}
	p.mu.Unlock()
	p.close()

	var first error
	for _, obj := range objs {
		if err := p.factory.DestroyObject(obj); err != nil && first == nil {
			first = newError(OpClose, ErrFactory, errors.Wrap(err, "destroy object"))
		}
	}
	p.logger.WithField("destroyed", len(objs)).Debug("pool closed")
	return first
}

func (p *Pool) destroy(obj any) {
	if err := p.factory.DestroyObject(obj); err != nil {
		p.logger.WithError(err).Warn("destroy pooled object")
	}
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// ActiveCount is the number of borrowed objects.
func (p *Pool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.busy)
}

// IdleCount is the number of created objects waiting in the pool.
func (p *Pool) IdleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

func (p *Pool) MaxSize() int { return p.size }

func (p *Pool) IsClosed() bool { return p.isClosed() }
