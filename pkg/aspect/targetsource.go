package aspect

import (
	"context"
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

var (
	_ TargetSource = (*SingletonTargetSource)(nil)
	_ TargetSource = (*PrototypeTargetSource)(nil)
	_ TargetSource = (*HotSwappableTargetSource)(nil)
)

// SingletonTargetSource always returns the same target.
type SingletonTargetSource struct {
	target any
}

func NewSingletonTargetSource(target any) *SingletonTargetSource {
	return &SingletonTargetSource{target: target}
}

func (s *SingletonTargetSource) TargetType() reflect.Type               { return reflect.TypeOf(s.target) }
func (s *SingletonTargetSource) IsStatic() bool                         { return true }
func (s *SingletonTargetSource) GetTarget(context.Context) (any, error) { return s.target, nil }
func (s *SingletonTargetSource) ReleaseTarget(any) error                { return nil }

// PrototypeTargetSource creates a new target for every call.
type PrototypeTargetSource struct {
	typ     reflect.Type
	factory func(ctx context.Context) (any, error)
}

func NewPrototypeTargetSource(typ reflect.Type, factory func(ctx context.Context) (any, error)) (*PrototypeTargetSource, error) {
	if typ == nil || factory == nil {
		return nil, errors.Wrap(ErrNoTarget, "prototype target source needs a type and a factory")
	}
	return &PrototypeTargetSource{typ: typ, factory: factory}, nil
}

func (p *PrototypeTargetSource) TargetType() reflect.Type { return p.typ }
func (p *PrototypeTargetSource) IsStatic() bool           { return false }
func (p *PrototypeTargetSource) ReleaseTarget(any) error  { return nil }

func (p *PrototypeTargetSource) GetTarget(ctx context.Context) (any, error) {
	target, err := p.factory(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", p.typ)
	}
	return target, nil
}

// HotSwappableTargetSource lets the target be replaced while proxies are in
// use. Calls already running keep the target they started with.
type HotSwappableTargetSource struct {
	mu     sync.RWMutex
	typ    reflect.Type
	target any
}

func NewHotSwappableTargetSource(target any) (*HotSwappableTargetSource, error) {
	if target == nil {
		return nil, errors.Wrap(ErrNoTarget, "hot swappable target source")
	}
	return &HotSwappableTargetSource{typ: reflect.TypeOf(target), target: target}, nil
}

func (h *HotSwappableTargetSource) TargetType() reflect.Type { return h.typ }
func (h *HotSwappableTargetSource) IsStatic() bool           { return false }
func (h *HotSwappableTargetSource) ReleaseTarget(any) error  { return nil }

func (h *HotSwappableTargetSource) GetTarget(context.Context) (any, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.target, nil
}

// Swap installs target and returns the previous one. The new target must
// have the type of the first.
func (h *HotSwappableTargetSource) Swap(target any) (any, error) {
	if target == nil {
		return nil, errors.Wrap(ErrNoTarget, "swap")
	}
	if t := reflect.TypeOf(target); t != h.typ {
		return nil, errors.Wrapf(ErrArgumentType, "swap: %s is not %s", t, h.typ)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	old := h.target
	h.target = target
	return old, nil
}
