package pool

import (
	"context"
	"reflect"

	"github.com/go-park/weave/pkg/aspect"
	"github.com/pkg/errors"
)

var _ aspect.TargetSource = (*TargetSource)(nil)

// Stats is introduced on pooled proxies by StatsMixin.
type Stats interface {
	ActiveCount() int
	IdleCount() int
	MaxSize() int
}

// TargetSource hands every proxy call its own pooled target and returns it
// when the call completes.
type TargetSource struct {
	*Pool
	typ reflect.Type
}

// NewTargetSource builds a pool of targets of type typ. Objects made by the
// factory must be assignable to typ.
func NewTargetSource(typ reflect.Type, factory ObjectFactory, opts ...Option) (*TargetSource, error) {
	if typ == nil {
		return nil, newError(OpBorrow, ErrInvalidConfig, errors.New("nil target type"))
	}
	p, err := New(factory, opts...)
	if err != nil {
		return nil, err
	}
	return &TargetSource{Pool: p, typ: typ}, nil
}

func (t *TargetSource) TargetType() reflect.Type { return t.typ }
func (t *TargetSource) IsStatic() bool           { return false }

func (t *TargetSource) GetTarget(ctx context.Context) (any, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	obj, err := t.Borrow(ctx)
	if err != nil {
		return nil, err
	}
	if !reflect.TypeOf(obj).AssignableTo(t.typ) {
		_ = t.Return(obj)
		return nil, newError(OpBorrow, ErrInvalidConfig, errors.Errorf("pooled object %T is not a %s", obj, t.typ))
	}
	return obj, nil
}

func (t *TargetSource) ReleaseTarget(target any) error {
	return t.Return(target)
}

// StatsMixin introduces Stats on proxies backed by this target source.
func (t *TargetSource) StatsMixin() aspect.IntroductionAdvisor {
	return aspect.NewIntroduction(
		aspect.WithIntroductionName("pool.Stats"),
		aspect.WithInterfaces(aspect.InterfaceOf[Stats]()),
		aspect.WithMixin(Stats(t.Pool)),
	)
}
