package advice

import (
	"context"
	"database/sql"

	"github.com/go-park/weave/pkg/aspect"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Transactor runs fc in a transaction, committing when it returns nil.
// *gorm.DB implements it.
type Transactor interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

type txKey struct{}

func ContextWithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction opened by Transaction advice.
func TxFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}

var (
	ErrNoContextParam = errors.New("advice: transactional method takes no context")

	_ aspect.MethodInterceptor = (*Transaction)(nil)
)

// Transaction runs advised calls in a database transaction, rolled back when
// the call fails. The transaction travels in the method's context argument;
// calls already inside a transaction join it.
type Transaction struct {
	DB      Transactor
	Options *sql.TxOptions
}

func (t *Transaction) Invoke(pjp aspect.ProceedingJoinpoint) ([]any, error) {
	ctx := pjp.Context()
	if _, ok := TxFromContext(ctx); ok {
		return pjp.Proceed()
	}
	if _, ok := aspect.ReplaceContext(pjp.Method(), pjp.Params(), ctx); !ok {
		return nil, errors.Wrap(ErrNoContextParam, pjp.FuncName())
	}
	var results []any
	fc := func(tx *gorm.DB) error {
		args, _ := aspect.ReplaceContext(pjp.Method(), pjp.Params(), ContextWithTx(ctx, tx))
		var err error
		results, err = pjp.Proceed(args...)
		return err
	}
	var err error
	if t.Options != nil {
		err = t.DB.Transaction(fc, t.Options)
	} else {
		err = t.DB.Transaction(fc)
	}
	return results, err
}
