package advice

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-park/weave/pkg/aspect"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeDB struct {
	begun, committed, rolledBack int
	opts                         []*sql.TxOptions
}

func (f *fakeDB) Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	f.begun++
	f.opts = opts
	if err := fc(&gorm.DB{}); err != nil {
		f.rolledBack++
		return err
	}
	f.committed++
	return nil
}

func TestTransaction(t *testing.T) {
	db := &fakeDB{}
	target := newAccount()
	acc := newAccountProxy(t, target, &Transaction{DB: db})

	require.NoError(t, acc.Deposit(context.Background(), "alice", 1))
	tx, ok := TxFromContext(target.lastCtx)
	assert.True(t, ok)
	assert.NotNil(t, tx)
	assert.Equal(t, 1, db.committed)

	target.failures = 1
	assert.ErrorIs(t, acc.Deposit(context.Background(), "alice", 1), errUnavailable)
	assert.Equal(t, 1, db.rolledBack)
	assert.Equal(t, 2, db.begun)
}

func TestTransactionJoinsOuter(t *testing.T) {
	db := &fakeDB{}
	target := newAccount()
	acc := newAccountProxy(t, target, &Transaction{DB: db, Options: &sql.TxOptions{ReadOnly: true}})

	outer := &gorm.DB{}
	ctx := ContextWithTx(context.Background(), outer)
	_, err := acc.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, db.begun)
	tx, _ := TxFromContext(target.lastCtx)
	assert.Same(t, outer, tx)

	_, err = acc.Balance(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, db.opts, 1)
	assert.True(t, db.opts[0].ReadOnly)
}

func TestTransactionNeedsContext(t *testing.T) {
	target := newAccount()
	f, err := aspect.NewProxyFactoryFor(target, aspect.InterfaceOf[Account]())
	require.NoError(t, err)
	require.NoError(t, f.AddAdvice(&Transaction{DB: &fakeDB{}}))
	p, err := f.GetProxy()
	require.NoError(t, err)
	_, err = p.Invoke("Add", 1, 2)
	assert.True(t, errors.Is(err, ErrNoContextParam))
	assert.Equal(t, 0, target.calls["Add"])
}
