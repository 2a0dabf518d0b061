package advice

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/go-park/weave/pkg/aspect"
	"github.com/pkg/errors"
	"github.com/twitter/groupcache/lru"
)

var _ aspect.MethodInterceptor = (*CacheResult)(nil)

// CacheResult memoizes successful results in a bounded LRU cache. Failed
// calls are never cached.
type CacheResult struct {
	mu     sync.Mutex
	size   int
	cache  *lru.Cache
	key    *vm.Program
	keySrc string
	hits   int64
	misses int64
}

// NewCacheResult caches up to size results. keyExpr computes the cache key
// from the call (see aspect.ExprEnv); when empty the method name and all
// non-context arguments form the key.
func NewCacheResult(size int, keyExpr string) (*CacheResult, error) {
	if size <= 0 {
		return nil, errors.Errorf("cache size %d", size)
	}
	c := &CacheResult{size: size, cache: lru.New(size), keySrc: keyExpr}
	if keyExpr != "" {
		program, err := expr.Compile(keyExpr, expr.AllowUndefinedVariables())
		if err != nil {
			return nil, errors.Wrapf(err, "compile cache key %q", keyExpr)
		}
		c.key = program
	}
	return c, nil
}

func (c *CacheResult) keyOf(jp aspect.Joinpoint) (string, error) {
	if c.key == nil {
		var b strings.Builder
		b.WriteString(jp.FuncName())
		for _, arg := range jp.Params() {
			if _, ok := arg.(context.Context); ok {
				continue
			}
			fmt.Fprintf(&b, "|%#v", arg)
		}
		return b.String(), nil
	}
	out, err := vm.Run(c.key, aspect.ExprEnv(jp.Method(), reflect.TypeOf(jp.Target()), jp.Params()))
	if err != nil {
		return "", errors.Wrapf(err, "cache key %q", c.keySrc)
	}
	return fmt.Sprintf("%s|%v", jp.FuncName(), out), nil
}

func (c *CacheResult) Invoke(pjp aspect.ProceedingJoinpoint) ([]any, error) {
	key, err := c.keyOf(pjp)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if v, ok := c.cache.Get(key); ok {
		c.hits++
		c.mu.Unlock()
		return append([]any(nil), v.([]any)...), nil
	}
	c.misses++
	c.mu.Unlock()

	results, err := pjp.Proceed()
	if err != nil {
		return results, err
	}
	c.mu.Lock()
	c.cache.Add(key, append([]any(nil), results...))
	c.mu.Unlock()
	return results, nil
}

// Stats reports cache hits and misses.
func (c *CacheResult) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *CacheResult) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

func (c *CacheResult) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = lru.New(c.size)
}
