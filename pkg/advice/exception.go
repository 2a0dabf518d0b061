package advice

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/go-park/weave/pkg/aspect"
	"github.com/pkg/errors"
)

type ExceptionAction int

const (
	// Swallow discards the error and returns zero results.
	Swallow ExceptionAction = iota
	// Translate replaces the error.
	Translate
	// Return discards the error and returns fixed results.
	Return
)

func (a ExceptionAction) String() string {
	switch a {
	case Swallow:
		return "swallow"
	case Translate:
		return "translate"
	case Return:
		return "return"
	}
	return fmt.Sprintf("ExceptionAction(%d)", int(a))
}

// ExceptionRule handles errors accepted by Match.
type ExceptionRule struct {
	Match     func(err error) bool
	Action    ExceptionAction
	Translate func(jp aspect.Joinpoint, err error) error
	Values    []any
}

var _ aspect.MethodInterceptor = (*ExceptionHandler)(nil)

// ExceptionHandler applies the first rule matching a failed call. Unmatched
// errors pass through unchanged.
type ExceptionHandler struct {
	Rules []ExceptionRule
}

func (h *ExceptionHandler) Invoke(pjp aspect.ProceedingJoinpoint) ([]any, error) {
	results, err := pjp.Proceed()
	if err == nil {
		return results, nil
	}
	for _, rule := range h.Rules {
		if rule.Match != nil && !rule.Match(err) {
			continue
		}
		switch rule.Action {
		case Swallow:
			return nil, nil
		case Return:
			return append([]any(nil), rule.Values...), nil
		case Translate:
			if rule.Translate == nil {
				return results, err
			}
			return results, rule.Translate(pjp, err)
		}
	}
	return results, err
}

// OnError matches errors wrapping target.
func OnError(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

// OnErrorExpr matches errors with a boolean expression over "message" (the
// error text) and "errType" (the dynamic type of the root cause).
func OnErrorExpr(expression string) (func(error) bool, error) {
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, errors.Wrapf(err, "compile %q", expression)
	}
	return func(e error) bool {
		out, err := vm.Run(program, map[string]any{
			"message": e.Error(),
			"errType": fmt.Sprintf("%T", errors.Cause(e)),
		})
		ok, _ := out.(bool)
		return err == nil && ok
	}, nil
}

// TranslateTo wraps matched errors with target, keeping the original message.
func TranslateTo(target error) func(aspect.Joinpoint, error) error {
	return func(jp aspect.Joinpoint, err error) error {
		return errors.Wrapf(target, "%s: %v", jp.FuncName(), err)
	}
}
