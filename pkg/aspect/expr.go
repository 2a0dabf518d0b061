package aspect

import (
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
)

// ExprEnv is the environment of argument expressions: args, method (name),
// fullName and target (target type name).
func ExprEnv(m Method, targetType reflect.Type, args []any) map[string]any {
	env := map[string]any{
		"args":     args,
		"method":   m.Name(),
		"fullName": m.FullName(),
		"target":   "",
	}
	if targetType != nil {
		env["target"] = targetType.String()
	}
	return env
}

type exprMatcher struct {
	source  string
	program *vm.Program
}

// ExprMethodMatcher is a runtime matcher evaluating a boolean expression over
// the call arguments, e.g. `args[1] > 2 && method == "Div"`.
func ExprMethodMatcher(expression string) (MethodMatcher, error) {
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, errors.Wrapf(err, "compile %q", expression)
	}
	return &exprMatcher{source: expression, program: program}, nil
}

func (e *exprMatcher) Matches(Method, reflect.Type) bool { return true }
func (e *exprMatcher) IsRuntime() bool                  { return true }

func (e *exprMatcher) MatchesArgs(m Method, targetType reflect.Type, args []any) bool {
	out, err := vm.Run(e.program, ExprEnv(m, targetType, args))
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

func (e *exprMatcher) String() string { return e.source }
