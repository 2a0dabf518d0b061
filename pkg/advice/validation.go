package advice

import (
	"fmt"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/go-park/weave/pkg/aspect"
	"github.com/pkg/errors"
)

// ValidationError reports the first argument rule a call violated.
type ValidationError struct {
	Method  string
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: invalid arguments: %s", e.Method, e.Message)
	}
	return fmt.Sprintf("%s: invalid arguments: %s", e.Method, e.Rule)
}

// ValidationRule is a boolean expression over aspect.ExprEnv that must hold
// before the call proceeds.
type ValidationRule struct {
	Expr    string `mapstructure:"expr" yaml:"expr"`
	Message string `mapstructure:"message" yaml:"message"`
}

type compiledRule struct {
	ValidationRule
	program *vm.Program
}

var _ aspect.BeforeAdvice = (*Validation)(nil)

type Validation struct {
	rules []compiledRule
}

func NewValidation(rules ...ValidationRule) (*Validation, error) {
	v := &Validation{}
	for _, r := range rules {
		program, err := expr.Compile(r.Expr, expr.AllowUndefinedVariables(), expr.AsBool())
		if err != nil {
			return nil, errors.Wrapf(err, "compile validation rule %q", r.Expr)
		}
		v.rules = append(v.rules, compiledRule{ValidationRule: r, program: program})
	}
	return v, nil
}

func (v *Validation) Before(jp aspect.Joinpoint) error {
	env := aspect.ExprEnv(jp.Method(), reflect.TypeOf(jp.Target()), jp.Params())
	for _, r := range v.rules {
		out, err := vm.Run(r.program, env)
		if err != nil {
			return &ValidationError{Method: jp.FuncName(), Rule: r.Expr, Message: err.Error()}
		}
		if ok, _ := out.(bool); !ok {
			return &ValidationError{Method: jp.FuncName(), Rule: r.Expr, Message: r.Message}
		}
	}
	return nil
}
