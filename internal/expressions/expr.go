package expressions

import (
	"context"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rendis/n8nview/internal/flow"
)

// ExprEngine compiles expr-lang predicates. The node scope keys are top-level
// variables, so predicates read like
// nodeType contains "googleSheets" && data.sheetName != "N/A".
type ExprEngine struct {
	env      map[string]any
	programs *programCache[*vm.Program]
}

// NewExprEngine creates an Expr engine typed against the node scope.
func NewExprEngine() *ExprEngine {
	e := &ExprEngine{env: NodeScope(flow.DisplayNode{})}
	e.programs = newProgramCache(e.compile)
	return e
}

// Name returns the engine identifier.
func (e *ExprEngine) Name() string {
	return "expr"
}

// Compile checks expression against the node scope shape. Unknown variables
// evaluate to nil instead of failing.
func (e *ExprEngine) Compile(expression string) (Predicate, error) {
	if expression == "" {
		return nil, emptyExpression("expr")
	}
	prg, err := e.programs.get(expression)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, scope map[string]any) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if scope == nil {
			scope = map[string]any{}
		}
		out, err := vm.Run(prg, scope)
		if err != nil {
			return false, expressionError("expr", "evaluation", expression, err)
		}
		ok, err := asBool(out)
		if err != nil {
			return false, expressionError("expr", "evaluation", expression, err)
		}
		return ok, nil
	}, nil
}

func (e *ExprEngine) compile(expression string) (*vm.Program, error) {
	prg, err := expr.Compile(expression,
		expr.Env(e.env),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, expressionError("expr", "compile", expression, err)
	}
	return prg, nil
}

var _ Engine = (*ExprEngine)(nil)
