package expressions

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/rendis/n8nview/pkg/schema"
)

// CELEngine compiles CEL predicates. The node scope is bound to a single
// variable, node: map(string, dyn), so predicates read like
// node.type.contains("gmail").
type CELEngine struct {
	env      *cel.Env
	programs *programCache[cel.Program]
}

// NewCELEngine creates a CEL engine with only the node variable declared.
func NewCELEngine() (*CELEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("node", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	e := &CELEngine{env: env}
	e.programs = newProgramCache(e.compile)
	return e, nil
}

// Name returns the engine identifier.
func (e *CELEngine) Name() string {
	return "cel"
}

// Compile type-checks expression once. Expressions whose static type is
// neither bool nor dyn are rejected before any node is visited.
func (e *CELEngine) Compile(expression string) (Predicate, error) {
	if expression == "" {
		return nil, emptyExpression("CEL")
	}
	prg, err := e.programs.get(expression)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, scope map[string]any) (bool, error) {
		if scope == nil {
			scope = map[string]any{}
		}
		out, _, err := prg.ContextEval(ctx, map[string]any{"node": scope})
		if err != nil {
			return false, expressionError("CEL", "evaluation", expression, err)
		}
		ok, err := asBool(out.Value())
		if err != nil {
			return false, expressionError("CEL", "evaluation", expression, err)
		}
		return ok, nil
	}, nil
}

func (e *CELEngine) compile(expression string) (cel.Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, expressionError("CEL", "compile", expression, issues.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"CEL predicate %q has type %s, want bool", expression, t).
			WithDetails(map[string]any{"expression": expression, "engine": "CEL"})
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, expressionError("CEL", "program", expression, err)
	}
	return prg, nil
}

var _ Engine = (*CELEngine)(nil)
