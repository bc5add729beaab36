package expressions

import (
	"context"

	"github.com/itchyny/gojq"
)

// GoJQEngine compiles jq predicates. The node scope is the jq input, so
// predicates read like .category == "email". A predicate with several outputs
// holds when any of them is true.
type GoJQEngine struct {
	programs *programCache[*gojq.Code]
}

// NewGoJQEngine creates a jq engine.
func NewGoJQEngine() *GoJQEngine {
	return &GoJQEngine{programs: newProgramCache(compileJQ)}
}

// Name returns the engine identifier.
func (e *GoJQEngine) Name() string {
	return "jq"
}

// Compile parses and compiles expression once.
func (e *GoJQEngine) Compile(expression string) (Predicate, error) {
	if expression == "" {
		return nil, emptyExpression("jq")
	}
	code, err := e.programs.get(expression)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, scope map[string]any) (bool, error) {
		outputs, err := runJQ(ctx, code, scope)
		if err != nil {
			return false, expressionError("jq", "evaluation", expression, err)
		}
		ok, err := asBool(outputs)
		if err != nil {
			return false, expressionError("jq", "evaluation", expression, err)
		}
		return ok, nil
	}, nil
}

// runJQ collects every output of code. The first error output stops the run.
func runJQ(ctx context.Context, code *gojq.Code, input map[string]any) ([]any, error) {
	var in any = input
	if input == nil {
		in = map[string]any{}
	}
	iter := code.RunWithContext(ctx, in)
	var outputs []any
	for {
		v, ok := iter.Next()
		if !ok {
			return outputs, nil
		}
		if err, isErr := v.(error); isErr {
			return nil, err
		}
		outputs = append(outputs, v)
	}
}

func compileJQ(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, expressionError("jq", "parse", expression, err)
	}
	// An empty environment keeps $ENV and env from reading the process.
	code, err := gojq.Compile(query, gojq.WithEnvironLoader(func() []string { return nil }))
	if err != nil {
		return nil, expressionError("jq", "compile", expression, err)
	}
	return code, nil
}

var _ Engine = (*GoJQEngine)(nil)
