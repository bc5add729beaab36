package expressions

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rendis/n8nview/pkg/schema"
)

// Predicate reports whether the node described by scope matches.
type Predicate func(ctx context.Context, scope map[string]any) (bool, error)

// Engine compiles node selection predicates in one expression language.
// Three implementations: CEL, GoJQ and Expr.
type Engine interface {
	Name() string
	Compile(expression string) (Predicate, error)
}

// Registry holds one instance of every engine, keyed by name.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry creates the three built-in engines.
func NewRegistry() (*Registry, error) {
	celEngine, err := NewCELEngine()
	if err != nil {
		return nil, err
	}
	r := &Registry{engines: make(map[string]Engine, 3)}
	for _, e := range []Engine{celEngine, NewExprEngine(), NewGoJQEngine()} {
		r.engines[e.Name()] = e
	}
	return r, nil
}

// Get returns the engine registered under name.
func (r *Registry) Get(name string) (Engine, error) {
	e, ok := r.engines[name]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"unknown expression engine %q: must be one of cel, expr, jq", name)
	}
	return e, nil
}

// Names lists the registered engines in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// programCache memoizes compiled programs by expression text. The panel
// re-runs the same selection on every graph request, so each engine keeps one.
type programCache[T any] struct {
	compile func(expression string) (T, error)

	mu       sync.RWMutex
	programs map[string]T
}

func newProgramCache[T any](compile func(string) (T, error)) *programCache[T] {
	return &programCache[T]{compile: compile, programs: make(map[string]T)}
}

func (c *programCache[T]) get(expression string) (T, error) {
	c.mu.RLock()
	p, ok := c.programs[expression]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.programs[expression]; ok {
		return p, nil
	}
	p, err := c.compile(expression)
	if err != nil {
		return p, err
	}
	c.programs[expression] = p
	return p, nil
}

func (c *programCache[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}

func emptyExpression(engine string) error {
	return schema.NewErrorf(schema.ErrCodeValidation, "empty %s expression", engine)
}

// expressionError reports a failed step (parse, compile, evaluation) of one
// expression.
func expressionError(engine, step, expression string, err error) *schema.ViewError {
	return schema.NewErrorf(schema.ErrCodeExpression,
		"%s %s failed for %q: %s", engine, step, expression, err.Error()).
		WithCause(err).
		WithDetails(map[string]any{"expression": expression, "engine": engine})
}

// asBool interprets a predicate result. Null is false; a list holds when any
// element is true.
func asBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case []any:
		for _, item := range val {
			b, err := asBool(item)
			if err != nil {
				return false, err
			}
			if b {
				return true, nil
			}
		}
		return false, nil
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("result %v (%T) is not a boolean", v, v)
	}
}
