// Package registry maps operator names to the factories that build them
// from declarative config, the way fdf_sdk::OperatorRegistry does in the
// Rust original this module was distilled from.
package registry

import (
	"fmt"

	"github.com/duoan/fdf/internal/monitor/errors"
	"github.com/duoan/fdf/internal/operator"
)

// Factory builds an Operator from an arbitrary YAML-decoded config value.
type Factory func(config interface{}) (operator.Operator, error)

// ErrUnknownOperator is returned by Build when no factory is registered
// under the requested name.
type ErrUnknownOperator struct {
	Name string
}

func (e *ErrUnknownOperator) Error() string {
	return fmt.Sprintf("registry: unknown operator %q", e.Name)
}

// Registry is a name → Factory map. It is populated once at program
// startup and never mutated again during execution (§5: "the registry is
// read-only after construction").
type Registry struct {
	factories map[string]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory, 32)}
}

// Register adds a factory under name, overwriting any previous registration
// — callers are expected to do this once, at startup, before the registry
// is handed to the plan compiler.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Has reports whether name has a registered factory.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Build constructs an operator by name, returning *ErrUnknownOperator or an
// *errors.ConfigError (wrapping whatever the factory returned) on failure.
func (r *Registry) Build(name string, config interface{}) (operator.Operator, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, &ErrUnknownOperator{Name: name}
	}

	op, err := factory(config)
	if err != nil {
		return nil, errors.Config(name, err)
	}
	return op, nil
}
