// Package agent defines the operation contract shared by all
// specialists: a named, JSON-schema-typed, side-effect-bounded callable
// the LLM may invoke during a reasoning loop.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hrygo/adspilot/ai/core/llm"
)

// Operation is one named data-retrieval or computation function a
// specialist may invoke. Implementations never panic across Run; a
// failed call returns an error which the loop converts to error text.
type Operation interface {
	// Name returns the operation name exposed to the LLM.
	Name() string

	// Description returns the usage description exposed to the LLM.
	Description() string

	// Parameters returns the JSON Schema for the operation's input.
	Parameters() map[string]any

	// Run executes the operation with a JSON argument object.
	Run(ctx context.Context, input string) (string, error)
}

// NativeOperation implements Operation with a direct function.
type NativeOperation struct {
	run         func(ctx context.Context, input string) (string, error)
	params      map[string]any
	name        string
	description string
}

// NewNativeOperation creates an Operation backed by a plain function.
func NewNativeOperation(
	name string,
	description string,
	params map[string]any,
	run func(ctx context.Context, input string) (string, error),
) *NativeOperation {
	return &NativeOperation{
		name:        name,
		description: description,
		params:      params,
		run:         run,
	}
}

func (o *NativeOperation) Name() string               { return o.name }
func (o *NativeOperation) Description() string        { return o.description }
func (o *NativeOperation) Parameters() map[string]any { return o.params }

func (o *NativeOperation) Run(ctx context.Context, input string) (string, error) {
	return o.run(ctx, input)
}

// Registry is a fixed, ordered set of operations owned by one specialist.
type Registry struct {
	ops    []Operation
	byName map[string]Operation
}

// NewRegistry builds a registry. Duplicate names are rejected.
func NewRegistry(ops ...Operation) (*Registry, error) {
	byName := make(map[string]Operation, len(ops))
	for _, op := range ops {
		if op == nil || op.Name() == "" {
			return nil, fmt.Errorf("registry: nil or unnamed operation")
		}
		if _, dup := byName[op.Name()]; dup {
			return nil, fmt.Errorf("registry: duplicate operation %q", op.Name())
		}
		byName[op.Name()] = op
	}
	return &Registry{ops: ops, byName: byName}, nil
}

// Lookup finds an operation by name.
func (r *Registry) Lookup(name string) (Operation, bool) {
	op, ok := r.byName[name]
	return op, ok
}

// Names returns the operation names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.ops))
	for i, op := range r.ops {
		names[i] = op.Name()
	}
	return names
}

// Descriptors converts the registry into LLM tool descriptors.
func (r *Registry) Descriptors() ([]llm.ToolDescriptor, error) {
	descriptors := make([]llm.ToolDescriptor, len(r.ops))
	for i, op := range r.ops {
		paramsBytes, err := json.Marshal(op.Parameters())
		if err != nil {
			slog.Error("registry: marshal operation schema failed", "operation", op.Name(), "error", err)
			return nil, fmt.Errorf("marshal schema for operation %s: %w", op.Name(), err)
		}
		descriptors[i] = llm.ToolDescriptor{
			Name:        op.Name(),
			Description: op.Description(),
			Parameters:  string(paramsBytes),
		}
	}
	return descriptors, nil
}

// ObjectSchema is a helper for building JSON Schema object definitions.
func ObjectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringProp builds a string property schema.
func StringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// IntProp builds an integer property schema.
func IntProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}
