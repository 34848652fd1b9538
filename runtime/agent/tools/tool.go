// Package tools defines the tool contract, registry, and dispatcher used
// by the run state machine to execute model-requested tool calls.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/agentkit/runtime/runtime/agent/model"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Ident is the strong type for a fully qualified tool identifier, used in
// maps and APIs to avoid accidental mixing with free-form strings.
type Ident string

// Tool is implemented by every tool exposed to a model. Execute receives
// already-repaired, canonical JSON arguments (see
// message.ToolCallArgs.ToJSONBytes) and returns a JSON-compatible result or
// an *Error.
type Tool interface {
	Name() string
	Description() string
	// InputSchema returns the tool's JSON Schema as a decoded document
	// (map[string]any or equivalent), or nil if the tool accepts arbitrary
	// input.
	InputSchema() any
	Execute(ctx context.Context, args json.RawMessage) (any, error)
	// MaxRetries returns how many additional attempts dispatchOne should
	// make after a retryable failure before giving up and converting the
	// error into a RetryPromptPart. Zero means no per-tool retry.
	MaxRetries() int
}

// Registry holds the tools available to a run. It is safe for concurrent
// use after construction.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// Register adds t to the registry, compiling its input schema (if any) up
// front so dispatch-time validation never pays compilation cost. It
// returns an error if t's schema fails to compile or a tool with the same
// name is already registered.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}

	if schemaDoc := t.InputSchema(); schemaDoc != nil {
		resourceID := "tool://" + name
		c := jsonschema.NewCompiler()
		if err := c.AddResource(resourceID, schemaDoc); err != nil {
			return fmt.Errorf("add schema resource for tool %q: %w", name, err)
		}
		schema, err := c.Compile(resourceID)
		if err != nil {
			return fmt.Errorf("compile schema for tool %q: %w", name, err)
		}
		r.schemas[name] = schema
	}

	r.tools[name] = t
	return nil
}

// Lookup returns the tool registered under name, if any.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Validate checks args against the compiled schema for name, if one was
// registered. Tools with no schema accept any argument shape.
func (r *Registry) Validate(name string, args json.RawMessage) *Error {
	r.mu.RLock()
	schema, ok := r.schemas[name]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return New(KindInvalidArguments, fmt.Sprintf("decode arguments: %v", err))
	}
	if err := schema.Validate(decoded); err != nil {
		issues := issuesFromValidationError(err)
		te := New(KindInvalidArguments, err.Error())
		te.Issues = issues
		return te
	}
	return nil
}

// Definitions returns model.ToolDefinition values for every registered
// tool, suitable for inclusion in a model.ModelRequestParameters.
func (r *Registry) Definitions() []model.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]model.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return defs
}

func issuesFromValidationError(err error) []FieldIssue {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil
	}
	var issues []FieldIssue
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			field := "/"
			if len(v.InstanceLocation) > 0 {
				field = "/" + joinPointer(v.InstanceLocation)
			}
			issues = append(issues, FieldIssue{Field: field, Constraint: v.Error()})
			return
		}
		for _, c := range v.Causes {
			walk(c)
		}
	}
	walk(ve)
	return issues
}

func joinPointer(segments []string) string {
	out := ""
	for i, s := range segments {
		if i > 0 {
			out += "/"
		}
		out += s
	}
	return out
}
