package functions

import "context"

// Handler executes one registered function. It receives arguments already
// validated against the function's schema and returns any JSON-serializable
// value. Errors are converted to ExecutionResult failures by the registry.
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Schema is the declarative contract for one callable function. Name must
// equal the registry key the schema is stored under.
type Schema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  *ParameterSpec `json:"parameters"`
}

// ParameterSpec describes the arguments object. Type must be "object".
type ParameterSpec struct {
	Type                 string               `json:"type"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	Required             []string             `json:"required,omitempty"`
	AdditionalProperties *bool                `json:"additionalProperties,omitempty"`
}

// Property constrains a single named argument.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []interface{}        `json:"enum,omitempty"`
	Minimum     *float64             `json:"minimum,omitempty"`
	Maximum     *float64             `json:"maximum,omitempty"`
	MinLength   *int                 `json:"minLength,omitempty"`
	MaxLength   *int                 `json:"maxLength,omitempty"`
	Pattern     string               `json:"pattern,omitempty"`
	MinItems    *int                 `json:"minItems,omitempty"`
	MaxItems    *int                 `json:"maxItems,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

// Helpers for building schemas without pointer noise at call sites.

func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
func Bool(v bool) *bool        { return &v }
