package functions

import (
	"strings"
	"sync"
)

// record binds one schema to one handler. Created at registration time and
// immutable afterwards; replaced wholesale on re-registration.
type record struct {
	schema  *Schema
	handler Handler
}

// Registry is the authoritative name-to-contract mapping. It exclusively owns
// all records; handlers are opaque capability tokens, never shared back out.
// Registration is expected during setup; the lock makes concurrent
// registration and dispatch safe regardless.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*record
	order   []string
}

// NewRegistry creates an empty function registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*record)}
}

// Register binds schema and handler under name, overwriting any prior binding
// while keeping its registration position.
func (r *Registry) Register(name string, schema *Schema, handler Handler) error {
	if err := checkSchema(name, schema); err != nil {
		return err
	}
	if handler == nil {
		return &RegistrationError{Kind: KindHandler, Message: "handler must be callable"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = &record{schema: schema, handler: handler}
	return nil
}

func checkSchema(name string, schema *Schema) error {
	if schema == nil {
		return &RegistrationError{Kind: KindSchema, Message: "schema is required"}
	}
	if strings.TrimSpace(schema.Name) == "" {
		return &RegistrationError{Kind: KindSchema, Message: "schema name is required"}
	}
	if schema.Name != name {
		return &RegistrationError{Kind: KindSchema,
			Message: "schema name " + schema.Name + " does not match registry key " + name}
	}
	if strings.TrimSpace(schema.Description) == "" {
		return &RegistrationError{Kind: KindSchema, Message: "schema description is required"}
	}
	if schema.Parameters == nil {
		return &RegistrationError{Kind: KindSchema, Message: "schema parameters are required"}
	}
	if schema.Parameters.Type != "object" {
		return &RegistrationError{Kind: KindSchema,
			Message: "parameters type must be object, got " + schema.Parameters.Type}
	}
	for _, req := range schema.Parameters.Required {
		if strings.TrimSpace(req) == "" {
			return &RegistrationError{Kind: KindSchema, Message: "required list contains an empty name"}
		}
	}
	return nil
}

// Has reports whether a function is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Unregister removes a binding. Removing an unknown name is a no-op
// returning false.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return false
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// ListSchemas returns all registered schemas in registration order.
func (r *Registry) ListSchemas() []*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schemas := make([]*Schema, 0, len(r.order))
	for _, name := range r.order {
		schemas = append(schemas, r.entries[name].schema)
	}
	return schemas
}

// WireSchemas converts the registered schemas to the shape advertised to the
// completion endpoint.
func (r *Registry) WireSchemas() []map[string]interface{} {
	schemas := r.ListSchemas()
	wire := make([]map[string]interface{}, 0, len(schemas))
	for _, s := range schemas {
		wire = append(wire, map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        s.Name,
				"description": s.Description,
				"parameters":  s.Parameters,
			},
		})
	}
	return wire
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) lookup(name string) (*record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.entries[name]
	return rec, ok
}
