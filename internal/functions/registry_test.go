package functions

import (
	"context"
	"errors"
	"testing"
)

func echoHandler(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return args, nil
}

func testSchema(name string) *Schema {
	return &Schema{
		Name:        name,
		Description: "test function " + name,
		Parameters:  &ParameterSpec{Type: "object"},
	}
}

func TestRegisterRejectsBadSchemas(t *testing.T) {
	r := NewRegistry()

	cases := []struct {
		name   string
		key    string
		schema *Schema
	}{
		{"nil schema", "f", nil},
		{"empty name", "f", &Schema{Description: "d", Parameters: &ParameterSpec{Type: "object"}}},
		{"name mismatch", "f", testSchema("g")},
		{"missing description", "f", &Schema{Name: "f", Parameters: &ParameterSpec{Type: "object"}}},
		{"nil parameters", "f", &Schema{Name: "f", Description: "d"}},
		{"non-object parameters", "f", &Schema{Name: "f", Description: "d", Parameters: &ParameterSpec{Type: "array"}}},
		{"blank required entry", "f", &Schema{Name: "f", Description: "d",
			Parameters: &ParameterSpec{Type: "object", Required: []string{" "}}}},
	}

	for _, tc := range cases {
		err := r.Register(tc.key, tc.schema, echoHandler)
		var regErr *RegistrationError
		if !errors.As(err, &regErr) || regErr.Kind != KindSchema {
			t.Errorf("%s: expected SchemaError, got %v", tc.name, err)
		}
	}
}

func TestRegisterRejectsNilHandler(t *testing.T) {
	r := NewRegistry()
	err := r.Register("f", testSchema("f"), nil)
	var regErr *RegistrationError
	if !errors.As(err, &regErr) || regErr.Kind != KindHandler {
		t.Fatalf("expected HandlerError, got %v", err)
	}
}

func TestListSchemasPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		if err := r.Register(name, testSchema(name), echoHandler); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}

	schemas := r.ListSchemas()
	want := []string{"charlie", "alpha", "bravo"}
	if len(schemas) != len(want) {
		t.Fatalf("len = %d, want %d", len(schemas), len(want))
	}
	for i, s := range schemas {
		if s.Name != want[i] {
			t.Errorf("schemas[%d] = %s, want %s", i, s.Name, want[i])
		}
	}

	// Overwriting keeps the original position.
	if err := r.Register("alpha", testSchema("alpha"), echoHandler); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	schemas = r.ListSchemas()
	if schemas[1].Name != "alpha" {
		t.Errorf("re-registration moved alpha to position %d", 1)
	}
	if r.Len() != 3 {
		t.Errorf("Len = %d after overwrite, want 3", r.Len())
	}
}

func TestHasAndUnregister(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("f", testSchema("f"), echoHandler)

	if !r.Has("f") {
		t.Error("Has(f) = false after registration")
	}
	if !r.Unregister("f") {
		t.Error("Unregister(f) = false for registered name")
	}
	if r.Has("f") {
		t.Error("Has(f) = true after unregistration")
	}
	if r.Unregister("f") {
		t.Error("Unregister of unknown name must return false")
	}
	if len(r.ListSchemas()) != 0 {
		t.Error("schemas remain after unregistration")
	}
}

func TestWireSchemasShape(t *testing.T) {
	r := NewRegistry()
	schema := &Schema{
		Name:        "get_weather",
		Description: "Fetch weather",
		Parameters: &ParameterSpec{
			Type: "object",
			Properties: map[string]*Property{
				"city": {Type: "string"},
			},
			Required: []string{"city"},
		},
	}
	_ = r.Register("get_weather", schema, echoHandler)

	wire := r.WireSchemas()
	if len(wire) != 1 {
		t.Fatalf("wire schemas = %d, want 1", len(wire))
	}
	if wire[0]["type"] != "function" {
		t.Errorf("type = %v", wire[0]["type"])
	}
	fn, ok := wire[0]["function"].(map[string]interface{})
	if !ok || fn["name"] != "get_weather" || fn["description"] != "Fetch weather" {
		t.Errorf("function block malformed: %+v", wire[0])
	}
}
