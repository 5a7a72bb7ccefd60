// Package builtin registers the stock functions shipped with the agent.
// They go through the same Register call as any user-supplied function and
// carry no special treatment.
package builtin

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/funcall-ai/funcall/internal/functions"
)

// RegisterAll binds every builtin into the registry.
func RegisterAll(r *functions.Registry) error {
	for _, b := range []struct {
		name    string
		schema  *functions.Schema
		handler functions.Handler
	}{
		{"get_current_time", currentTimeSchema(), currentTime},
		{"get_weather", weatherSchema(), weather},
		{"get_location", locationSchema(), location},
		{"calculate", calculateSchema(), calculate},
	} {
		if err := r.Register(b.name, b.schema, b.handler); err != nil {
			return fmt.Errorf("registering %s: %w", b.name, err)
		}
	}
	return nil
}

func currentTimeSchema() *functions.Schema {
	return &functions.Schema{
		Name:        "get_current_time",
		Description: "Get the current date and time, optionally in a specific IANA timezone",
		Parameters: &functions.ParameterSpec{
			Type: "object",
			Properties: map[string]*functions.Property{
				"timezone": {
					Type:        "string",
					Description: "IANA timezone name such as Europe/Oslo; defaults to UTC",
				},
				"format": {
					Type:        "string",
					Description: "Output format",
					Enum:        []interface{}{"iso", "unix", "human"},
				},
			},
		},
	}
}

func currentTime(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	loc := time.UTC
	if tz, ok := args["timezone"].(string); ok && tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("unknown timezone %q", tz)
		}
		loc = parsed
	}

	now := time.Now().In(loc)
	format, _ := args["format"].(string)
	switch format {
	case "unix":
		return map[string]interface{}{"unix": now.Unix(), "timezone": loc.String()}, nil
	case "human":
		return map[string]interface{}{"time": now.Format("Monday, January 2, 2006 at 3:04 PM"), "timezone": loc.String()}, nil
	default:
		return map[string]interface{}{"time": now.Format(time.RFC3339), "timezone": loc.String()}, nil
	}
}

func weatherSchema() *functions.Schema {
	return &functions.Schema{
		Name:        "get_weather",
		Description: "Get the current weather conditions for a city",
		Parameters: &functions.ParameterSpec{
			Type: "object",
			Properties: map[string]*functions.Property{
				"city": {
					Type:        "string",
					Description: "City name",
					MinLength:   functions.Int(1),
					MaxLength:   functions.Int(80),
				},
				"units": {
					Type:        "string",
					Description: "Temperature units",
					Enum:        []interface{}{"celsius", "fahrenheit"},
				},
			},
			Required: []string{"city"},
		},
	}
}

var weatherConditions = []string{"clear", "partly cloudy", "overcast", "light rain", "snow", "fog"}

// weather is a deterministic stub: no upstream weather provider is wired in,
// so conditions derive from a hash of the city name.
func weather(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	city, _ := args["city"].(string)
	units, _ := args["units"].(string)
	if units == "" {
		units = "celsius"
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(city))))
	seed := h.Sum32()

	tempC := int(seed%35) - 5
	temp := tempC
	if units == "fahrenheit" {
		temp = tempC*9/5 + 32
	}

	return map[string]interface{}{
		"city":        city,
		"temperature": temp,
		"units":       units,
		"conditions":  weatherConditions[seed%uint32(len(weatherConditions))],
		"humidity":    int(seed % 100),
	}, nil
}

func locationSchema() *functions.Schema {
	return &functions.Schema{
		Name:        "get_location",
		Description: "Resolve a place name to approximate coordinates",
		Parameters: &functions.ParameterSpec{
			Type: "object",
			Properties: map[string]*functions.Property{
				"query": {
					Type:        "string",
					Description: "Place name to resolve",
					MinLength:   functions.Int(1),
				},
			},
			Required: []string{"query"},
		},
	}
}

var knownPlaces = map[string][2]float64{
	"oslo":     {59.9139, 10.7522},
	"london":   {51.5074, -0.1278},
	"new york": {40.7128, -74.0060},
	"tokyo":    {35.6762, 139.6503},
	"sydney":   {-33.8688, 151.2093},
}

func location(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	query, _ := args["query"].(string)
	key := strings.ToLower(strings.TrimSpace(query))

	if coords, ok := knownPlaces[key]; ok {
		return map[string]interface{}{
			"query":     query,
			"latitude":  coords[0],
			"longitude": coords[1],
			"resolved":  true,
		}, nil
	}
	return map[string]interface{}{"query": query, "resolved": false}, nil
}

func calculateSchema() *functions.Schema {
	return &functions.Schema{
		Name:        "calculate",
		Description: "Perform a basic arithmetic operation on two numbers",
		Parameters: &functions.ParameterSpec{
			Type: "object",
			Properties: map[string]*functions.Property{
				"operation": {
					Type:        "string",
					Description: "Arithmetic operation",
					Enum:        []interface{}{"add", "subtract", "multiply", "divide", "power"},
				},
				"a": {Type: "number", Description: "First operand"},
				"b": {Type: "number", Description: "Second operand"},
			},
			Required:             []string{"operation", "a", "b"},
			AdditionalProperties: functions.Bool(false),
		},
	}
}

func calculate(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	op, _ := args["operation"].(string)
	a, _ := args["a"].(float64)
	b, _ := args["b"].(float64)

	var result float64
	switch op {
	case "add":
		result = a + b
	case "subtract":
		result = a - b
	case "multiply":
		result = a * b
	case "divide":
		if b == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		result = a / b
	case "power":
		result = math.Pow(a, b)
	default:
		return nil, fmt.Errorf("unsupported operation %q", op)
	}

	if math.IsNaN(result) || math.IsInf(result, 0) {
		return nil, fmt.Errorf("result of %s is not a finite number", op)
	}
	return map[string]interface{}{"operation": op, "a": a, "b": b, "result": result}, nil
}
