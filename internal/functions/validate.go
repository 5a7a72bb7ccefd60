package functions

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// validateArguments checks args against spec and returns a human-readable
// reason on the first violation. Validation runs before any timeout is set up
// so a malformed call never consumes execution budget.
func validateArguments(spec *ParameterSpec, args map[string]interface{}) error {
	if spec == nil {
		return nil
	}

	for _, required := range spec.Required {
		if _, ok := args[required]; !ok {
			return fmt.Errorf("missing required parameter: %s", required)
		}
	}

	rejectUnknown := spec.AdditionalProperties != nil && !*spec.AdditionalProperties

	for key, value := range args {
		prop, declared := spec.Properties[key]
		if !declared {
			if rejectUnknown {
				return fmt.Errorf("unexpected parameter: %s", key)
			}
			continue
		}
		if err := validateValue(key, value, prop); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(name string, value interface{}, prop *Property) error {
	if prop == nil {
		return nil
	}

	if prop.Type != "" && !matchesType(value, prop.Type) {
		return fmt.Errorf("parameter %s must be of type %s", name, prop.Type)
	}

	if len(prop.Enum) > 0 && !enumContains(prop.Enum, value) {
		return fmt.Errorf("parameter %s must be one of %s", name, formatEnum(prop.Enum))
	}

	switch v := value.(type) {
	case string:
		if prop.MinLength != nil && len(v) < *prop.MinLength {
			return fmt.Errorf("parameter %s must be at least %d characters", name, *prop.MinLength)
		}
		if prop.MaxLength != nil && len(v) > *prop.MaxLength {
			return fmt.Errorf("parameter %s must be at most %d characters", name, *prop.MaxLength)
		}
		if prop.Pattern != "" {
			re, err := regexp.Compile(prop.Pattern)
			if err != nil {
				return fmt.Errorf("parameter %s has an invalid pattern constraint", name)
			}
			if !re.MatchString(v) {
				return fmt.Errorf("parameter %s does not match pattern %s", name, prop.Pattern)
			}
		}
	case []interface{}:
		if prop.MinItems != nil && len(v) < *prop.MinItems {
			return fmt.Errorf("parameter %s must have at least %d items", name, *prop.MinItems)
		}
		if prop.MaxItems != nil && len(v) > *prop.MaxItems {
			return fmt.Errorf("parameter %s must have at most %d items", name, *prop.MaxItems)
		}
		if prop.Items != nil {
			for i, item := range v {
				if err := validateValue(fmt.Sprintf("%s[%d]", name, i), item, prop.Items); err != nil {
					return err
				}
			}
		}
	case map[string]interface{}:
		if len(prop.Properties) > 0 || len(prop.Required) > 0 {
			nested := &ParameterSpec{Type: "object", Properties: prop.Properties, Required: prop.Required}
			if err := validateArguments(nested, v); err != nil {
				return fmt.Errorf("parameter %s: %s", name, err.Error())
			}
		}
	}

	if num, ok := asNumber(value); ok {
		if prop.Minimum != nil && num < *prop.Minimum {
			return fmt.Errorf("parameter %s must be >= %v", name, *prop.Minimum)
		}
		if prop.Maximum != nil && num > *prop.Maximum {
			return fmt.Errorf("parameter %s must be <= %v", name, *prop.Maximum)
		}
	}

	return nil
}

// matchesType checks a decoded JSON value against a schema type name.
func matchesType(value interface{}, typ string) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		_, ok := asNumber(value)
		return ok
	case "integer":
		num, ok := asNumber(value)
		return ok && num == math.Trunc(num)
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	case "null":
		return value == nil
	default:
		return true
	}
}

func asNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// enumContains compares with numeric normalization so 2 matches 2.0 the way
// JSON-decoded values do.
func enumContains(enum []interface{}, value interface{}) bool {
	valNum, valIsNum := asNumber(value)
	for _, candidate := range enum {
		if candidate == value {
			return true
		}
		if candNum, ok := asNumber(candidate); ok && valIsNum && candNum == valNum {
			return true
		}
	}
	return false
}

func formatEnum(enum []interface{}) string {
	parts := make([]string, 0, len(enum))
	for _, e := range enum {
		parts = append(parts, fmt.Sprintf("%v", e))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
