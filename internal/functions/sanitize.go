package functions

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Sanitize converts an arbitrary handler return value into a guaranteed
// JSON-serializable form. It enumerates value shapes explicitly and applies
// one fixed rule per shape, never throwing: values that survive a JSON
// round-trip come back deep-equal; everything else degrades to a
// serializable approximation.
func Sanitize(value interface{}) interface{} {
	if value == nil {
		return nil
	}

	if err, ok := value.(error); ok {
		return map[string]interface{}{
			"message": err.Error(),
			"name":    reflect.TypeOf(err).String(),
		}
	}

	// Fast path: most handler results are already plain data.
	if data, err := json.Marshal(value); err == nil {
		var out interface{}
		if json.Unmarshal(data, &out) == nil {
			return out
		}
	}

	return sanitizeValue(reflect.ValueOf(value), make(map[uintptr]bool))
}

func sanitizeValue(v reflect.Value, seen map[uintptr]bool) interface{} {
	if !v.IsValid() {
		return nil
	}

	// Error-shaped values flatten to {message, name}.
	if v.CanInterface() {
		if err, ok := v.Interface().(error); ok && err != nil {
			return map[string]interface{}{
				"message": err.Error(),
				"name":    reflect.TypeOf(err).String(),
			}
		}
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()

	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return "[unserializable:" + v.Kind().String() + "]"

	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return sanitizeValue(v.Elem(), seen)

	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		ptr := v.Pointer()
		if seen[ptr] {
			return "[circular]"
		}
		seen[ptr] = true
		defer delete(seen, ptr)
		return sanitizeValue(v.Elem(), seen)

	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		ptr := v.Pointer()
		if seen[ptr] {
			return "[circular]"
		}
		seen[ptr] = true
		defer delete(seen, ptr)
		return sanitizeSequence(v, seen)

	case reflect.Array:
		return sanitizeSequence(v, seen)

	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		ptr := v.Pointer()
		if seen[ptr] {
			return "[circular]"
		}
		seen[ptr] = true
		defer delete(seen, ptr)

		out := make(map[string]interface{}, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key := fmt.Sprintf("%v", iter.Key().Interface())
			out[key] = sanitizeValue(iter.Value(), seen)
		}
		return out

	case reflect.Struct:
		// Best-effort flatten: exported data fields only, function-valued
		// fields dropped.
		out := make(map[string]interface{})
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			fv := v.Field(i)
			if fv.Kind() == reflect.Func {
				continue
			}
			key := fieldKey(field)
			if key == "" {
				continue
			}
			out[key] = sanitizeValue(fv, seen)
		}
		return out

	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

func sanitizeSequence(v reflect.Value, seen map[uintptr]bool) []interface{} {
	out := make([]interface{}, v.Len())
	for i := 0; i < v.Len(); i++ {
		out[i] = sanitizeValue(v.Index(i), seen)
	}
	return out
}

// fieldKey resolves the output key for a struct field; "" means skip.
func fieldKey(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if tag == "" {
		return field.Name
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			if i == 0 {
				return field.Name
			}
			return tag[:i]
		}
	}
	return tag
}
