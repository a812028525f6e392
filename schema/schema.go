// Package schema provides JSON Schema validation for documents.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Mode selects how an object schema treats absent properties.
type Mode int

const (
	// Full enforces "required" and fills in "default" values.
	Full Mode = iota
	// Partial checks only the properties present in the document.
	// Absent properties are neither reported nor defaulted.
	Partial
)

// Validate checks a document against a JSON Schema (draft-07 subset) in
// Full mode. Returns nil if validation passes or the schema is nil; otherwise
// the error is a *ValidationError.
//
// Supported JSON Schema keywords:
//   - type (string, number, integer, boolean, object, array, null)
//   - properties, required, additionalProperties, default
//   - items (for arrays)
//   - minimum, maximum, exclusiveMinimum, exclusiveMaximum
//   - minLength, maxLength, format
//   - minItems, maxItems
//   - enum
func Validate(schema map[string]any, doc map[string]any) error {
	_, err := Evaluate(schema, doc, Full)
	return err
}

// Evaluate validates doc and returns the normalized document: declared
// properties only (unless additionalProperties is true), with defaults applied
// in Full mode. Partial mode relaxes only the top-level object; nested objects
// are always evaluated in Full mode.
func Evaluate(schema map[string]any, doc map[string]any, mode Mode) (map[string]any, error) {
	if schema == nil {
		return doc, nil
	}
	e := &evaluator{}
	out := e.object(schema, doc, "", mode)
	if len(e.issues) > 0 {
		return nil, &ValidationError{Issues: e.issues}
	}
	if m, ok := out.(map[string]any); ok {
		return m, nil
	}
	return doc, nil
}

type evaluator struct {
	issues []Issue
}

func (e *evaluator) fail(path, format string, args ...any) {
	e.issues = append(e.issues, Issue{
		Field:   fieldOf(path),
		Path:    displayPath(path),
		Message: fmt.Sprintf(format, args...),
	})
}

// fieldOf returns the top-level property a path points into.
func fieldOf(path string) string {
	if i := strings.IndexAny(path, ".["); i >= 0 {
		return path[:i]
	}
	return path
}

func displayPath(path string) string {
	if path == "" {
		return "$"
	}
	return path
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

// value validates one value and returns its normalized form.
func (e *evaluator) value(schema map[string]any, value any, path string) any {
	if t, ok := schema["type"].(string); ok {
		if !e.checkType(t, value, path) {
			return value
		}
	}

	if enumList, ok := schema["enum"].([]any); ok {
		if !e.checkEnum(enumList, value, path) {
			return value
		}
	}

	switch v := value.(type) {
	case map[string]any:
		return e.object(schema, v, path, Full)
	case []any:
		return e.array(schema, v, path)
	case string:
		e.str(schema, v, path)
	case float64:
		e.number(schema, v, path)
	case int:
		e.number(schema, float64(v), path)
	case int64:
		e.number(schema, float64(v), path)
	case json.Number:
		f, _ := v.Float64()
		e.number(schema, f, path)
	}
	return value
}

func (e *evaluator) checkType(expected string, value any, path string) bool {
	actual := jsonType(value)
	if expected == "integer" {
		// Accept float64 values that are whole numbers
		if f, ok := value.(float64); ok && f == float64(int64(f)) {
			return true
		}
		if n, ok := value.(json.Number); ok {
			if _, err := n.Int64(); err == nil {
				return true
			}
		}
		if actual != "integer" {
			e.fail(path, "expected type %q, got %q", expected, actual)
			return false
		}
		return true
	}
	if actual != expected {
		// "number" should also accept integer
		if expected == "number" && actual == "integer" {
			return true
		}
		e.fail(path, "expected type %q, got %q", expected, actual)
		return false
	}
	return true
}

func jsonType(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case json.Number:
		return "number"
	case int, int64:
		return "integer"
	default:
		return reflect.TypeOf(v).String()
	}
}

func (e *evaluator) checkEnum(allowed []any, value any, path string) bool {
	for _, a := range allowed {
		if reflect.DeepEqual(a, value) {
			return true
		}
	}
	e.fail(path, "value %v not in enum %v", value, allowed)
	return false
}

func (e *evaluator) object(schema map[string]any, obj map[string]any, path string, mode Mode) any {
	props, _ := schema["properties"].(map[string]any)
	out := make(map[string]any, len(obj))

	// Check required fields
	if mode == Full {
		if reqList, ok := schema["required"].([]any); ok {
			for _, r := range reqList {
				if field, ok := r.(string); ok {
					if _, exists := obj[field]; !exists {
						e.fail(join(path, field), "missing required field %q", field)
					}
				}
			}
		}
	}

	// Validate properties in a stable order so issues are reported deterministically.
	names := make([]string, 0, len(props))
	for field := range props {
		names = append(names, field)
	}
	sort.Strings(names)
	for _, field := range names {
		ps, ok := props[field].(map[string]any)
		if !ok {
			continue
		}
		val, exists := obj[field]
		if !exists {
			if def, ok := ps["default"]; ok && mode == Full {
				out[field] = cloneValue(def)
			}
			continue
		}
		out[field] = e.value(ps, val, join(path, field))
	}

	// Check additionalProperties
	if props == nil {
		for k, v := range obj {
			out[k] = v
		}
		return out
	}
	switch ap := schema["additionalProperties"].(type) {
	case bool:
		var extra []string
		for field, v := range obj {
			if _, defined := props[field]; defined {
				continue
			}
			if ap {
				out[field] = v
				continue
			}
			extra = append(extra, field)
		}
		if len(extra) > 0 {
			sort.Strings(extra)
			e.fail(path, "additional properties not allowed: %s", strings.Join(extra, ", "))
		}
	}
	return out
}

func (e *evaluator) array(schema map[string]any, arr []any, path string) any {
	// minItems
	if v, ok := toFloat(schema["minItems"]); ok {
		if float64(len(arr)) < v {
			e.fail(path, "array length %d is less than minItems %v", len(arr), v)
		}
	}
	// maxItems
	if v, ok := toFloat(schema["maxItems"]); ok {
		if float64(len(arr)) > v {
			e.fail(path, "array length %d is greater than maxItems %v", len(arr), v)
		}
	}
	itemSchema, ok := schema["items"].(map[string]any)
	if !ok {
		return arr
	}
	out := make([]any, len(arr))
	for i, elem := range arr {
		out[i] = e.value(itemSchema, elem, fmt.Sprintf("%s[%d]", path, i))
	}
	return out
}

func (e *evaluator) str(schema map[string]any, s string, path string) {
	if v, ok := toFloat(schema["minLength"]); ok {
		if float64(len(s)) < v {
			e.fail(path, "string length %d is less than minLength %v", len(s), v)
		}
	}
	if v, ok := toFloat(schema["maxLength"]); ok {
		if float64(len(s)) > v {
			e.fail(path, "string length %d is greater than maxLength %v", len(s), v)
		}
	}
	if f, ok := schema["format"].(string); ok {
		if err := checkFormat(f, s); err != nil {
			e.fail(path, "%v", err)
		}
	}
}

func (e *evaluator) number(schema map[string]any, n float64, path string) {
	if v, ok := toFloat(schema["minimum"]); ok {
		if n < v {
			e.fail(path, "%v is less than minimum %v", n, v)
		}
	}
	if v, ok := toFloat(schema["maximum"]); ok {
		if n > v {
			e.fail(path, "%v is greater than maximum %v", n, v)
		}
	}
	if v, ok := toFloat(schema["exclusiveMinimum"]); ok {
		if n <= v {
			e.fail(path, "%v is not greater than exclusiveMinimum %v", n, v)
		}
	}
	if v, ok := toFloat(schema["exclusiveMaximum"]); ok {
		if n >= v {
			e.fail(path, "%v is not less than exclusiveMaximum %v", n, v)
		}
	}
}

func toFloat(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// cloneValue copies a default so callers never share the schema's slices or maps.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	}
	return v
}
