package schema

import (
	"encoding/json"
	"fmt"
)

var knownTypes = map[string]bool{
	"string": true, "number": true, "integer": true, "boolean": true,
	"object": true, "array": true, "null": true,
}

// Compile parses a JSON Schema document and checks that it only uses
// keywords this package understands in a well-formed way. The root must
// describe an object.
func Compile(raw []byte) (map[string]any, error) {
	var s map[string]any
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("schema: invalid JSON: %w", err)
	}
	if t, _ := s["type"].(string); t != "object" {
		return nil, fmt.Errorf("schema: root type must be \"object\", got %v", s["type"])
	}
	if err := check(s, "$"); err != nil {
		return nil, err
	}
	return s, nil
}

// MustCompile is like Compile but panics on error. Use it for schemas
// embedded in the binary, where a bad schema is a programming error.
func MustCompile(raw []byte) map[string]any {
	s, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return s
}

func check(s map[string]any, path string) error {
	if t, ok := s["type"]; ok {
		ts, ok := t.(string)
		if !ok || !knownTypes[ts] {
			return fmt.Errorf("schema: %s: unknown type %v", path, t)
		}
	}
	if f, ok := s["format"]; ok {
		fs, ok := f.(string)
		if !ok {
			return fmt.Errorf("schema: %s: format must be a string", path)
		}
		if _, known := formats[fs]; !known {
			return fmt.Errorf("schema: %s: unknown format %q", path, fs)
		}
	}
	if e, ok := s["enum"]; ok {
		if list, ok := e.([]any); !ok || len(list) == 0 {
			return fmt.Errorf("schema: %s: enum must be a non-empty array", path)
		}
	}
	for _, kw := range []string{"minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum", "minLength", "maxLength", "minItems", "maxItems"} {
		if v, ok := s[kw]; ok {
			if _, ok := toFloat(v); !ok {
				return fmt.Errorf("schema: %s: %s must be a number", path, kw)
			}
		}
	}

	props := map[string]any{}
	if p, ok := s["properties"]; ok {
		pm, ok := p.(map[string]any)
		if !ok {
			return fmt.Errorf("schema: %s: properties must be an object", path)
		}
		props = pm
	}
	for name, p := range props {
		ps, ok := p.(map[string]any)
		if !ok {
			return fmt.Errorf("schema: %s.%s: property schema must be an object", path, name)
		}
		if err := check(ps, path+"."+name); err != nil {
			return err
		}
		if def, ok := ps["default"]; ok {
			if err := Validate(map[string]any{"type": "object", "properties": map[string]any{name: ps}}, map[string]any{name: def}); err != nil {
				return fmt.Errorf("schema: %s.%s: default does not satisfy its own schema: %w", path, name, err)
			}
		}
	}
	if r, ok := s["required"]; ok {
		list, ok := r.([]any)
		if !ok {
			return fmt.Errorf("schema: %s: required must be an array", path)
		}
		for _, f := range list {
			name, ok := f.(string)
			if !ok {
				return fmt.Errorf("schema: %s: required entries must be strings", path)
			}
			if _, declared := props[name]; !declared && len(props) > 0 {
				return fmt.Errorf("schema: %s: required field %q is not declared in properties", path, name)
			}
		}
	}
	if it, ok := s["items"]; ok {
		is, ok := it.(map[string]any)
		if !ok {
			return fmt.Errorf("schema: %s: items must be an object", path)
		}
		if err := check(is, path+"[]"); err != nil {
			return err
		}
	}
	return nil
}
