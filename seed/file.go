package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// JSONFile reads a JSON array of movie objects, e.g.
//
//	[{"id": "...", "title": "...", ...}, ...]
type JSONFile struct {
	path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

func (f *JSONFile) Load(context.Context) ([]map[string]any, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	var docs []map[string]any
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return docs, nil
}

func (f *JSONFile) Close() error { return nil }

// YAMLFile reads a YAML sequence of movie mappings.
type YAMLFile struct {
	path string
}

func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{path: path}
}

func (f *YAMLFile) Load(context.Context) ([]map[string]any, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	var docs []map[string]any
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	for i, doc := range docs {
		docs[i] = normalizeYAML(doc).(map[string]any)
	}
	return docs, nil
}

func (f *YAMLFile) Close() error { return nil }

// normalizeYAML converts decoded YAML scalars to the types encoding/json
// would produce, so both file formats validate identically.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	}
	return v
}
