package movie

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stevemurr/movie-catalog/schema"
)

//go:embed schema.json
var schemaJSON []byte

// Schema is the compiled movie schema shared by full and partial validation.
var Schema = schema.MustCompile(schemaJSON)

// ValidateFull checks input as a complete movie. Every required field must be
// present and rate defaults to 1. Any "id" in input is ignored. On failure the
// error is a *schema.ValidationError.
func ValidateFull(input map[string]any) (Movie, error) {
	doc, err := schema.Evaluate(Schema, input, schema.Full)
	if err != nil {
		return Movie{}, err
	}
	var m Movie
	if err := decode(doc, &m); err != nil {
		return Movie{}, err
	}
	return m, nil
}

// ValidatePartial checks only the fields present in input. An empty input
// yields an empty Patch. On failure the error is a *schema.ValidationError.
func ValidatePartial(input map[string]any) (Patch, error) {
	doc, err := schema.Evaluate(Schema, input, schema.Partial)
	if err != nil {
		return Patch{}, err
	}
	var p Patch
	if err := decode(doc, &p); err != nil {
		return Patch{}, err
	}
	return p, nil
}

// decode moves a validated document into a typed value.
func decode(doc map[string]any, v any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("movie: encode validated document: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		// Numbers that pass the schema but overflow the Go field type.
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) {
			return &schema.ValidationError{Issues: []schema.Issue{{
				Field:   te.Field,
				Path:    te.Field,
				Message: fmt.Sprintf("value %s is out of range for %s", te.Value, te.Type),
			}}}
		}
		return fmt.Errorf("movie: decode validated document: %w", err)
	}
	return nil
}
