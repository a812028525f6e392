package schema

import (
	"errors"
	"strings"
)

// Issue is a single validation failure.
type Issue struct {
	// Field is the top-level property the failure belongs to. Empty for
	// failures on the document itself.
	Field   string `json:"field"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError collects every issue found in a document.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.Path + ": " + is.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields groups issue messages by top-level field.
func (e *ValidationError) Fields() map[string][]string {
	out := make(map[string][]string)
	for _, is := range e.Issues {
		out[is.Field] = append(out[is.Field], is.Message)
	}
	return out
}

// Has reports whether any issue refers to field.
func (e *ValidationError) Has(field string) bool {
	for _, is := range e.Issues {
		if is.Field == field {
			return true
		}
	}
	return false
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
