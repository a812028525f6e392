package schema

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// formats maps JSON Schema "format" names onto validator tags.
var formats = map[string]string{
	"uri":       "url",
	"url":       "url",
	"email":     "email",
	"uuid":      "uuid",
	"hostname":  "hostname",
	"ipv4":      "ipv4",
	"ipv6":      "ipv6",
	"date-time": "datetime=2006-01-02T15:04:05Z07:00",
}

var formatValidator = validator.New()

func checkFormat(format, s string) error {
	tag, ok := formats[format]
	if !ok {
		return fmt.Errorf("unknown format %q", format)
	}
	if err := formatValidator.Var(s, tag); err != nil {
		return fmt.Errorf("%q is not a valid %s", s, format)
	}
	return nil
}
