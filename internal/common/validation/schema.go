package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON Schema document.
type Schema struct {
	schema *gojsonschema.Schema
}

// CompileSchema parses a JSON Schema given as text.
func CompileSchema(schemaJSON string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// MustCompileSchema is CompileSchema for package-level schemas.
func MustCompileSchema(schemaJSON string) *Schema {
	s, err := CompileSchema(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateBytes checks a raw JSON document against the schema.
func (s *Schema) ValidateBytes(doc []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return resultError(result)
}

// ValidateValue checks a Go value (struct, map) against the schema.
func (s *Schema) ValidateValue(v interface{}) error {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(v))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return resultError(result)
}

func resultError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}
	errs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = desc.String()
	}
	return fmt.Errorf("document validation failed: %s", strings.Join(errs, "; "))
}
