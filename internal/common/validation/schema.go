// Package validation checks JSON documents against JSON Schema using gojsonschema. Schemas are
// either built with the typed JSONSchema helpers or supplied as raw schema documents.
package validation

import (
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema is the subset of draft-07 used for job variable contracts.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties"`
}

type Property struct {
	Type        string              `json:"type,omitempty"`
	Description string              `json:"description,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Pattern     *string             `json:"pattern,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	MaxLength   *int                `json:"maxLength,omitempty"`
	Format      string              `json:"format,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Messages flattens the errors into "field: message" strings, sorted for stable output.
func (r *ValidationResult) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Field+": "+e.Message)
	}
	sort.Strings(out)
	return out
}

func (r *ValidationResult) Error() string {
	return strings.Join(r.Messages(), "; ")
}

// ValidateInput validates decoded job variables against a typed schema.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	raw, err := json.Marshal(schema)
	if err != nil {
		return schemaFailure(err)
	}
	return validate(gojsonschema.NewBytesLoader(raw), gojsonschema.NewGoLoader(input))
}

// Validator holds a compiled schema document.
type Validator struct {
	schema *gojsonschema.Schema
}

// Compile parses a raw JSON Schema document.
func Compile(schemaJSON []byte) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// MustCompile is Compile for schemas embedded in the binary.
func MustCompile(schemaJSON []byte) *Validator {
	v, err := Compile(schemaJSON)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks any Go value; it is encoded to JSON first so struct tags apply.
func (v *Validator) Validate(document interface{}) *ValidationResult {
	raw, err := json.Marshal(document)
	if err != nil {
		return schemaFailure(err)
	}
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return schemaFailure(err)
	}
	return toResult(result)
}

func validate(schema, document gojsonschema.JSONLoader) *ValidationResult {
	result, err := gojsonschema.Validate(schema, document)
	if err != nil {
		return schemaFailure(err)
	}
	return toResult(result)
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = joinField(field, prop)
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    errorCode(desc.Type()),
		})
	}
	return out
}

func joinField(parent, child string) string {
	if parent == child || strings.HasSuffix(parent, "."+child) {
		return parent
	}
	if parent == "" || parent == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		return child
	}
	return parent + "." + child
}

func errorCode(kind string) string {
	switch kind {
	case "required":
		return "REQUIRED_FIELD_MISSING"
	case "invalid_type":
		return "INVALID_TYPE"
	case "additional_property_not_allowed":
		return "EXTRA_FIELD"
	case "enum":
		return "INVALID_ENUM_VALUE"
	case "pattern", "format":
		return "PATTERN_MISMATCH"
	case "string_gte", "string_lte":
		return "LENGTH_VIOLATION"
	case "number_gte", "number_lte", "number_gt", "number_lt":
		return "RANGE_VIOLATION"
	}
	return strings.ToUpper(kind)
}

func schemaFailure(err error) *ValidationResult {
	return &ValidationResult{
		Valid:  false,
		Errors: []ValidationError{{Field: "(schema)", Message: err.Error(), Code: "SCHEMA_ERROR"}},
	}
}

func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }

func String(v string) *string { return &v }
