package detector

import (
	"fmt"
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/segmentio/encoding/json"
	"gopkg.in/yaml.v3"

	"github.com/promptshield/promptshield/guardrail"
)

// Schema is a declarative description of an expected JSON value. It
// supports a practical subset of JSON Schema: type, enum, string length
// bounds, numeric bounds, required object keys, nested objects and
// arrays. Object properties are an ordered list so violations are
// reported in schema-declared order.
type Schema struct {
	Type       string
	Enum       []any
	MinLength  *int
	MaxLength  *int
	Minimum    *float64
	Maximum    *float64
	Required   []string
	Properties []SchemaProperty
	Items      *Schema
}

// SchemaProperty is one named entry in an object schema.
type SchemaProperty struct {
	Name   string
	Schema *Schema
}

var schemaTypes = map[string]bool{
	"string": true, "integer": true, "number": true,
	"boolean": true, "array": true, "object": true, "null": true,
}

// check verifies the schema definition itself. Definition errors are
// configuration errors and fault at build time, never at validation time.
func (s *Schema) check(path string) error {
	if s == nil {
		return fmt.Errorf("%s: nil schema", path)
	}
	if s.Type != "" && !schemaTypes[s.Type] {
		return fmt.Errorf("%s: unsupported type %q", path, s.Type)
	}
	if s.MinLength != nil && *s.MinLength < 0 {
		return fmt.Errorf("%s: negative minLength", path)
	}
	if s.MaxLength != nil && *s.MaxLength < 0 {
		return fmt.Errorf("%s: negative maxLength", path)
	}
	for _, p := range s.Properties {
		if err := p.Schema.check(path + "." + p.Name); err != nil {
			return err
		}
	}
	if s.Items != nil {
		if err := s.Items.check(path + "[]"); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalYAML decodes a schema from YAML, preserving the declared
// order of properties (a plain map would lose it).
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("schema: expected mapping, got %s", node.Tag)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "type":
			if err := val.Decode(&s.Type); err != nil {
				return err
			}
		case "enum":
			if err := val.Decode(&s.Enum); err != nil {
				return err
			}
		case "minLength":
			s.MinLength = new(int)
			if err := val.Decode(s.MinLength); err != nil {
				return err
			}
		case "maxLength":
			s.MaxLength = new(int)
			if err := val.Decode(s.MaxLength); err != nil {
				return err
			}
		case "minimum":
			s.Minimum = new(float64)
			if err := val.Decode(s.Minimum); err != nil {
				return err
			}
		case "maximum":
			s.Maximum = new(float64)
			if err := val.Decode(s.Maximum); err != nil {
				return err
			}
		case "required":
			if err := val.Decode(&s.Required); err != nil {
				return err
			}
		case "properties":
			if val.Kind != yaml.MappingNode {
				return fmt.Errorf("schema: properties must be a mapping")
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				sub := &Schema{}
				if err := val.Content[j+1].Decode(sub); err != nil {
					return err
				}
				s.Properties = append(s.Properties, SchemaProperty{
					Name:   val.Content[j].Value,
					Schema: sub,
				})
			}
		case "items":
			s.Items = &Schema{}
			if err := val.Decode(s.Items); err != nil {
				return err
			}
		default:
			return fmt.Errorf("schema: unknown key %q", key.Value)
		}
	}
	return nil
}

// SchemaValidator parses text as JSON and checks the resulting value
// tree against a Schema. A parse failure is a single "json_parse"
// finding; structural checks accumulate every violation across the
// whole tree instead of stopping at the first.
type SchemaValidator struct {
	schema *Schema
	action guardrail.Action
}

// SchemaOption configures a SchemaValidator at creation time.
type SchemaOption func(*SchemaValidator)

// WithSchemaAction sets the action reported when the validator is
// invoked directly.
func WithSchemaAction(action guardrail.Action) SchemaOption {
	return func(v *SchemaValidator) { v.action = action }
}

// NewSchema creates a schema validator. An invalid schema definition is
// a configuration error and is reported here, not at validation time.
func NewSchema(schema *Schema, opts ...SchemaOption) (*SchemaValidator, error) {
	if err := schema.check("$"); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	v := &SchemaValidator{schema: schema, action: guardrail.ActionBlock}
	for _, o := range opts {
		o(v)
	}
	return v, nil
}

func (v *SchemaValidator) Name() string { return "schema" }

func (v *SchemaValidator) Validate(text string) guardrail.Result {
	var data any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return guardrail.Result{
			IsValid:      false,
			Text:         text,
			OriginalText: text,
			Findings: []guardrail.Finding{{
				Validator:   v.Name(),
				Category:    "json_parse",
				Description: fmt.Sprintf("Invalid JSON: %v", err),
				Severity:    1.0,
			}},
			ActionTaken: v.action,
		}
	}

	findings := v.checkValue(data, v.schema, "$")

	action := guardrail.ActionPassthrough
	if len(findings) > 0 {
		action = v.action
	}
	return guardrail.Result{
		IsValid:      len(findings) == 0,
		Text:         text,
		OriginalText: text,
		Findings:     findings,
		ActionTaken:  action,
	}
}

// checkValue walks the value tree pre-order: the node's own constraints
// first, then object properties in schema-declared order, then array
// items by index. A type mismatch stops descent below that node: the
// child constraints would be meaningless against the wrong shape.
func (v *SchemaValidator) checkValue(value any, s *Schema, path string) []guardrail.Finding {
	var findings []guardrail.Finding

	if s.Type != "" && !typeMatches(value, s.Type) {
		return append(findings, v.violation("type_mismatch", 0.9,
			"%s: expected %s, got %s", path, s.Type, jsonTypeName(value)))
	}

	if len(s.Enum) > 0 && !enumContains(s.Enum, value) {
		findings = append(findings, v.violation("enum_mismatch", 0.8,
			"%s: %v not in %v", path, value, s.Enum))
	}

	if str, ok := value.(string); ok {
		n := utf8.RuneCountInString(str)
		if s.MinLength != nil && n < *s.MinLength {
			findings = append(findings, v.violation("min_length", 0.7,
				"%s: length %d < %d", path, n, *s.MinLength))
		}
		if s.MaxLength != nil && n > *s.MaxLength {
			findings = append(findings, v.violation("max_length", 0.7,
				"%s: length %d > %d", path, n, *s.MaxLength))
		}
	}

	if num, ok := value.(float64); ok {
		if s.Minimum != nil && num < *s.Minimum {
			findings = append(findings, v.violation("minimum", 0.7,
				"%s: %v < %v", path, num, *s.Minimum))
		}
		if s.Maximum != nil && num > *s.Maximum {
			findings = append(findings, v.violation("maximum", 0.7,
				"%s: %v > %v", path, num, *s.Maximum))
		}
	}

	if obj, ok := value.(map[string]any); ok && len(s.Properties) > 0 {
		for _, key := range s.Required {
			if _, present := obj[key]; !present {
				findings = append(findings, v.violation("missing_required", 0.9,
					"%s: missing required field '%s'", path, key))
			}
		}
		for _, prop := range s.Properties {
			if child, present := obj[prop.Name]; present {
				findings = append(findings, v.checkValue(child, prop.Schema, path+"."+prop.Name)...)
			}
		}
	}

	if arr, ok := value.([]any); ok && s.Items != nil {
		for i, item := range arr {
			findings = append(findings, v.checkValue(item, s.Items, fmt.Sprintf("%s[%d]", path, i))...)
		}
	}

	return findings
}

func (v *SchemaValidator) violation(category string, severity float64, format string, args ...any) guardrail.Finding {
	return guardrail.Finding{
		Validator:   v.Name(),
		Category:    category,
		Description: fmt.Sprintf(format, args...),
		Severity:    severity,
	}
}

func typeMatches(value any, typ string) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		num, ok := value.(float64)
		return ok && num == math.Trunc(num)
	case "number":
		_, ok := value.(float64)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "null":
		return value == nil
	}
	return false
}

// jsonTypeName names a decoded JSON value for finding descriptions.
func jsonTypeName(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		if v == math.Trunc(v) {
			return "integer"
		}
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return reflect.TypeOf(value).String()
	}
}

// enumContains compares with numeric normalization: YAML-declared enum
// values decode integers as int, while JSON input decodes all numbers
// as float64.
func enumContains(enum []any, value any) bool {
	for _, e := range enum {
		if equalValue(e, value) {
			return true
		}
	}
	return false
}

func equalValue(a, b any) bool {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		return fa == fb
	}
	if aok != bok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
