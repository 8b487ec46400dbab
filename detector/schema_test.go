package detector

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/promptshield/promptshield/guardrail"
)

func mustSchema(t *testing.T, s *Schema) *SchemaValidator {
	t.Helper()
	v, err := NewSchema(s)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return v
}

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func personSchema() *Schema {
	return &Schema{
		Type:     "object",
		Required: []string{"name"},
		Properties: []SchemaProperty{
			{Name: "name", Schema: &Schema{Type: "string"}},
			{Name: "age", Schema: &Schema{Type: "integer", Minimum: floatPtr(0), Maximum: floatPtr(150)}},
		},
	}
}

func TestSchemaValidDocument(t *testing.T) {
	v := mustSchema(t, personSchema())
	res := v.Validate(`{"name": "Alice"}`)

	if !res.IsValid {
		t.Errorf("expected valid, findings: %v", categories(res.Findings))
	}
	if res.ActionTaken != guardrail.ActionPassthrough {
		t.Errorf("expected passthrough, got %s", res.ActionTaken)
	}
}

func TestSchemaMissingRequired(t *testing.T) {
	v := mustSchema(t, personSchema())
	res := v.Validate(`{"age": 30}`)

	if res.IsValid {
		t.Fatal("expected invalid")
	}
	if !hasCategory(res.Findings, "missing_required") {
		t.Errorf("categories: %v", categories(res.Findings))
	}
	if res.ActionTaken != guardrail.ActionBlock {
		t.Errorf("expected block, got %s", res.ActionTaken)
	}
}

func TestSchemaParseFailureIsASingleFinding(t *testing.T) {
	v := mustSchema(t, personSchema())
	res := v.Validate(`{"name": "Alice"`)

	if res.IsValid {
		t.Fatal("expected invalid")
	}
	if len(res.Findings) != 1 || res.Findings[0].Category != "json_parse" {
		t.Errorf("expected exactly one json_parse finding, got %v", categories(res.Findings))
	}
	// No structural checks run after a parse failure.
	if hasCategory(res.Findings, "missing_required") {
		t.Error("structural findings after parse failure")
	}
}

func TestSchemaTypeMismatchStopsDescent(t *testing.T) {
	v := mustSchema(t, personSchema())
	res := v.Validate(`"just a string"`)

	if len(res.Findings) != 1 || res.Findings[0].Category != "type_mismatch" {
		t.Errorf("expected single type_mismatch, got %v", categories(res.Findings))
	}
	if !strings.Contains(res.Findings[0].Description, "expected object, got string") {
		t.Errorf("description: %s", res.Findings[0].Description)
	}
}

func TestSchemaAccumulatesAllViolations(t *testing.T) {
	v := mustSchema(t, &Schema{
		Type:     "object",
		Required: []string{"id"},
		Properties: []SchemaProperty{
			{Name: "id", Schema: &Schema{Type: "string"}},
			{Name: "level", Schema: &Schema{Type: "string", Enum: []any{"low", "high"}}},
			{Name: "count", Schema: &Schema{Type: "integer", Minimum: floatPtr(1)}},
		},
	})
	res := v.Validate(`{"level": "medium", "count": 0}`)

	want := []string{"missing_required", "enum_mismatch", "minimum"}
	got := categories(res.Findings)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("finding %d = %s, want %s (order must follow schema declaration)", i, got[i], want[i])
		}
	}
}

func TestSchemaStringBounds(t *testing.T) {
	v := mustSchema(t, &Schema{Type: "string", MinLength: intPtr(2), MaxLength: intPtr(5)})

	tests := []struct {
		doc      string
		category string
	}{
		{`"a"`, "min_length"},
		{`"abcdef"`, "max_length"},
		{`"abc"`, ""},
	}
	for _, tt := range tests {
		res := v.Validate(tt.doc)
		if tt.category == "" {
			if res.HasFindings() {
				t.Errorf("%s flagged: %v", tt.doc, categories(res.Findings))
			}
			continue
		}
		if !hasCategory(res.Findings, tt.category) {
			t.Errorf("%s: expected %s, got %v", tt.doc, tt.category, categories(res.Findings))
		}
	}
}

func TestSchemaIntegerVsNumber(t *testing.T) {
	intOnly := mustSchema(t, &Schema{Type: "integer"})
	if res := intOnly.Validate(`30`); res.HasFindings() {
		t.Errorf("30 should satisfy integer: %v", categories(res.Findings))
	}
	if res := intOnly.Validate(`30.5`); !hasCategory(res.Findings, "type_mismatch") {
		t.Errorf("30.5 should not satisfy integer: %v", categories(res.Findings))
	}

	numeric := mustSchema(t, &Schema{Type: "number"})
	if res := numeric.Validate(`30.5`); res.HasFindings() {
		t.Errorf("30.5 should satisfy number: %v", categories(res.Findings))
	}
	// JSON booleans are not numbers.
	if res := numeric.Validate(`true`); !hasCategory(res.Findings, "type_mismatch") {
		t.Errorf("true should not satisfy number: %v", categories(res.Findings))
	}
}

func TestSchemaArrayItems(t *testing.T) {
	v := mustSchema(t, &Schema{
		Type:  "array",
		Items: &Schema{Type: "string", MaxLength: intPtr(3)},
	})
	res := v.Validate(`["ok", "toolong", 7]`)

	got := categories(res.Findings)
	if len(got) != 2 {
		t.Fatalf("findings: %v", got)
	}
	if got[0] != "max_length" || got[1] != "type_mismatch" {
		t.Errorf("expected index-order findings, got %v", got)
	}
	if !strings.Contains(res.Findings[0].Description, "$[1]") {
		t.Errorf("path missing from description: %s", res.Findings[0].Description)
	}
}

func TestSchemaNestedObjects(t *testing.T) {
	v := mustSchema(t, &Schema{
		Type: "object",
		Properties: []SchemaProperty{
			{Name: "user", Schema: personSchema()},
		},
	})
	res := v.Validate(`{"user": {"name": "Bob", "age": 200}}`)

	if !hasCategory(res.Findings, "maximum") {
		t.Errorf("nested bound not checked: %v", categories(res.Findings))
	}
	if !strings.Contains(res.Findings[0].Description, "$.user.age") {
		t.Errorf("nested path wrong: %s", res.Findings[0].Description)
	}
}

func TestSchemaRejectsBadDefinition(t *testing.T) {
	if _, err := NewSchema(&Schema{Type: "tuple"}); err == nil {
		t.Error("unsupported type must fail at build time")
	}
	if _, err := NewSchema(&Schema{
		Type: "object",
		Properties: []SchemaProperty{
			{Name: "x", Schema: &Schema{Type: "whatever"}},
		},
	}); err == nil {
		t.Error("nested bad type must fail at build time")
	}
}

func TestSchemaUnmarshalYAMLPreservesPropertyOrder(t *testing.T) {
	src := `
type: object
required: [id]
properties:
  zebra:
    type: string
  alpha:
    type: integer
  id:
    type: string
`
	var s Schema
	if err := yaml.Unmarshal([]byte(src), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(s.Properties) != 3 {
		t.Fatalf("properties: %d", len(s.Properties))
	}
	order := []string{s.Properties[0].Name, s.Properties[1].Name, s.Properties[2].Name}
	if order[0] != "zebra" || order[1] != "alpha" || order[2] != "id" {
		t.Errorf("declared order lost: %v", order)
	}
	if s.Properties[1].Schema.Type != "integer" {
		t.Errorf("nested type: %s", s.Properties[1].Schema.Type)
	}
}

func TestSchemaUnmarshalYAMLRejectsUnknownKeys(t *testing.T) {
	var s Schema
	err := yaml.Unmarshal([]byte("type: string\npattern: foo\n"), &s)
	if err == nil {
		t.Error("unknown schema key must fail")
	}
}

func TestSchemaEnumWithYAMLIntegers(t *testing.T) {
	var s Schema
	if err := yaml.Unmarshal([]byte("type: integer\nenum: [1, 2, 3]\n"), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	v := mustSchema(t, &s)

	if res := v.Validate(`2`); res.HasFindings() {
		t.Errorf("YAML int enum vs JSON float: %v", categories(res.Findings))
	}
	if res := v.Validate(`9`); !hasCategory(res.Findings, "enum_mismatch") {
		t.Errorf("out-of-enum accepted: %v", categories(res.Findings))
	}
}
