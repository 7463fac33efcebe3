package llm

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// FieldKind is the primitive kind of a shape field
type FieldKind string

const (
	KindString FieldKind = "string"
	KindInt    FieldKind = "int"
	KindEnum   FieldKind = "enum"
	KindArray  FieldKind = "array"
	KindObject FieldKind = "object"
)

// Field describes one member of a structured output document
type Field struct {
	Name        string
	Kind        FieldKind
	Required    bool
	Description string
	EnumValues  []string
	Item        *Field  // element shape for KindArray
	Fields      []Field // members for KindObject
}

// Shape is the output-shape descriptor requested from the generation service
type Shape struct {
	Name        string
	Description string
	Fields      []Field
}

// RequiredFields returns the names of the required top-level fields in order
func (s Shape) RequiredFields() []string {
	return requiredNames(s.Fields)
}

func requiredNames(fields []Field) []string {
	var out []string
	for _, f := range fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// JSONSchema converts the shape to a JSON Schema object (OpenAI text format)
func (s Shape) JSONSchema() map[string]any {
	return objectJSONSchema(s.Fields, s.Description)
}

func objectJSONSchema(fields []Field, description string) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f.Name] = fieldJSONSchema(f)
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if required := requiredNames(fields); len(required) > 0 {
		schema["required"] = required
	}
	if description != "" {
		schema["description"] = description
	}
	return schema
}

func fieldJSONSchema(f Field) map[string]any {
	var schema map[string]any
	switch f.Kind {
	case KindInt:
		schema = map[string]any{"type": "integer"}
	case KindEnum:
		schema = map[string]any{"type": "string", "enum": f.EnumValues}
	case KindArray:
		items := map[string]any{"type": "string"}
		if f.Item != nil {
			items = fieldJSONSchema(*f.Item)
		}
		schema = map[string]any{"type": "array", "items": items}
	case KindObject:
		schema = objectJSONSchema(f.Fields, "")
	default:
		schema = map[string]any{"type": "string"}
	}
	if f.Description != "" {
		schema["description"] = f.Description
	}
	return schema
}

// GeminiSchema converts the shape to Gemini's response schema
func (s Shape) GeminiSchema() *genai.Schema {
	schema := objectGeminiSchema(s.Fields)
	schema.Description = s.Description
	return schema
}

func objectGeminiSchema(fields []Field) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(fields)),
		Required:   requiredNames(fields),
	}
	for _, f := range fields {
		schema.Properties[f.Name] = fieldGeminiSchema(f)
		schema.PropertyOrdering = append(schema.PropertyOrdering, f.Name)
	}
	return schema
}

func fieldGeminiSchema(f Field) *genai.Schema {
	var schema *genai.Schema
	switch f.Kind {
	case KindInt:
		schema = &genai.Schema{Type: genai.TypeInteger}
	case KindEnum:
		schema = &genai.Schema{Type: genai.TypeString, Format: "enum", Enum: f.EnumValues}
	case KindArray:
		items := &genai.Schema{Type: genai.TypeString}
		if f.Item != nil {
			items = fieldGeminiSchema(*f.Item)
		}
		schema = &genai.Schema{Type: genai.TypeArray, Items: items}
	case KindObject:
		schema = objectGeminiSchema(f.Fields)
	default:
		schema = &genai.Schema{Type: genai.TypeString}
	}
	schema.Description = f.Description
	return schema
}

// Describe renders the shape as plain text for inclusion in an instruction payload
func (s Shape) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Return ONLY one JSON object (%s) with these fields:\n", s.Name)
	describeFields(&b, s.Fields, 1)
	return strings.TrimRight(b.String(), "\n")
}

func describeFields(b *strings.Builder, fields []Field, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, f := range fields {
		req := "optional"
		if f.Required {
			req = "required"
		}
		fmt.Fprintf(b, "%s- %s (%s, %s)", indent, f.Name, kindLabel(f), req)
		if len(f.EnumValues) > 0 {
			fmt.Fprintf(b, " one of: %s", strings.Join(f.EnumValues, " | "))
		}
		if f.Description != "" {
			fmt.Fprintf(b, ": %s", f.Description)
		}
		b.WriteString("\n")
		switch {
		case f.Kind == KindObject:
			describeFields(b, f.Fields, depth+1)
		case f.Kind == KindArray && f.Item != nil && f.Item.Kind == KindObject:
			describeFields(b, f.Item.Fields, depth+1)
		}
	}
}

func kindLabel(f Field) string {
	if f.Kind == KindArray && f.Item != nil {
		return "array of " + kindLabel(*f.Item)
	}
	if f.Kind == "" {
		return string(KindString)
	}
	return string(f.Kind)
}
