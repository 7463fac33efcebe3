package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func testShape() Shape {
	return Shape{
		Name:        "critics_consensus",
		Description: "Debate among personas",
		Fields: []Field{
			{
				Name:     "debate_summary",
				Kind:     KindArray,
				Required: true,
				Item: &Field{Kind: KindObject, Fields: []Field{
					{Name: "persona", Kind: KindString, Required: true},
					{Name: "verdict", Kind: KindEnum, Required: true, EnumValues: []string{"APPROVE", "REJECT"}},
				}},
			},
			{Name: "score", Kind: KindInt},
			{Name: "final_verdict", Kind: KindEnum, Required: true, EnumValues: []string{"READY", "REWRITE"}},
		},
	}
}

func TestShape_RequiredFields(t *testing.T) {
	assert.Equal(t, []string{"debate_summary", "final_verdict"}, testShape().RequiredFields())
}

func TestShape_JSONSchema(t *testing.T) {
	schema := testShape().JSONSchema()

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, []string{"debate_summary", "final_verdict"}, schema["required"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, props, 3)

	score := props["score"].(map[string]any)
	assert.Equal(t, "integer", score["type"])

	verdict := props["final_verdict"].(map[string]any)
	assert.Equal(t, []string{"READY", "REWRITE"}, verdict["enum"])

	debate := props["debate_summary"].(map[string]any)
	assert.Equal(t, "array", debate["type"])
	items := debate["items"].(map[string]any)
	assert.Equal(t, "object", items["type"])
	assert.Equal(t, []string{"persona", "verdict"}, items["required"])
}

func TestShape_GeminiSchema(t *testing.T) {
	schema := testShape().GeminiSchema()

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, "Debate among personas", schema.Description)
	assert.Equal(t, []string{"debate_summary", "score", "final_verdict"}, schema.PropertyOrdering)
	assert.Equal(t, []string{"debate_summary", "final_verdict"}, schema.Required)

	assert.Equal(t, genai.TypeInteger, schema.Properties["score"].Type)
	assert.Equal(t, []string{"READY", "REWRITE"}, schema.Properties["final_verdict"].Enum)

	debate := schema.Properties["debate_summary"]
	assert.Equal(t, genai.TypeArray, debate.Type)
	require.NotNil(t, debate.Items)
	assert.Equal(t, genai.TypeObject, debate.Items.Type)
	assert.Contains(t, debate.Items.Properties, "persona")
}

func TestShape_Describe(t *testing.T) {
	text := testShape().Describe()

	assert.Contains(t, text, "critics_consensus")
	assert.Contains(t, text, "- debate_summary (array of object, required)")
	assert.Contains(t, text, "    - verdict (enum, required) one of: APPROVE | REJECT")
	assert.Contains(t, text, "- score (int, optional)")
	assert.NotContains(t, text, "\n\n")
}
