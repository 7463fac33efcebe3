package llm

import (
	"testing"

	"github.com/Conceptual-Machines/lyricist-api/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiProvider_Name(t *testing.T) {
	// We can't create a real client without an API key
	provider := &GeminiProvider{client: nil}
	assert.Equal(t, "gemini", provider.Name())
}

func TestGeminiProvider_BuildContents(t *testing.T) {
	provider := &GeminiProvider{client: nil}

	contents := provider.buildContents("write a song")
	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)
	require.Len(t, contents[0].Parts, 1)
	assert.Equal(t, "write a song", contents[0].Parts[0].Text)
}

func TestGeminiProvider_BuildConfig(t *testing.T) {
	provider := &GeminiProvider{client: nil}

	tests := []struct {
		name       string
		request    *GenerationRequest
		wantSystem bool
		wantSchema bool
	}{
		{
			name:    "plain request",
			request: &GenerationRequest{Model: "gemini-2.5-flash", Prompt: "p", Temperature: 0.7},
		},
		{
			name:       "system prompt and shape",
			request:    &GenerationRequest{Model: "gemini-2.5-flash", SystemPrompt: "sys", Prompt: "p", Shape: &Shape{Name: "s"}},
			wantSystem: true,
			wantSchema: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := provider.buildConfig(tt.request)
			require.NotNil(t, config.Temperature)
			assert.InDelta(t, tt.request.Temperature, float64(*config.Temperature), 0.0001)

			if tt.wantSystem {
				require.NotNil(t, config.SystemInstruction)
				assert.Equal(t, "sys", config.SystemInstruction.Parts[0].Text)
			} else {
				assert.Nil(t, config.SystemInstruction)
			}

			if tt.wantSchema {
				assert.Equal(t, "application/json", config.ResponseMIMEType)
				assert.NotNil(t, config.ResponseSchema)
			} else {
				assert.Empty(t, config.ResponseMIMEType)
				assert.Nil(t, config.ResponseSchema)
			}
		})
	}
}

func TestGeminiProvider_ProcessResponse(t *testing.T) {
	provider := &GeminiProvider{client: nil}

	t.Run("text and usage", func(t *testing.T) {
		result := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "thinking", Thought: true},
					{Text: `{"title":`},
					{Text: `"x"}`},
				}},
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:     10,
				CandidatesTokenCount: 5,
				TotalTokenCount:      15,
			},
		}

		response, err := provider.processResponse(result)
		require.NoError(t, err)
		assert.Equal(t, `{"title":"x"}`, response.RawOutput)
		assert.Equal(t, Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, response.Usage)
	})

	emptyCases := map[string]*genai.GenerateContentResponse{
		"nil result":    nil,
		"no candidates": {},
		"nil content":   {Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}},
		"empty text":    {Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: ""}}}}}},
	}
	for name, result := range emptyCases {
		t.Run(name, func(t *testing.T) {
			_, err := provider.processResponse(result)
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrEmptyOutput)
			assert.Equal(t, errs.KindServer, errs.KindOf(errs.Classify(err)))
		})
	}
}
