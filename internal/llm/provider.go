package llm

import (
	"context"
)

// Provider is the sole boundary to a text-generation service.
// Implementations return raw text or an unclassified error; callers classify.
type Provider interface {
	// Generate runs one generation call. The provider SHOULD pass Shape to the
	// service as its structured-output constraint, but the text may still arrive
	// wrapped in prose or fences.
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// GenerationRequest contains all parameters needed for one call
type GenerationRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
	Shape        *Shape
	Temperature  float64
}

// GenerationResponse contains the raw result from the service
type GenerationResponse struct {
	RawOutput string `json:"-"`
	Usage     Usage  `json:"usage"`
}

// Usage is token accounting normalized across providers
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// AsMap returns usage in the shape the logger and tracer expect
func (u Usage) AsMap() map[string]interface{} {
	return map[string]interface{}{
		"input_tokens":  u.InputTokens,
		"output_tokens": u.OutputTokens,
		"total_tokens":  u.TotalTokens,
	}
}
