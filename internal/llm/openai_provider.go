package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Conceptual-Machines/lyricist-api/internal/errs"
	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

const providerNameOpenAI = "openai"

// Reasoning models reject sampling temperature; they get a fixed low effort instead.
var modelsWithReasoning = map[string]bool{
	"gpt-5":      true,
	"gpt-5-mini": true,
	"gpt-5-nano": true,
	"gpt-5.1":    true,
	"gpt-5.2":    true,
	"o3":         true,
	"o3-mini":    true,
	"o4-mini":    true,
}

// OpenAIProvider implements the Provider interface using the OpenAI Responses API
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, opts ...option.RequestOption) *OpenAIProvider {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)
	return &OpenAIProvider{
		client: &client,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate implements one generation call using the Responses API
func (p *OpenAIProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🤖 OPENAI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	params := p.buildRequestParams(request)

	span := transaction.StartChild("openai.api_call")
	resp, err := p.client.Responses.New(ctx, params)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", time.Since(startTime), err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	response, err := p.processResponse(resp)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ OPENAI GENERATION COMPLETED in %v (output: %d chars)", time.Since(startTime), len(response.RawOutput))
	return response, nil
}

func (p *OpenAIProvider) buildRequestParams(request *GenerationRequest) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(request.Prompt, responses.EasyInputMessageRoleUser),
			},
		},
	}

	if request.SystemPrompt != "" {
		params.Instructions = openai.String(request.SystemPrompt)
	}

	if modelsWithReasoning[strings.ToLower(request.Model)] {
		params.Reasoning = shared.ReasoningParam{
			Effort: responses.ReasoningEffortLow,
		}
	} else {
		params.Temperature = openai.Float(request.Temperature)
	}

	if request.Shape != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema(
				request.Shape.Name,
				request.Shape.JSONSchema(),
			),
		}
		log.Printf("📋 JSON SCHEMA CONFIGURED: %s", request.Shape.Name)
	}

	return params
}

func (p *OpenAIProvider) processResponse(resp *responses.Response) (*GenerationResponse, error) {
	if resp == nil {
		return nil, fmt.Errorf("openai returned no response: %w", errs.ErrEmptyOutput)
	}

	textOutput := resp.OutputText()
	log.Printf("📥 OPENAI RESPONSE: output_length=%d, output_items=%d, total_tokens=%d",
		len(textOutput), len(resp.Output), resp.Usage.TotalTokens)

	if strings.TrimSpace(textOutput) == "" {
		return nil, fmt.Errorf("openai response did not include any output text: %w", errs.ErrEmptyOutput)
	}

	return &GenerationResponse{
		RawOutput: textOutput,
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
	}, nil
}
