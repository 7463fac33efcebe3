package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ProviderFactory resolves a provider from a model name and itself satisfies
// Provider, so a stage can switch models between attempts (primary to fallback)
// without knowing which service hosts each one.
type ProviderFactory struct {
	openaiAPIKey string
	geminiAPIKey string

	mu        sync.Mutex
	providers map[string]Provider
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(openaiAPIKey, geminiAPIKey string) *ProviderFactory {
	return &ProviderFactory{
		openaiAPIKey: openaiAPIKey,
		geminiAPIKey: geminiAPIKey,
		providers:    make(map[string]Provider),
	}
}

// Register installs a prebuilt provider under its name, replacing any cached one
func (f *ProviderFactory) Register(provider Provider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers[provider.Name()] = provider
}

// Name returns the provider name
func (f *ProviderFactory) Name() string {
	return "router"
}

// Generate dispatches the request to the provider that hosts request.Model
func (f *ProviderFactory) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	provider, err := f.GetProvider(ctx, request.Model)
	if err != nil {
		return nil, err
	}
	return provider.Generate(ctx, request)
}

// GetProvider returns the provider for the given model, creating it on first use
func (f *ProviderFactory) GetProvider(ctx context.Context, model string) (Provider, error) {
	name, err := ProviderNameForModel(model)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if provider, ok := f.providers[name]; ok {
		return provider, nil
	}

	var provider Provider
	switch name {
	case providerNameGemini:
		if f.geminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key not configured")
		}
		provider, err = NewGeminiProvider(ctx, f.geminiAPIKey)
		if err != nil {
			return nil, err
		}
	case providerNameOpenAI:
		if f.openaiAPIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		provider = NewOpenAIProvider(f.openaiAPIKey)
	}

	f.providers[name] = provider
	return provider, nil
}

// ProviderNameForModel infers the hosting provider from a model name
func ProviderNameForModel(model string) (string, error) {
	modelLower := strings.ToLower(strings.TrimSpace(model))

	switch {
	case modelLower == "":
		return "", fmt.Errorf("model name is required")
	case strings.HasPrefix(modelLower, "gemini"):
		return providerNameGemini, nil
	case strings.HasPrefix(modelLower, "gpt-"),
		strings.HasPrefix(modelLower, "o1"),
		strings.HasPrefix(modelLower, "o3"),
		strings.HasPrefix(modelLower, "o4"):
		return providerNameOpenAI, nil
	default:
		return "", fmt.Errorf("unknown model: %s (allowed prefixes: gemini, gpt-, o1, o3, o4)", model)
	}
}
