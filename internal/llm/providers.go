package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// ProviderOptions selects and configures a chat model.
type ProviderOptions struct {
	Name    string
	APIKey  string
	Model   string
	BaseURL string
}

// sourceLabels maps provider names to provenance labels.
var sourceLabels = map[string]string{
	"gemini":     "Gemini",
	"googleai":   "Gemini",
	"openai":     "OpenAI",
	"openrouter": "OpenRouter",
}

// SourceLabel returns the provenance label used for answers of a provider.
func SourceLabel(provider string) string {
	if label, ok := sourceLabels[provider]; ok {
		return label
	}
	return provider
}

// NewModel builds the langchaingo model for a provider.
func NewModel(ctx context.Context, opts ProviderOptions) (llms.Model, error) {
	switch opts.Name {
	case "gemini", "googleai":
		return googleai.New(ctx,
			googleai.WithAPIKey(opts.APIKey),
			googleai.WithDefaultModel(opts.Model),
		)
	case "openai", "openrouter":
		oaOpts := []openai.Option{
			openai.WithToken(opts.APIKey),
			openai.WithModel(opts.Model),
		}
		if opts.BaseURL != "" {
			oaOpts = append(oaOpts, openai.WithBaseURL(opts.BaseURL))
		}
		return openai.New(oaOpts...)
	default:
		return nil, fmt.Errorf("provider %s not supported", opts.Name)
	}
}

// NewCompleter builds a LangChain completer for a provider.
func NewCompleter(ctx context.Context, opts ProviderOptions, transcript Transcript) (*LangChain, error) {
	model, err := NewModel(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise %s model: %w", opts.Name, err)
	}
	c := NewLangChain(model, opts.Model, SourceLabel(opts.Name))
	c.Transcript = transcript
	return c, nil
}
