package assist

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// LangChainGenerator adapts a langchaingo model to Generator.
type LangChainGenerator struct {
	model llms.Model
}

// NewGemini returns a generator backed by Google's Gemini API.
func NewGemini(ctx context.Context, apiKey, model string) (*LangChainGenerator, error) {
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &LangChainGenerator{model: llm}, nil
}

// Generate implements Generator.
func (g *LangChainGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g.model, prompt, llms.WithJSONMode())
}
