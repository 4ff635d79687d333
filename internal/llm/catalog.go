package llm

import (
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/josinaldojr/multi-llm-rag/internal/config"
	"github.com/josinaldojr/multi-llm-rag/internal/rag"
)

// Backends holds the provider clients a catalog may refer to. Only the
// clients actually used by the catalog need to be set.
type Backends struct {
	Bedrock InvokeModelAPI
	Gemini  *GeminiClient
	OpenAI  *openai.Client
}

// BuildModels turns the model catalog into rag.Models, preserving order.
func BuildModels(catalog []config.ModelConfig, b Backends) ([]rag.Model, error) {
	models := make([]rag.Model, 0, len(catalog))
	for _, mc := range catalog {
		p := Params{MaxTokens: mc.MaxTokens, Temperature: mc.Temperature, TopP: mc.TopP}

		switch mc.Provider {
		case config.ProviderBedrock:
			if b.Bedrock == nil {
				return nil, fmt.Errorf("%s: bedrock client not configured", mc.Name)
			}
			schema, err := SchemaFor(mc.Schema)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", mc.Name, err)
			}
			models = append(models, NewBedrockModel(b.Bedrock, mc.Name, mc.ModelID, schema, p))

		case config.ProviderGemini:
			if b.Gemini == nil {
				return nil, fmt.Errorf("%s: gemini client not configured", mc.Name)
			}
			models = append(models, b.Gemini.Model(mc.Name, mc.ModelID, p))

		case config.ProviderOpenAI:
			if b.OpenAI == nil {
				return nil, fmt.Errorf("%s: openai client not configured", mc.Name)
			}
			models = append(models, NewOpenAIModel(b.OpenAI, mc.Name, mc.ModelID, p))

		default:
			return nil, fmt.Errorf("%s: unknown provider %q", mc.Name, mc.Provider)
		}
	}
	return models, nil
}

// NeedsProvider reports whether any catalog entry uses provider.
func NeedsProvider(catalog []config.ModelConfig, provider string) bool {
	for _, mc := range catalog {
		if mc.Provider == provider {
			return true
		}
	}
	return false
}
