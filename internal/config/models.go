package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	ProviderBedrock = "bedrock"
	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"

	SchemaAnthropic = "anthropic"
	SchemaLlama     = "llama"
	SchemaTitan     = "titan"
)

// ModelConfig describes one model endpoint the question is fanned out to.
type ModelConfig struct {
	Name        string  `yaml:"name"`
	Provider    string  `yaml:"provider"`
	ModelID     string  `yaml:"model_id"`
	Schema      string  `yaml:"schema,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	TopP        float64 `yaml:"top_p,omitempty"`
}

type modelsFile struct {
	Models []ModelConfig `yaml:"models"`
}

// DefaultModels is the catalog used when MODELS_FILE is not set.
func DefaultModels() []ModelConfig {
	return []ModelConfig{
		{
			Name:        "Claude 3.5 Sonnet",
			Provider:    ProviderBedrock,
			ModelID:     "us.anthropic.claude-3-5-sonnet-20241022-v2:0",
			Schema:      SchemaAnthropic,
			MaxTokens:   2000,
			Temperature: 0.7,
		},
		{
			Name:        "Meta Llama 3 70B",
			Provider:    ProviderBedrock,
			ModelID:     "meta.llama3-70b-instruct-v1:0",
			Schema:      SchemaLlama,
			MaxTokens:   2000,
			Temperature: 0.7,
			TopP:        0.9,
		},
		{
			Name:        "Amazon Titan Express",
			Provider:    ProviderBedrock,
			ModelID:     "amazon.titan-text-express-v1",
			Schema:      SchemaTitan,
			MaxTokens:   2000,
			Temperature: 0.7,
			TopP:        0.9,
		},
	}
}

// LoadModels reads a YAML catalog of the form:
//
//	models:
//	  - name: Claude 3.5 Sonnet
//	    provider: bedrock
//	    model_id: us.anthropic.claude-3-5-sonnet-20241022-v2:0
//	    schema: anthropic
func LoadModels(path string) ([]ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f modelsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	for i := range f.Models {
		applyModelDefaults(&f.Models[i])
	}
	return f.Models, nil
}

func applyModelDefaults(m *ModelConfig) {
	if m.MaxTokens == 0 {
		m.MaxTokens = 2000
	}
	if m.Temperature == 0 {
		m.Temperature = 0.7
	}
	if m.TopP == 0 {
		m.TopP = 0.9
	}
}

func (m ModelConfig) validate() error {
	if m.Name == "" {
		return errors.New("name is required")
	}
	if m.ModelID == "" {
		return fmt.Errorf("%s: model_id is required", m.Name)
	}
	switch m.Provider {
	case ProviderBedrock:
		switch m.Schema {
		case SchemaAnthropic, SchemaLlama, SchemaTitan:
		default:
			return fmt.Errorf("%s: unknown bedrock schema %q", m.Name, m.Schema)
		}
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("%s: unknown provider %q", m.Name, m.Provider)
	}
	return nil
}
