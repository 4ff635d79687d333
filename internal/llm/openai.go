package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/josinaldojr/multi-llm-rag/internal/rag"
)

// NewOpenAIClient builds a client for OpenAI or any compatible server
// (LM Studio, vLLM, Ollama's /v1). Local servers accept any key.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	if apiKey == "" {
		apiKey = "not-needed"
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

type OpenAIModel struct {
	client  *openai.Client
	name    string
	modelID string
	params  Params
}

func NewOpenAIModel(client *openai.Client, name, modelID string, p Params) *OpenAIModel {
	return &OpenAIModel{client: client, name: name, modelID: modelID, params: p}
}

func (m *OpenAIModel) Name() string { return m.name }

func (m *OpenAIModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.modelID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   m.params.MaxTokens,
		Temperature: float32(m.params.Temperature),
		TopP:        float32(m.params.TopP),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var _ rag.Model = (*OpenAIModel)(nil)
