package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/josinaldojr/multi-llm-rag/internal/rag"
)

// InvokeModelAPI is the subset of the Bedrock runtime client used here.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Params are the sampling settings shared by every backend.
type Params struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Schema translates between the shared prompt and one Bedrock model
// family's native JSON body.
type Schema interface {
	EncodeRequest(prompt string, p Params) ([]byte, error)
	DecodeResponse(body []byte) (string, error)
}

type BedrockModel struct {
	api     InvokeModelAPI
	name    string
	modelID string
	schema  Schema
	params  Params
}

func NewBedrockModel(api InvokeModelAPI, name, modelID string, schema Schema, p Params) *BedrockModel {
	return &BedrockModel{api: api, name: name, modelID: modelID, schema: schema, params: p}
}

func (m *BedrockModel) Name() string { return m.name }

func (m *BedrockModel) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := m.schema.EncodeRequest(prompt, m.params)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	out, err := m.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(m.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("invoking %s: %w", m.modelID, err)
	}

	answer, err := m.schema.DecodeResponse(out.Body)
	if err != nil {
		return "", fmt.Errorf("decoding %s response: %w", m.modelID, err)
	}
	return answer, nil
}

// SchemaFor returns the codec for a catalog schema name.
func SchemaFor(name string) (Schema, error) {
	switch strings.ToLower(name) {
	case "anthropic":
		return AnthropicSchema{}, nil
	case "llama":
		return LlamaSchema{}, nil
	case "titan":
		return TitanSchema{}, nil
	default:
		return nil, fmt.Errorf("unknown bedrock schema %q", name)
	}
}

// AnthropicSchema speaks the Claude Messages API.
type AnthropicSchema struct{}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Messages         []anthropicMessage `json:"messages"`
	Temperature      float64            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (AnthropicSchema) EncodeRequest(prompt string, p Params) ([]byte, error) {
	return json.Marshal(anthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        p.MaxTokens,
		Messages:         []anthropicMessage{{Role: "user", Content: prompt}},
		Temperature:      p.Temperature,
	})
}

func (AnthropicSchema) DecodeResponse(body []byte) (string, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	for _, c := range resp.Content {
		if c.Type == "" || c.Type == "text" {
			return c.Text, nil
		}
	}
	return "", errors.New("response has no text content")
}

// LlamaSchema speaks the Meta Llama prompt/generation API.
type LlamaSchema struct{}

type llamaRequest struct {
	Prompt      string  `json:"prompt"`
	MaxGenLen   int     `json:"max_gen_len"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type llamaResponse struct {
	Generation *string `json:"generation"`
}

func (LlamaSchema) EncodeRequest(prompt string, p Params) ([]byte, error) {
	return json.Marshal(llamaRequest{
		Prompt:      prompt,
		MaxGenLen:   p.MaxTokens,
		Temperature: p.Temperature,
		TopP:        p.TopP,
	})
}

func (LlamaSchema) DecodeResponse(body []byte) (string, error) {
	var resp llamaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if resp.Generation == nil {
		return "", errors.New("response has no generation")
	}
	return *resp.Generation, nil
}

// TitanSchema speaks the Amazon Titan text API.
type TitanSchema struct{}

type titanConfig struct {
	MaxTokenCount int     `json:"maxTokenCount"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"topP"`
}

type titanRequest struct {
	InputText            string      `json:"inputText"`
	TextGenerationConfig titanConfig `json:"textGenerationConfig"`
}

type titanResponse struct {
	Results []struct {
		OutputText string `json:"outputText"`
	} `json:"results"`
}

func (TitanSchema) EncodeRequest(prompt string, p Params) ([]byte, error) {
	return json.Marshal(titanRequest{
		InputText: prompt,
		TextGenerationConfig: titanConfig{
			MaxTokenCount: p.MaxTokens,
			Temperature:   p.Temperature,
			TopP:          p.TopP,
		},
	})
}

func (TitanSchema) DecodeResponse(body []byte) (string, error) {
	var resp titanResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", errors.New("response has no results")
	}
	return resp.Results[0].OutputText, nil
}

var _ rag.Model = (*BedrockModel)(nil)
