package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/josinaldojr/multi-llm-rag/internal/rag"
	"google.golang.org/genai"
)

const embeddingModel = "models/text-embedding-004"

type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{client: c}, nil
}

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	clean := normalizeWhitespace(text)
	if clean == "" {
		return nil, fmt.Errorf("empty text for embedding")
	}

	resp, err := g.client.Models.EmbedContent(
		ctx,
		embeddingModel,
		genai.Text(clean),
		&genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(rag.EmbeddingDim)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini embed error: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	values := resp.Embeddings[0].Values
	if len(values) != rag.EmbeddingDim {
		return nil, fmt.Errorf("unexpected embedding size %d (expected %d)", len(values), rag.EmbeddingDim)
	}

	out := make([]float32, rag.EmbeddingDim)
	copy(out, values)
	return out, nil
}

// Model returns a rag.Model answering with the given Gemini model.
func (g *GeminiClient) Model(name, modelID string, p Params) *GeminiModel {
	return &GeminiModel{client: g.client, name: name, modelID: modelID, params: p}
}

type GeminiModel struct {
	client  *genai.Client
	name    string
	modelID string
	params  Params
}

func (m *GeminiModel) Name() string { return m.name }

func (m *GeminiModel) Generate(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(m.params.MaxTokens),
		Temperature:     genai.Ptr(float32(m.params.Temperature)),
		TopP:            genai.Ptr(float32(m.params.TopP)),
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.modelID, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generateContent error: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	txt := strings.TrimSpace(resp.Text())
	if txt == "" {
		return "", fmt.Errorf("model returned empty text")
	}
	return txt, nil
}

// -------- helpers --------

func normalizeWhitespace(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			if !space {
				b.WriteRune(' ')
				space = true
			}
		} else {
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}

var _ rag.EmbeddingsClient = (*GeminiClient)(nil)
var _ rag.Model = (*GeminiModel)(nil)
