package rag

import "context"

type EmbeddingsClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Model is one hosted inference endpoint. Implementations translate the
// shared prompt into their own request schema and extract the answer text
// from their own response schema.
type Model interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Retriever returns ranked text fragments relevant to query, best first.
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]string, error)
}
