package rag

import "time"

// Status is the outcome of a single model invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// NoContextPlaceholder stands in for the context when retrieval finds nothing.
const NoContextPlaceholder = "No relevant context found in the knowledge base."

// ModelResult is one model's answer to the shared prompt.
type ModelResult struct {
	Model  string `json:"model"`
	Answer string `json:"answer"`
	Status Status `json:"status"`
}

// AskRequest
// Payload of POST /chat.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse
// One result per configured model plus how much context was found.
type AskResponse struct {
	Question      string        `json:"question"`
	ContextsFound int           `json:"contexts_found"`
	Responses     []ModelResult `json:"responses"`
}

// DocChunk is a piece of an ingested document stored next to its embedding
// in the self-hosted pgvector index.
type DocChunk struct {
	ID         int64     `json:"id"`
	SourceKey  string    `json:"sourceKey"`
	ChunkIndex int       `json:"chunkIndex"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
