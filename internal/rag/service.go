package rag

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/josinaldojr/multi-llm-rag/internal/metrics"
)

// ErrEmptyQuestion is returned by Ask for blank questions.
var ErrEmptyQuestion = errors.New("question is required")

const (
	defaultTopK = 5
	defaultWait = 50 * time.Second
)

type Service struct {
	retriever Retriever
	models    []Model
	topK      int
	wait      time.Duration
	logger    *slog.Logger
}

type Option func(*Service)

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithModelTimeout sets the per-model wait budget.
func WithModelTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.wait = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService wires a retriever and the model set. A nil retriever behaves
// like one that never finds anything.
func NewService(retriever Retriever, models []Model, opts ...Option) *Service {
	s := &Service{
		retriever: retriever,
		models:    models,
		topK:      defaultTopK,
		wait:      defaultWait,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Models returns the names of the configured models in fan-out order.
func (s *Service) Models() []string {
	names := make([]string, len(s.models))
	for i, m := range s.models {
		names[i] = m.Name()
	}
	return names
}

func (s *Service) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	q := strings.TrimSpace(req.Question)
	if q == "" {
		return nil, ErrEmptyQuestion
	}

	contexts := s.retrieve(ctx, q)
	contextText := JoinContexts(contexts)

	responses := s.Aggregate(ctx, q, contextText)

	return &AskResponse{
		Question:      q,
		ContextsFound: len(contexts),
		Responses:     responses,
	}, nil
}

// retrieve never fails: a retrieval error is logged and treated as an empty
// result so the models still answer without context.
func (s *Service) retrieve(ctx context.Context, q string) []string {
	if s.retriever == nil {
		return nil
	}

	s.logger.Info("retrieving context", "question", q, "max_results", s.topK)
	contexts, err := s.retriever.Retrieve(ctx, q, s.topK)
	if err != nil {
		s.logger.Error("retrieval failed", "error", err)
		metrics.ContextsRetrieved.Observe(0)
		return nil
	}

	out := make([]string, 0, len(contexts))
	for _, c := range contexts {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	s.logger.Info("retrieved context chunks", "count", len(out))
	metrics.ContextsRetrieved.Observe(float64(len(out)))
	return out
}
