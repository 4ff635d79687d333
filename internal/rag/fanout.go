package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/josinaldojr/multi-llm-rag/internal/metrics"
)

// Aggregate sends the shared prompt to every configured model at once and
// returns exactly one result per model, in configuration order. A model that
// fails, panics or misses the wait budget yields an error result; it never
// delays or fails the others.
func (s *Service) Aggregate(ctx context.Context, question, contextText string) []ModelResult {
	prompt := BuildPrompt(question, contextText)

	results := make([]ModelResult, len(s.models))
	var wg sync.WaitGroup
	for i, m := range s.models {
		wg.Add(1)
		go func(i int, m Model) {
			defer wg.Done()
			results[i] = s.invoke(ctx, m, prompt)
		}(i, m)
	}
	wg.Wait()

	return results
}

type outcome struct {
	answer string
	err    error
}

func (s *Service) invoke(ctx context.Context, m Model, prompt string) ModelResult {
	name := m.Name()
	start := time.Now()
	s.logger.Info("model invocation starting", "model", name, "prompt_len", len(prompt))

	callCtx, cancel := context.WithTimeout(ctx, s.wait)
	defer cancel()

	// Buffered so an abandoned call can still finish without blocking.
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		answer, err := m.Generate(callCtx, prompt)
		done <- outcome{answer: answer, err: err}
	}()

	var o outcome
	select {
	case o = <-done:
	case <-callCtx.Done():
		o.err = callCtx.Err()
	}
	if errors.Is(o.err, context.DeadlineExceeded) {
		o.err = fmt.Errorf("timed out after %s", s.wait)
	}

	elapsed := time.Since(start)
	metrics.ModelLatency.WithLabelValues(name).Observe(elapsed.Seconds())

	if o.err != nil {
		metrics.ModelInvocationsTotal.WithLabelValues(name, string(StatusError)).Inc()
		s.logger.Error("model invocation failed", "model", name, "duration", elapsed, "error", o.err)
		return ModelResult{Model: name, Answer: "Error: " + o.err.Error(), Status: StatusError}
	}

	metrics.ModelInvocationsTotal.WithLabelValues(name, string(StatusSuccess)).Inc()
	s.logger.Info("model invocation succeeded", "model", name, "duration", elapsed, "answer_len", len(o.answer))
	return ModelResult{Model: name, Answer: o.answer, Status: StatusSuccess}
}
