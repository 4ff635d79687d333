package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/josinaldojr/multi-llm-rag/internal/docs"
	"github.com/josinaldojr/multi-llm-rag/internal/rag"
)

const jobTimeout = 15 * time.Minute

// Source is where the indexer reads documents from.
type Source interface {
	List(ctx context.Context) ([]docs.Object, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// LocalIndexer rebuilds the pgvector index from the document store. At most
// one job runs at a time.
type LocalIndexer struct {
	source Source
	embed  rag.EmbeddingsClient
	repo   rag.Repository
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	running string
	wg      sync.WaitGroup
}

func NewLocalIndexer(source Source, embed rag.EmbeddingsClient, repo rag.Repository, logger *slog.Logger) *LocalIndexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalIndexer{source: source, embed: embed, repo: repo, logger: logger, now: time.Now}
}

// StartIngestion launches a rebuild in the background and returns its job id.
// If a rebuild is already running its id is returned instead.
func (x *LocalIndexer) StartIngestion(ctx context.Context) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.running != "" {
		return x.running, nil
	}

	id := "local-" + x.now().UTC().Format("20060102T150405.000")
	x.running = id
	x.wg.Add(1)

	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), jobTimeout)
	go func() {
		defer x.wg.Done()
		defer cancel()
		defer func() {
			x.mu.Lock()
			x.running = ""
			x.mu.Unlock()
		}()

		start := time.Now()
		n, err := x.Run(jobCtx)
		if err != nil {
			x.logger.Error("ingestion job failed", "job_id", id, "error", err)
			return
		}
		x.logger.Info("ingestion job finished", "job_id", id, "chunks", n, "took", time.Since(start))
	}()

	return id, nil
}

// Wait blocks until the running job, if any, has finished.
func (x *LocalIndexer) Wait() {
	x.wg.Wait()
}

// Run rebuilds the index synchronously and returns the number of chunks
// stored. Documents that cannot be read or parsed are skipped; an embedding
// or storage failure aborts the rebuild and leaves the old index in place.
func (x *LocalIndexer) Run(ctx context.Context) (int, error) {
	objects, err := x.source.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}

	var (
		chunks     []rag.DocChunk
		embeddings [][]float32
	)

	for _, obj := range objects {
		if !Supported(obj.Key) {
			x.logger.Debug("skipping unsupported document", "key", obj.Key)
			continue
		}

		data, err := x.source.Get(ctx, obj.Key)
		if err != nil {
			x.logger.Warn("skipping unreadable document", "key", obj.Key, "error", err)
			continue
		}

		text, err := Extract(obj.Key, data)
		if err != nil {
			if !errors.Is(err, ErrUnsupported) {
				x.logger.Warn("skipping document", "key", obj.Key, "error", err)
			}
			continue
		}

		title := Title(obj.Key)
		parts := splitIntoChunks(text, MaxChunkLen)
		for i, c := range parts {
			vec, err := x.embed.Embed(ctx, c)
			if err != nil {
				return 0, fmt.Errorf("embed %s chunk %d: %w", obj.Key, i, err)
			}

			chunkTitle := title
			if len(parts) > 1 {
				chunkTitle = fmt.Sprintf("%s (part %d)", title, i+1)
			}
			chunks = append(chunks, rag.DocChunk{
				SourceKey:  obj.Key,
				ChunkIndex: i,
				Title:      chunkTitle,
				Content:    c,
				CreatedAt:  x.now(),
			})
			embeddings = append(embeddings, vec)
		}
		x.logger.Debug("indexed document", "key", obj.Key, "chunks", len(parts))
	}

	if err := x.repo.ReplaceChunks(ctx, chunks, embeddings); err != nil {
		return 0, fmt.Errorf("replace chunks: %w", err)
	}
	return len(chunks), nil
}
