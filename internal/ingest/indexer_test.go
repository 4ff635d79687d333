package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/josinaldojr/multi-llm-rag/internal/docs"
	"github.com/josinaldojr/multi-llm-rag/internal/rag"
)

type fakeSource struct {
	bodies map[string]string
	getErr map[string]error
}

func (f *fakeSource) List(ctx context.Context) ([]docs.Object, error) {
	var out []docs.Object
	for k := range f.bodies {
		out = append(out, docs.Object{Key: k})
	}
	for k := range f.getErr {
		out = append(out, docs.Object{Key: k})
	}
	return out, nil
}

func (f *fakeSource) Get(ctx context.Context, key string) ([]byte, error) {
	if err, ok := f.getErr[key]; ok {
		return nil, err
	}
	return []byte(f.bodies[key]), nil
}

type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
	gate  chan struct{}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return make([]float32, rag.EmbeddingDim), nil
}

type fakeRepo struct {
	mu         sync.Mutex
	replaced   int
	chunks     []rag.DocChunk
	embeddings [][]float32
}

func (f *fakeRepo) ReplaceChunks(ctx context.Context, chunks []rag.DocChunk, embeddings [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced++
	f.chunks = chunks
	f.embeddings = embeddings
	return nil
}

func (f *fakeRepo) SearchSimilarChunks(ctx context.Context, embedding []float32, limit int) ([]rag.DocChunk, error) {
	return nil, nil
}

func TestRun_IndexesSupportedDocuments(t *testing.T) {
	src := &fakeSource{
		bodies: map[string]string{
			"20240101_000000_lambda.txt": "Lambda runs code.",
			"20240101_000000_page.html":  "<p>S3 stores objects.</p>",
			"20240101_000000_image.png":  "binary",
		},
		getErr: map[string]error{"20240101_000000_gone.md": errors.New("NoSuchKey")},
	}
	repo := &fakeRepo{}
	idx := NewLocalIndexer(src, &fakeEmbedder{}, repo, nil)

	n, err := idx.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if n != 2 || len(repo.chunks) != 2 || len(repo.embeddings) != 2 {
		t.Fatalf("expected 2 chunks, got n=%d stored=%d", n, len(repo.chunks))
	}

	var contents []string
	for _, c := range repo.chunks {
		contents = append(contents, c.Content)
		if c.SourceKey == "" || c.Title == "" {
			t.Errorf("chunk missing source or title: %+v", c)
		}
	}
	joined := strings.Join(contents, "|")
	if !strings.Contains(joined, "Lambda runs code.") || !strings.Contains(joined, "S3 stores objects.") {
		t.Errorf("unexpected contents: %v", contents)
	}
}

func TestRun_EmbedFailureKeepsOldIndex(t *testing.T) {
	src := &fakeSource{bodies: map[string]string{"a.txt": "text"}}
	repo := &fakeRepo{}
	idx := NewLocalIndexer(src, &fakeEmbedder{err: errors.New("quota")}, repo, nil)

	if _, err := idx.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if repo.replaced != 0 {
		t.Error("index must not be replaced after a failure")
	}
}

func TestRun_EmptyStoreClearsIndex(t *testing.T) {
	repo := &fakeRepo{}
	idx := NewLocalIndexer(&fakeSource{}, &fakeEmbedder{}, repo, nil)

	n, err := idx.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || repo.replaced != 1 {
		t.Errorf("expected empty replace, got n=%d replaced=%d", n, repo.replaced)
	}
}

func TestStartIngestion_SingleJobAtATime(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{bodies: map[string]string{"a.txt": "text"}}
	repo := &fakeRepo{}
	idx := NewLocalIndexer(src, &fakeEmbedder{gate: gate}, repo, nil)
	idx.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	first, err := idx.StartIngestion(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !strings.HasPrefix(first, "local-") {
		t.Errorf("unexpected job id %q", first)
	}

	second, err := idx.StartIngestion(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Errorf("concurrent trigger should return running job %q, got %q", first, second)
	}

	close(gate)
	idx.Wait()

	repo.mu.Lock()
	replaced := repo.replaced
	repo.mu.Unlock()
	if replaced != 1 {
		t.Errorf("expected one rebuild, got %d", replaced)
	}
}

func TestStartIngestion_SurvivesCallerCancel(t *testing.T) {
	repo := &fakeRepo{}
	idx := NewLocalIndexer(&fakeSource{bodies: map[string]string{"a.txt": "text"}}, &fakeEmbedder{}, repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := idx.StartIngestion(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	idx.Wait()

	if repo.replaced != 1 {
		t.Errorf("job should finish after the request context ends, replaced=%d", repo.replaced)
	}
}
