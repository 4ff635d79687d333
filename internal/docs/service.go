package docs

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/josinaldojr/multi-llm-rag/internal/metrics"
)

const (
	defaultContentType = "application/octet-stream"
	keyTimeLayout      = "20060102_150405"
)

// ErrIndexingDisabled is returned by Sync when no indexer is configured.
var ErrIndexingDisabled = errors.New("re-indexing is not configured")

// Indexer launches a re-index of the document corpus and returns a job id.
type Indexer interface {
	StartIngestion(ctx context.Context) (string, error)
}

type Service struct {
	store   ObjectStore
	indexer Indexer
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wires the object store with an optional indexer; a nil indexer
// disables re-indexing.
func NewService(store ObjectStore, indexer Indexer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, indexer: indexer, logger: logger, now: time.Now}
}

// List returns every stored document, newest first.
func (s *Service) List(ctx context.Context) ([]Document, error) {
	objects, err := s.store.List(ctx)
	metrics.DocumentOperationsTotal.WithLabelValues("list", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(objects))
	for _, o := range objects {
		docs = append(docs, Document{
			ID:           o.Key,
			Name:         o.Key,
			Size:         o.Size,
			LastModified: o.LastModified,
			URL:          s.store.URL(o.Key),
		})
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].LastModified.After(docs[j].LastModified)
	})
	return docs, nil
}

// Upload stores a base64-encoded file under a timestamped key and triggers a
// best-effort re-index.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.FileName == "" || req.FileContent == "" {
		return nil, &ValidationError{Msg: "fileName and fileContent are required"}
	}

	name := cleanFileName(req.FileName)
	if name == "" {
		return nil, &ValidationError{Msg: "fileName is not a valid file name"}
	}

	data, err := base64.StdEncoding.DecodeString(req.FileContent)
	if err != nil {
		return nil, &ValidationError{Msg: "fileContent must be base64 encoded"}
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	key := s.newKey(name)
	err = s.store.Put(ctx, key, data, contentType)
	metrics.DocumentOperationsTotal.WithLabelValues("upload", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	s.logger.Info("uploaded document", "key", key, "size", len(data), "content_type", contentType)

	s.reindex(ctx)

	return &UploadResult{
		Message:  "File uploaded successfully",
		FileName: key,
		URL:      s.store.URL(key),
	}, nil
}

// Delete removes key and triggers a best-effort re-index. Deleting a missing
// key succeeds.
func (s *Service) Delete(ctx context.Context, key string) (*DeleteResult, error) {
	if strings.TrimSpace(key) == "" {
		return nil, &ValidationError{Msg: "document id is required"}
	}

	err := s.store.Delete(ctx, key)
	metrics.DocumentOperationsTotal.WithLabelValues("delete", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	s.logger.Info("deleted document", "key", key)

	s.reindex(ctx)

	return &DeleteResult{Message: "File deleted successfully", FileName: key}, nil
}

// Sync starts a re-index explicitly; unlike the upload/delete trigger its
// failure is returned to the caller.
func (s *Service) Sync(ctx context.Context) (*SyncResult, error) {
	if s.indexer == nil {
		return nil, ErrIndexingDisabled
	}

	jobID, err := s.indexer.StartIngestion(ctx)
	metrics.IngestionTriggersTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	s.logger.Info("started ingestion job", "job_id", jobID)

	return &SyncResult{Message: "Knowledge base sync started", JobID: jobID}, nil
}

func (s *Service) reindex(ctx context.Context) {
	if s.indexer == nil {
		return
	}
	jobID, err := s.indexer.StartIngestion(ctx)
	metrics.IngestionTriggersTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		s.logger.Warn("could not trigger sync", "error", err)
		return
	}
	s.logger.Info("started ingestion job", "job_id", jobID)
}

func (s *Service) newKey(name string) string {
	return fmt.Sprintf("%s_%s", s.now().Format(keyTimeLayout), name)
}

// cleanFileName keeps only the last path element so uploads cannot pick
// their own prefix.
func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
