// Package watch mirrors a local drop folder into the document store.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/josinaldojr/multi-llm-rag/internal/docs"
)

// DefaultExtensions are the file types the indexers know how to read.
var DefaultExtensions = []string{".pdf", ".txt", ".md", ".html", ".htm", ".csv", ".json"}

// Uploader is the subset of the API client the watcher needs.
type Uploader interface {
	UploadFile(ctx context.Context, path string) (*docs.UploadResult, error)
}

// Watcher emits the path of every created or rewritten file once it has
// been quiet for the settle delay.
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	settle     time.Duration
	logger     *slog.Logger
}

func New(extensions []string, settle time.Duration, logger *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if settle <= 0 {
		settle = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{watcher: w, extensions: extensions, settle: settle, logger: logger}, nil
}

// Watch starts monitoring dir. The returned channel is closed when ctx ends
// or the watcher is stopped.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	out := make(chan string, 100)
	ready := make(chan string, 100)

	var mu sync.Mutex
	timers := map[string]*time.Timer{}

	go func() {
		defer close(out)
		defer func() {
			mu.Lock()
			for _, t := range timers {
				t.Stop()
			}
			mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case path := <-ready:
				mu.Lock()
				delete(timers, path)
				mu.Unlock()
				select {
				case out <- path:
				case <-ctx.Done():
					return
				}
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}

				path := event.Name
				mu.Lock()
				if t, ok := timers[path]; ok {
					t.Reset(w.settle)
				} else {
					timers[path] = time.AfterFunc(w.settle, func() {
						select {
						case ready <- path:
						case <-ctx.Done():
						}
					})
				}
				mu.Unlock()
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", "dir", dir, "error", err)
			}
		}
	}()

	return out, nil
}

func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) isWatchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Forward uploads every path received on files until the channel closes.
// Failed uploads are logged and skipped.
func Forward(ctx context.Context, files <-chan string, up Uploader, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	n := 0
	for path := range files {
		res, err := up.UploadFile(ctx, path)
		if err != nil {
			logger.Error("upload failed", "path", path, "error", err)
			continue
		}
		n++
		logger.Info("uploaded", "path", path, "key", res.FileName)
	}
	return n
}
