// Command docs manages the document store through the API.
//
// Usage:
//
//	docs list
//	docs upload <file|dir>...
//	docs delete <key>...
//	docs sync
//	docs watch <dir>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/josinaldojr/multi-llm-rag/internal/client"
	"github.com/josinaldojr/multi-llm-rag/internal/config"
	"github.com/josinaldojr/multi-llm-rag/internal/ingest"
	"github.com/josinaldojr/multi-llm-rag/internal/watch"
)

func main() {
	if err := run(); err != nil {
		slog.Error("docs failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	apiURL := flag.String("url", envOrDefault("API_URL", "http://localhost:8080"), "API base URL")
	timeout := flag.Duration("timeout", time.Minute, "timeout per API call")
	settle := flag.Duration("settle", 500*time.Millisecond, "watch: how long a file must be quiet before upload")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: docs [flags] list | upload <file|dir>... | delete <key>... | sync | watch <dir>")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := config.NewLogger(os.Stderr, envOrDefault("LOG_LEVEL", "info"), envOrDefault("LOG_FORMAT", "text"))
	slog.SetDefault(logger)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return errors.New("missing command")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(*apiURL, *timeout)

	switch cmd, rest := args[0], args[1:]; cmd {
	case "list":
		return list(ctx, c)
	case "upload":
		if len(rest) == 0 {
			return errors.New("upload: at least one file or directory is required")
		}
		return upload(ctx, c, rest, logger)
	case "delete":
		if len(rest) == 0 {
			return errors.New("delete: at least one key is required")
		}
		for _, key := range rest {
			res, err := c.Delete(ctx, key)
			if err != nil {
				return err
			}
			logger.Info(res.Message, "key", res.FileName)
		}
		return nil
	case "sync":
		res, err := c.Sync(ctx)
		if err != nil {
			return err
		}
		logger.Info(res.Message, "job_id", res.JobID)
		return nil
	case "watch":
		if len(rest) != 1 {
			return errors.New("watch: exactly one directory is required")
		}
		return watchDir(ctx, c, rest[0], *settle, logger)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func list(ctx context.Context, c *client.Client) error {
	documents, err := c.ListDocuments(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSIZE\tLAST MODIFIED")
	for _, d := range documents {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", d.ID, d.Size, d.LastModified.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

// upload sends files as given and walks directories for supported files.
func upload(ctx context.Context, c *client.Client, paths []string, logger *slog.Logger) error {
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if path != root && !ingest.Supported(path) {
				return nil
			}

			res, err := c.UploadFile(ctx, path)
			if err != nil {
				return fmt.Errorf("upload %s: %w", path, err)
			}
			logger.Info("uploaded", "path", path, "key", res.FileName, "url", res.URL)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func watchDir(ctx context.Context, c *client.Client, dir string, settle time.Duration, logger *slog.Logger) error {
	w, err := watch.New(nil, settle, logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	files, err := w.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	logger.Info("watching drop folder", "dir", dir)
	n := watch.Forward(ctx, files, c, logger)
	logger.Info("stopped watching", "uploaded", n)
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
