// Package client is a small HTTP client for the chat and document API, used
// by the command line tools.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/josinaldojr/multi-llm-rag/internal/docs"
	"github.com/josinaldojr/multi-llm-rag/internal/rag"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned HTTP %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the API at baseURL. The timeout covers a whole
// chat round trip, so it should exceed the server's model wait budget.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Ask(ctx context.Context, question string) (*rag.AskResponse, error) {
	var out rag.AskResponse
	if err := c.do(ctx, http.MethodPost, "/chat", rag.AskRequest{Question: question}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListDocuments(ctx context.Context) ([]docs.Document, error) {
	var out struct {
		Documents []docs.Document `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, "/documents", nil, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

func (c *Client) Upload(ctx context.Context, fileName string, content []byte, contentType string) (*docs.UploadResult, error) {
	req := docs.UploadRequest{
		FileName:    fileName,
		FileContent: base64.StdEncoding.EncodeToString(content),
		ContentType: contentType,
	}
	var out docs.UploadResult
	if err := c.do(ctx, http.MethodPost, "/documents", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadFile reads path and uploads it under its base name, guessing the
// content type from the extension.
func (c *Client) UploadFile(ctx context.Context, path string) (*docs.UploadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return c.Upload(ctx, filepath.Base(path), data, mime.TypeByExtension(filepath.Ext(path)))
}

func (c *Client) Delete(ctx context.Context, key string) (*docs.DeleteResult, error) {
	var out docs.DeleteResult
	if err := c.do(ctx, http.MethodDelete, "/documents/"+url.PathEscape(key), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Sync(ctx context.Context) (*docs.SyncResult, error) {
	var out docs.SyncResult
	if err := c.do(ctx, http.MethodPost, "/sync", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
