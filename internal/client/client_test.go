package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/josinaldojr/multi-llm-rag/internal/docs"
	"github.com/josinaldojr/multi-llm-rag/internal/rag"
)

func TestAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req rag.AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		_ = json.NewEncoder(w).Encode(rag.AskResponse{
			Question:      req.Question,
			ContextsFound: 2,
			Responses:     []rag.ModelResult{{Model: "m", Answer: "a", Status: rag.StatusSuccess}},
		})
	}))
	defer srv.Close()

	got, err := New(srv.URL+"/", time.Second).Ask(context.Background(), "What is S3?")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if got.Question != "What is S3?" || got.ContextsFound != 2 || len(got.Responses) != 1 {
		t.Errorf("unexpected response: %+v", got)
	}
}

func TestAsk_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Question is required"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Ask(context.Background(), "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "Question is required" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestDocumentCalls(t *testing.T) {
	var uploaded docs.UploadRequest
	var deletedPath string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /documents", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"documents":[{"id":"k1","name":"k1","size":3,"url":"u"}]}`))
	})
	mux.HandleFunc("POST /documents", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&uploaded)
		_ = json.NewEncoder(w).Encode(docs.UploadResult{Message: "File uploaded successfully", FileName: "20240101_000000_" + uploaded.FileName})
	})
	mux.HandleFunc("DELETE /documents/", func(w http.ResponseWriter, r *http.Request) {
		deletedPath = r.URL.EscapedPath()
		_ = json.NewEncoder(w).Encode(docs.DeleteResult{Message: "File deleted successfully"})
	})
	mux.HandleFunc("POST /sync", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(docs.SyncResult{Message: "Knowledge base sync started", JobID: "J1"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, time.Second)
	ctx := context.Background()

	list, err := c.ListDocuments(ctx)
	if err != nil || len(list) != 1 || list[0].ID != "k1" {
		t.Fatalf("list = %v, %v", list, err)
	}

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	up, err := c.UploadFile(ctx, path)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if up.FileName != "20240101_000000_notes.txt" {
		t.Errorf("upload result = %+v", up)
	}
	raw, _ := base64.StdEncoding.DecodeString(uploaded.FileContent)
	if uploaded.FileName != "notes.txt" || string(raw) != "hello" {
		t.Errorf("server received %+v", uploaded)
	}
	if uploaded.ContentType == "" {
		t.Error("content type should be guessed from the extension")
	}

	if _, err := c.Delete(ctx, "folder/a b.txt"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deletedPath != "/documents/folder%2Fa%20b.txt" {
		t.Errorf("delete path = %q", deletedPath)
	}

	s, err := c.Sync(ctx)
	if err != nil || s.JobID != "J1" {
		t.Errorf("sync = %+v, %v", s, err)
	}
}
