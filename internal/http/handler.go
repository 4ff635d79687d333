package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/josinaldojr/multi-llm-rag/internal/docs"
	"github.com/josinaldojr/multi-llm-rag/internal/rag"
)

const maxUploadBody = 50 << 20

type ChatService interface {
	Ask(ctx context.Context, req rag.AskRequest) (*rag.AskResponse, error)
}

type DocumentService interface {
	List(ctx context.Context) ([]docs.Document, error)
	Upload(ctx context.Context, req docs.UploadRequest) (*docs.UploadResult, error)
	Delete(ctx context.Context, key string) (*docs.DeleteResult, error)
	Sync(ctx context.Context) (*docs.SyncResult, error)
}

type Handler struct {
	chat   ChatService
	docs   DocumentService
	logger *slog.Logger
}

// NewHandler builds the API handlers. documents may be nil when no bucket is
// configured; the document endpoints then answer 500.
func NewHandler(chat ChatService, documents DocumentService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{chat: chat, docs: documents, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req rag.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	resp, err := h.chat.Ask(r.Context(), req)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, "Question is required")
			return
		}
		h.logger.Error("chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type documentList struct {
	Documents []docs.Document `json:"documents"`
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	if !h.docsConfigured(w) {
		return
	}

	list, err := h.docs.List(r.Context())
	if err != nil {
		h.fail(w, "list documents failed", err)
		return
	}
	writeJSON(w, http.StatusOK, documentList{Documents: list})
}

func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if !h.docsConfigured(w) {
		return
	}

	var req docs.UploadRequest
	body := http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	res, err := h.docs.Upload(r.Context(), req)
	if err != nil {
		h.fail(w, "upload failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if !h.docsConfigured(w) {
		return
	}

	key, err := url.PathUnescape(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document id")
		return
	}

	res, err := h.docs.Delete(r.Context(), key)
	if err != nil {
		h.fail(w, "delete failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	if !h.docsConfigured(w) {
		return
	}

	res, err := h.docs.Sync(r.Context())
	if err != nil {
		h.fail(w, "sync failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) docsConfigured(w http.ResponseWriter) bool {
	if h.docs == nil {
		writeError(w, http.StatusInternalServerError, "BUCKET_NAME environment variable not set")
		return false
	}
	return true
}

// fail maps document service errors: validation problems are the
// client's, everything else is ours.
func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	var vErr *docs.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Msg)
		return
	}
	h.logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}
