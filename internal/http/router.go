package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/josinaldojr/multi-llm-rag/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	CORSOrigin string
	Logger     *slog.Logger
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	r.UseEncodedPath()

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/chat", h.Chat).Methods(http.MethodPost)
	r.HandleFunc("/documents", h.ListDocuments).Methods(http.MethodGet)
	r.HandleFunc("/documents", h.UploadDocument).Methods(http.MethodPost)
	r.HandleFunc("/documents/{id:.+}", h.DeleteDocument).Methods(http.MethodDelete)
	r.HandleFunc("/sync", h.Sync).Methods(http.MethodPost)

	r.Methods(http.MethodOptions).HandlerFunc(preflight)

	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(notFound)

	var handler http.Handler = r
	handler = metrics.Middleware(routeTemplate(r))(handler)
	handler = corsMiddleware(opts.CORSOrigin)(handler)
	handler = recoverMiddleware(logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	return handler
}

func preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

// routeTemplate labels requests by their mux path template.
func routeTemplate(router *mux.Router) metrics.RouteFunc {
	return func(r *http.Request) string {
		var m mux.RouteMatch
		if !router.Match(r, &m) || m.Route == nil {
			return ""
		}
		tpl, err := m.Route.GetPathTemplate()
		if err != nil {
			return "options"
		}
		return tpl
	}
}
