package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// RouteFunc resolves the route template for a request so that path
// parameters (document keys) do not explode label cardinality.
type RouteFunc func(r *http.Request) string

// Middleware records RequestsTotal and RequestDuration for every request.
func Middleware(route RouteFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			name := "unmatched"
			if route != nil {
				if rt := route(r); rt != "" {
					name = rt
				}
			}

			statusStr := strconv.Itoa(sw.status/100) + "xx"
			RequestsTotal.WithLabelValues(r.Method, name, statusStr).Inc()
			RequestDuration.WithLabelValues(r.Method, name).Observe(time.Since(start).Seconds())
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
