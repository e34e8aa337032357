package api

import (
	"net/http"
	"runtime/debug"
	"time"

	"social-support-intake/internal/common/logger"

	"github.com/go-chi/chi/v5/middleware"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per request with its status and latency.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      sw.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"requestId":   middleware.GetReqID(r.Context()),
			}
			if sw.status >= http.StatusInternalServerError {
				log.Warn("request failed", fields)
				return
			}
			log.Debug("request", fields)
		})
	}
}

// Recovery turns a panic into a 500 response.
func Recovery(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic in handler", map[string]interface{}{
						"panic":     rec,
						"path":      r.URL.Path,
						"requestId": middleware.GetReqID(r.Context()),
						"stack":     string(debug.Stack()),
					})
					writeJSON(w, http.StatusInternalServerError, errorResponse{
						Code:    "INTERNAL_ERROR",
						Message: "internal server error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
