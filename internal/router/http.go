package router

import (
	"net/http"

	"go.uber.org/zap"
)

// StaticFileServer serves the operator UI from a directory on disk, the
// same single-page-app-over-plain-net/http shape as the legacy static
// server (no templating, no build step — just files).
func StaticFileServer(dir string, logger *zap.Logger) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("static request", zap.String("path", r.URL.Path), zap.String("remote", r.RemoteAddr))
		fs.ServeHTTP(w, r)
	})
}

// HealthCheck answers a plain liveness probe.
func HealthCheck() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}
