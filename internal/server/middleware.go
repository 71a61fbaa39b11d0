package server

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// OwnerHeader carries the owner identifier set by the upstream auth proxy.
const OwnerHeader = "X-User-ID"

type ownerKey struct{}

// withOwner stores the trimmed [OwnerHeader] value in the request context.
func withOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if owner := strings.TrimSpace(r.Header.Get(OwnerHeader)); owner != "" {
			r = r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner))
		}
		next.ServeHTTP(w, r)
	})
}

// OwnerFrom returns the owner of the request, or "" for anonymous callers.
func OwnerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// observe logs each request and records its status and latency.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}
		s.deps.Metrics.ObserveHTTP(r.Method, route, rec.status, elapsed)

		logger := s.logger.Debug
		if rec.status >= http.StatusInternalServerError {
			logger = s.logger.Warn
		}
		logger("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", elapsed)
	})
}
