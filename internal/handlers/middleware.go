package handlers

import (
	"context"
	"log"
	"net/http"
	"time"
)

type ctxKey string

const treasurerKey ctxKey = "treasurer"

// withRole resolves the caller's role once per request. Resolving it also
// refreshes the treasurer's idle timer.
func (h *Handler) withRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), treasurerKey, h.sessions.IsTreasurer(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func isTreasurer(r *http.Request) bool {
	v, _ := r.Context().Value(treasurerKey).(bool)
	return v
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging writes one line per request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
