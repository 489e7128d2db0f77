package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-Id"

	contentSecurityPolicy = "default-src 'self'; " +
		"img-src 'self' data:; " +
		"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; " +
		"font-src https://fonts.gstatic.com 'self'; " +
		"script-src 'self' https://cdn.tailwindcss.com https://cdn.jsdelivr.net; " +
		"connect-src 'self'; " +
		"base-uri 'self'; form-action 'self'; frame-ancestors 'none'"
)

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned by the requestID middleware
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// requestID echoes a well formed incoming X-Request-Id or assigns a new one
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		s.metrics.ObserveRequest(route, strconv.Itoa(rec.status), elapsed)
		s.logger.Sugar().Debugw("Handled request",
			"route", route,
			"method", r.Method,
			"status", rec.status,
			"requestId", RequestIDFromContext(r.Context()),
			"elapsed", elapsed.String(),
		)
	})
}
