package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type ctxKeyRequestID struct{}

// RequestIDFromContext returns the request id stamped by the middleware,
// or "" when the request never passed through it.
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return v
}

// RequestIDMiddleware tags every request with a correlation id so a
// progress report can be traced from the HTTP edge through the worker
// logs. An id supplied by the client is kept; otherwise one is minted.
func RequestIDMiddleware(headerName string) func(next http.Handler) http.Handler {
	if strings.TrimSpace(headerName) == "" {
		headerName = "X-Request-Id"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get(headerName))
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set(headerName, rid)
			ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, rid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
