package httpserver

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// RouterConfig tunes the common endpoints.
type RouterConfig struct {
	// ReadyFunc is polled by /readyz. Nil means always ready.
	ReadyFunc func() error
}

// SetupRouter attaches base middlewares and common endpoints.
// IMPORTANT: must be called before registering any routes.
func SetupRouter(r chi.Router, cfg ...RouterConfig) {
	var c RouterConfig
	if len(cfg) > 0 {
		c = cfg[0]
	}

	// Correlation / request id
	r.Use(RequestIDMiddleware("X-Request-Id"))
	r.Use(recoverMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if c.ReadyFunc != nil {
			if err := c.ReadyFunc(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(err.Error()))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
}

// parseCORSOrigins splits a comma-separated origin list. Empty means
// wildcard.
func parseCORSOrigins(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
