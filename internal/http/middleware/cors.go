package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/davidbz/creditmeter/internal/config"
)

// CORS applies the configured cross-origin policy with github.com/rs/cors.
// The trace headers are exposed so browser clients can report them.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   append([]string{headerTraceID, headerRequestID}, cfg.AllowedHeaders...),
		ExposedHeaders:   []string{headerTraceID, headerRequestID},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return c.Handler
}
