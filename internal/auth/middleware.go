package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// Config contains configuration for the auth middleware.
type Config struct {
	// SkipPaths are paths that skip authentication.
	SkipPaths []string
}

// DefaultConfig returns the default auth configuration.
func DefaultConfig() Config {
	return Config{
		SkipPaths: []string{
			"/health",
			"/metrics",
			"/api/users/login",
			"/api/users/register",
		},
	}
}

// Middleware creates a Bearer-token authentication middleware.
// Authenticated requests carry an Identity in the request context.
func Middleware(manager *TokenManager, config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip paths never reject, but a valid token still attaches
			// an identity so handlers can honor staff privileges.
			for _, path := range config.SkipPaths {
				if r.URL.Path == path {
					if tokenString, err := extractBearerToken(r); err == nil {
						if identity, err := manager.Verify(tokenString); err == nil {
							r = r.WithContext(WithIdentity(r.Context(), identity))
						}
					}
					next.ServeHTTP(w, r)
					return
				}
			}

			tokenString, err := extractBearerToken(r)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			identity, err := manager.Verify(tokenString)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("token verification failed")
				writeAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// extractBearerToken pulls the token out of the Authorization header.
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingAuthorizationHeader
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrInvalidAuthorizationHeader
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", ErrInvalidAuthorizationHeader
	}

	return token, nil
}

// writeAuthError writes a 401 JSON error response.
func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + err.Error() + `"}`))
}
