package jwt

import (
	"net/http"
	"strings"
)

// TokenExtractorFunc pulls a raw token out of a request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// SkipFunc reports whether a request bypasses token validation.
type SkipFunc func(r *http.Request) bool

// MiddlewareConfig configures Middleware.
type MiddlewareConfig struct {
	Codec     *Codec
	Extractor TokenExtractorFunc // defaults to BearerTokenExtractor
	Skip      SkipFunc
}

// Middleware verifies the token statelessly and stores token and claims in
// the request context. It does not consult the server-side token store; use
// the auth package middleware when revocation must be honored.
func Middleware(cfg MiddlewareConfig) func(next http.Handler) http.Handler {
	if cfg.Extractor == nil {
		cfg.Extractor = BearerTokenExtractor
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := cfg.Extractor(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := cfg.Codec.Parse(raw)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			ctx := SetClaims(SetToken(r.Context(), raw), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerTokenExtractor reads "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func BearerTokenExtractor(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}

// CookieTokenExtractor reads the token from the named cookie.
func CookieTokenExtractor(name string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(name)
		if err != nil || cookie.Value == "" {
			return "", ErrInvalidToken
		}
		return cookie.Value, nil
	}
}
