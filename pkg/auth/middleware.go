package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/authkit/pkg/acl"
	"github.com/dmitrymomot/authkit/pkg/autherr"
	"github.com/dmitrymomot/authkit/pkg/jwt"
)

// ErrorHandler writes an error response for a rejected request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// AccessCheck grants access the role grid denied, typically because the
// caller owns the resource. A non-nil error fails the request.
type AccessCheck func(r *http.Request) (bool, error)

type middlewareOptions struct {
	extractor jwt.TokenExtractorFunc
	skip      jwt.SkipFunc
	onError   ErrorHandler
	checks    []AccessCheck
}

// MiddlewareOption configures Middleware and RequireAccess.
type MiddlewareOption func(*middlewareOptions)

// WithExtractor replaces the bearer header extractor.
func WithExtractor(fn jwt.TokenExtractorFunc) MiddlewareOption {
	return func(o *middlewareOptions) {
		if fn != nil {
			o.extractor = fn
		}
	}
}

// WithSkip lets matching requests through unauthenticated.
func WithSkip(fn jwt.SkipFunc) MiddlewareOption {
	return func(o *middlewareOptions) { o.skip = fn }
}

// WithErrorHandler replaces WriteError.
func WithErrorHandler(fn ErrorHandler) MiddlewareOption {
	return func(o *middlewareOptions) {
		if fn != nil {
			o.onError = fn
		}
	}
}

// WithAccessCheck adds a fallback to RequireAccess that runs only when the
// roles lack every item. The first check to return true admits the request.
func WithAccessCheck(fn AccessCheck) MiddlewareOption {
	return func(o *middlewareOptions) {
		if fn != nil {
			o.checks = append(o.checks, fn)
		}
	}
}

// OwnerCheck admits a user whose ID equals the one param extracts from
// the request.
func OwnerCheck(param func(r *http.Request) string) AccessCheck {
	return func(r *http.Request) (bool, error) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			return false, nil
		}
		id := param(r)
		return id != "" && id == user.ID, nil
	}
}

func newMiddlewareOptions(opts []MiddlewareOption) middlewareOptions {
	o := middlewareOptions{
		extractor: jwt.BearerTokenExtractor,
		onError:   WriteError,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Middleware resolves the bearer token against the session store and puts
// the user, raw token and role codes into the request context.
func Middleware(m *Manager, opts ...MiddlewareOption) func(next http.Handler) http.Handler {
	o := newMiddlewareOptions(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if o.skip != nil && o.skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := o.extractor(r)
			if err != nil || raw == "" {
				o.onError(w, r, autherr.ErrInvalidToken)
				return
			}

			user, err := m.ResolveToken(r.Context(), raw)
			if err != nil {
				o.onError(w, r, err)
				return
			}

			ctx := jwt.SetToken(r.Context(), raw)
			ctx = SetUser(ctx, user)
			ctx = acl.WithRoles(ctx, user.Roles()...)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAccess admits requests whose context roles grant any of items,
// or that pass one of the WithAccessCheck fallbacks. It must run after
// Middleware.
func RequireAccess(engine *acl.Engine, items []string, opts ...MiddlewareOption) func(next http.Handler) http.Handler {
	o := newMiddlewareOptions(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := o.authorize(engine, r, items); err != nil {
				o.onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (o middlewareOptions) authorize(engine *acl.Engine, r *http.Request, items []string) error {
	err := engine.AuthorizeContext(r.Context(), items...)
	if err == nil || !errors.Is(err, autherr.ErrNoPermission) {
		return err
	}
	for _, check := range o.checks {
		ok, cerr := check(r)
		if cerr != nil {
			return fmt.Errorf("auth: access check: %w", cerr)
		}
		if ok {
			return nil
		}
	}
	return err
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError renders err as JSON with the status class it carries.
// Infrastructure failures are reported as a generic 500.
func WriteError(w http.ResponseWriter, _ *http.Request, err error) {
	body := errorBody{Code: "INTERNAL_ERROR", Message: http.StatusText(http.StatusInternalServerError)}
	if e, ok := autherr.As(err); ok {
		body = errorBody{Code: string(e.Kind), Message: e.Message}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(autherr.StatusOf(err))
	_ = json.NewEncoder(w).Encode(body)
}
