package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// ScopeHealthDataExtract grants access to the extraction endpoint.
const ScopeHealthDataExtract = "healthdata:extract"

type contextKey struct{}

// WithClaims stores claims on the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// FromContext retrieves claims stored by WithClaims.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok
}

// MiddlewareOption configures a Middleware.
type MiddlewareOption func(*Middleware)

// WithPublicPaths replaces the set of paths served without a token.
func WithPublicPaths(paths ...string) MiddlewareOption {
	return func(m *Middleware) {
		m.public = make(map[string]struct{}, len(paths))
		for _, p := range paths {
			m.public[p] = struct{}{}
		}
	}
}

// Middleware rejects requests without a valid bearer token. CORS preflights
// and public paths pass through untouched.
type Middleware struct {
	cfg    Config
	public map[string]struct{}
}

// NewMiddleware constructs Middleware. By default /healthz and /metrics are
// public.
func NewMiddleware(cfg Config, opts ...MiddlewareOption) Middleware {
	m := Middleware{cfg: cfg}
	WithPublicPaths("/healthz", "/metrics")(&m)
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Wrap attaches authentication handling to an http.Handler.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.parseRequest(r)
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("rejected unauthenticated request")
			unauthorized(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func (m Middleware) skip(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	_, ok := m.public[r.URL.Path]
	return ok
}

func (m Middleware) parseRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return nil, ErrInvalidToken
	}
	return Parse(strings.TrimSpace(token), m.cfg)
}

func unauthorized(w http.ResponseWriter, err error) {
	challenge := `Bearer realm="healthdata"`
	if errors.Is(err, ErrInvalidToken) {
		challenge += `, error="invalid_token"`
	}
	w.Header().Set("WWW-Authenticate", challenge)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"type":   "unauthorized",
		"detail": err.Error(),
	})
}
