package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/influxmcp/pkg/slogx"
)

// Principal is what a verified bearer token resolves to.
type Principal struct {
	ClientID string
	Scopes   []string
}

// TokenVerifier resolves an opaque access token.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (Principal, error)
}

// AuthnMiddleware requires a valid bearer token. resourceMetadata, when set,
// returns the protected resource metadata URL advertised in WWW-Authenticate.
func AuthnMiddleware(v TokenVerifier, resourceMetadata func(*http.Request) string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, r, resourceMetadata, "missing bearer token")
				return
			}

			p, err := v.VerifyAccessToken(ctx, raw)
			if err != nil {
				slogx.FromContext(ctx).Warn("bearer token rejected", "err", err)
				writeBearerError(w, r, resourceMetadata, "token verification failed")
				return
			}

			ctx = context.WithValue(ctx, CtxKeyClientID, p.ClientID)
			ctx = context.WithValue(ctx, CtxKeyScopes, p.Scopes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if len(authz) < 7 || !strings.EqualFold(authz[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authz[7:])
	return token, token != ""
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, r *http.Request, resourceMetadata func(*http.Request) string, desc string) {
	challenge := `Bearer error="invalid_token", error_description="` + desc + `"`
	if resourceMetadata != nil {
		challenge += `, resource_metadata="` + resourceMetadata(r) + `"`
	}
	w.Header().Set("WWW-Authenticate", challenge)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "invalid_token",
		"error_description": desc,
	})
}

// RequireAnyScope the caller must have at least one of the provided scopes.
func RequireAnyScope(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, s := range required {
		want[s] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, s := range scopesFromCtx(r.Context()) {
				if _, ok := want[s]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().
				Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
			WriteJSON(w, http.StatusForbidden, map[string]string{
				"error":             "insufficient_scope",
				"error_description": "token lacks a required scope",
			})
		})
	}
}
