package httpx

import "context"

type ctxKey string

const (
	CtxKeyClientID ctxKey = "client_id"
	CtxKeyScopes   ctxKey = "scopes"
)

// ClientIDFromContext returns the OAuth client bound to the request's bearer token.
func ClientIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyClientID).(string)
	return v
}

func scopesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyScopes).([]string); ok {
		return v
	}
	return nil
}
