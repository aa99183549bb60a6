package http

import (
	"net/http"

	"github.com/aussiebroadwan/influxmcp/internal/server/service"
	"github.com/aussiebroadwan/influxmcp/pkg/httpx"
	"github.com/aussiebroadwan/influxmcp/pkg/mcpsdk"
	"github.com/aussiebroadwan/influxmcp/pkg/slogx"
)

// RevokeHandler serves POST /api/oauth/revoke following RFC 7009. Tokens of
// either kind are revoked; revoking a refresh token also drops the access
// tokens minted from it. All tokens even if invalid/unknown return 200 OK to
// prevent token scanning attacks.
type RevokeHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Revocation Endpoint
//	@Description	Revokes a previously issued token (RFC 7009).
//	@Description	The endpoint is idempotent and returns 200 OK even for invalid/unknown tokens to prevent token scanning attacks.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			token			formData	string	true	"The token to revoke"
//	@Param			token_type_hint	formData	string	false	"Hint about token type"	Enums(access_token, refresh_token)
//	@Success		200				"Token revoked successfully (or was already invalid)"
//	@Failure		400				{object}	mcpsdk.ErrorResponse	"error, error_description"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Header			200				{string}	Pragma					"no-cache"
//	@Router			/api/oauth/revoke [post]
func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if !parseForm(w, r) {
		return
	}

	token := r.Form.Get("token")
	if token == "" {
		mcpsdk.ErrInvalidRequest.WithDescription("Missing token parameter").WriteError(w)
		return
	}

	// The hint is advisory: lookup is by fingerprint, whatever the kind.
	if err := h.TokenService.RevokeToken(ctx, token); err != nil {
		log.Warn("revoke failed", "err", err, "token_type_hint", r.Form.Get("token_type_hint"))
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{}"))
}
