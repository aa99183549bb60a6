package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
	"github.com/aussiebroadwan/influxmcp/internal/server/service"
	"github.com/aussiebroadwan/influxmcp/pkg/httpx"
	"github.com/aussiebroadwan/influxmcp/pkg/mcpsdk"
)

// TokenHandler serves POST /api/oauth/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework, or a
// flat JSON object.
type TokenHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Exchanges an authorization code plus PKCE verifier, or a refresh token, for an opaque access token.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded,json
//	@Produce		json
//	@Param			grant_type		formData	string					true	"Grant type"	Enums(authorization_code, refresh_token)
//	@Param			code			formData	string					false	"Authorization code (authorization_code grant)"
//	@Param			code_verifier	formData	string					false	"PKCE code_verifier (authorization_code grant)"
//	@Param			redirect_uri	formData	string					false	"Cross-checked against the code when present"
//	@Param			client_id		formData	string					false	"Cross-checked against the code or token when present"
//	@Param			refresh_token	formData	string					false	"Refresh token (refresh_token grant)"
//	@Success		200				{object}	mcpsdk.TokenResponse	"access_token, refresh_token, token_type, expires_in, scope"
//	@Failure		400				{object}	mcpsdk.ErrorResponse	"error, error_description"
//	@Failure		500				{object}	mcpsdk.ErrorResponse	"error, error_description"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Header			200				{string}	Pragma					"no-cache"
//	@Router			/api/oauth/token [post]
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	switch grantType := strings.TrimSpace(r.Form.Get("grant_type")); grantType {
	case domain.GrantTypeAuthorizationCode:
		h.handleAuthorizationCodeGrant(w, r)
	case domain.GrantTypeRefreshToken:
		h.handleRefreshGrant(w, r)
	default:
		mcpsdk.ErrUnsupportedGrantType.
			WithDescription("Only authorization_code and refresh_token grants are supported").
			WriteError(w)
	}
}

func (h *TokenHandler) handleAuthorizationCodeGrant(w http.ResponseWriter, r *http.Request) {
	pair, err := h.TokenService.ExchangeAuthorizationCode(r.Context(), service.ExchangeCodeRequest{
		Code:         r.Form.Get("code"),
		CodeVerifier: r.Form.Get("code_verifier"),
		ClientID:     strings.TrimSpace(r.Form.Get("client_id")),
		RedirectURI:  strings.TrimSpace(r.Form.Get("redirect_uri")),
	})
	if err != nil {
		writeServiceError(w, r, err, "authorization_code grant failed")
		return
	}

	writeTokenPair(w, pair)
}

func (h *TokenHandler) handleRefreshGrant(w http.ResponseWriter, r *http.Request) {
	refresh := r.Form.Get("refresh_token")
	clientID := strings.TrimSpace(r.Form.Get("client_id"))

	pair, err := h.TokenService.ExchangeRefreshToken(r.Context(), refresh, clientID)
	if err != nil {
		writeServiceError(w, r, err, "refresh grant failed")
		return
	}

	writeTokenPair(w, pair)
}

func writeTokenPair(w http.ResponseWriter, pair *domain.TokenPair) {
	httpx.WriteJSON(w, http.StatusOK, mcpsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		Scope:        strings.TrimSpace(pair.Scope),
	})
}
