package http

import (
	"net/http"

	"github.com/aussiebroadwan/influxmcp/internal/server/service"
	"github.com/aussiebroadwan/influxmcp/pkg/httpx"
	"github.com/aussiebroadwan/influxmcp/pkg/mcpsdk"
)

// IntrospectHandler serves POST /api/oauth/introspect (RFC 7662).
type IntrospectHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Introspection Endpoint
//	@Description	Reports whether a token is active. Inactive, unknown and expired tokens all yield {"active": false}.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			token			formData	string							true	"Token to introspect"
//	@Param			token_type_hint	formData	string							false	"Hint about token type"	Enums(access_token, refresh_token)
//	@Success		200				{object}	mcpsdk.IntrospectionResponse	"active, client_id, scope, token_type, exp, iat"
//	@Failure		400				{object}	mcpsdk.ErrorResponse			"error, error_description"
//	@Router			/api/oauth/introspect [post]
func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	token := r.Form.Get("token")
	if token == "" {
		mcpsdk.ErrInvalidRequest.WithDescription("Missing token parameter").WriteError(w)
		return
	}

	info, err := h.TokenService.IntrospectToken(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err, "introspection failed")
		return
	}

	if !info.Active {
		httpx.WriteJSON(w, http.StatusOK, mcpsdk.IntrospectionResponse{Active: false})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, mcpsdk.IntrospectionResponse{
		Active:    true,
		Scope:     info.Scope,
		ClientID:  info.ClientID,
		TokenType: info.TokenType,
		Exp:       info.ExpiresAt.Unix(),
		Iat:       info.IssuedAt.Unix(),
	})
}
