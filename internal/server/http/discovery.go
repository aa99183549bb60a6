package http

import (
	"net/http"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
	"github.com/aussiebroadwan/influxmcp/pkg/cryptox"
	"github.com/aussiebroadwan/influxmcp/pkg/httpx"
	"github.com/aussiebroadwan/influxmcp/pkg/mcpsdk"
)

// AuthorizationServerMetadataHandler godoc
//
//	@Summary		OAuth 2.0 Authorization Server Metadata
//	@Description	RFC 8414 discovery document. Endpoint URLs are absolute and share the issuer's origin.
//	@Tags			Discovery
//	@Produce		json
//	@Success		200	{object}	mcpsdk.AuthorizationServerMetadata
//	@Router			/.well-known/oauth-authorization-server [get]
func AuthorizationServerMetadataHandler(baseURL func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base := baseURL(r)
		md := mcpsdk.AuthorizationServerMetadata{
			Issuer:                            base,
			AuthorizationEndpoint:             base + mcpsdk.PathAuthorize,
			TokenEndpoint:                     base + mcpsdk.PathToken,
			RegistrationEndpoint:              base + mcpsdk.PathRegister,
			RevocationEndpoint:                base + mcpsdk.PathRevoke,
			IntrospectionEndpoint:             base + mcpsdk.PathIntrospect,
			MCPEndpoint:                       base + mcpsdk.PathMCP,
			ResponseTypesSupported:            []string{domain.ResponseTypeCode},
			GrantTypesSupported:               []string{domain.GrantTypeAuthorizationCode, domain.GrantTypeRefreshToken},
			CodeChallengeMethodsSupported:     []string{cryptox.PKCEMethodS256, cryptox.PKCEMethodPlain},
			TokenEndpointAuthMethodsSupported: []string{domain.TokenEndpointAuthNone},
			ScopesSupported:                   domain.SupportedScopeNames(),
		}
		md.AuthorizationResponseIssParameterSupported = true

		httpx.WriteJSON(w, http.StatusOK, md)
	}
}

// ProtectedResourceMetadataHandler godoc
//
//	@Summary		OAuth 2.0 Protected Resource Metadata
//	@Description	Tells MCP clients which authorization server issues tokens for this resource.
//	@Tags			Discovery
//	@Produce		json
//	@Success		200	{object}	mcpsdk.ProtectedResourceMetadata
//	@Router			/.well-known/oauth-protected-resource [get]
func ProtectedResourceMetadataHandler(baseURL func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base := baseURL(r)
		httpx.WriteJSON(w, http.StatusOK, mcpsdk.ProtectedResourceMetadata{
			Resource:               base,
			AuthorizationServers:   []string{base},
			BearerMethodsSupported: []string{"header"},
			ScopesSupported:        domain.SupportedScopeNames(),
		})
	}
}
