package http

import (
	"net/http"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
	"github.com/aussiebroadwan/influxmcp/internal/server/service"
	"github.com/aussiebroadwan/influxmcp/pkg/httpx"
	"github.com/aussiebroadwan/influxmcp/pkg/mcpsdk"
)

// RegisterHandler serves dynamic client registration (RFC 7591) and the
// registration read endpoint (RFC 7592).
type RegisterHandler struct {
	RegistrationService *service.RegistrationService

	// BaseURL prefixes registration_client_uri.
	BaseURL func(*http.Request) string
}

// HandleRegister handles POST /api/oauth/register
//
//	@Summary		Dynamic Client Registration
//	@Description	Registers a public OAuth client. The response carries a client_secret and a registration_access_token that are never shown again.
//	@Tags			OAuth2
//	@Accept			json
//	@Produce		json
//	@Param			request	body		mcpsdk.RegisterRequest	true	"Client metadata"
//	@Success		201		{object}	mcpsdk.RegisterResponse	"Registered client"
//	@Failure		400		{object}	mcpsdk.ErrorResponse	"invalid_client_metadata"
//	@Failure		500		{object}	mcpsdk.ErrorResponse	"error, error_description"
//	@Router			/api/oauth/register [post]
func (h *RegisterHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req mcpsdk.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		mcpsdk.ErrInvalidClientMetadata.WithDescription("Request body must be a JSON object").WriteError(w)
		return
	}

	reg, err := h.RegistrationService.Register(r.Context(), service.RegisterRequest{
		ClientName:      req.ClientName,
		RedirectURIs:    req.RedirectURIs,
		GrantTypes:      req.GrantTypes,
		ResponseTypes:   req.ResponseTypes,
		Scope:           req.Scope,
		Contacts:        req.Contacts,
		LogoURI:         req.LogoURI,
		ClientURI:       req.ClientURI,
		PolicyURI:       req.PolicyURI,
		TosURI:          req.TosURI,
		SoftwareID:      req.SoftwareID,
		SoftwareVersion: req.SoftwareVersion,
	})
	if err != nil {
		writeServiceError(w, r, err, "client registration failed")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, mcpsdk.RegisterResponse{
		ClientInformation:       clientInformation(reg.Client),
		ClientSecret:            reg.ClientSecret,
		ClientSecretExpiresAt:   0,
		RegistrationClientURI:   h.BaseURL(r) + mcpsdk.PathClients + reg.Client.ID,
		RegistrationAccessToken: reg.RegistrationAccessToken,
	})
}

// HandleGet handles GET /api/oauth/clients/{client_id}
//
//	@Summary		Read Client Registration
//	@Description	Returns the registration of a client. Requires the registration_access_token issued at registration.
//	@Tags			OAuth2
//	@Produce		json
//	@Security		BearerAuth
//	@Param			client_id		path		string						true	"Client identifier"
//	@Param			Authorization	header		string						true	"Bearer registration_access_token"
//	@Success		200				{object}	mcpsdk.ClientInformation	"Client registration"
//	@Failure		401				{object}	mcpsdk.ErrorResponse		"invalid_token"
//	@Router			/api/oauth/clients/{client_id} [get]
func (h *RegisterHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	token, _ := httpx.BearerToken(r)

	client, err := h.RegistrationService.GetRegistration(r.Context(), r.PathValue("client_id"), token)
	if err != nil {
		writeServiceError(w, r, err, "client read failed")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, clientInformation(client))
}

func clientInformation(c domain.Client) mcpsdk.ClientInformation {
	return mcpsdk.ClientInformation{
		ClientID:                c.ID,
		ClientName:              c.Name,
		RedirectURIs:            c.RedirectURIs,
		GrantTypes:              c.GrantTypes,
		ResponseTypes:           c.ResponseTypes,
		Scope:                   domain.JoinScopes(c.Scopes),
		TokenEndpointAuthMethod: c.TokenEndpointAuthMethod,
		Contacts:                c.Contacts,
		LogoURI:                 c.LogoURI,
		ClientURI:               c.ClientURI,
		PolicyURI:               c.PolicyURI,
		TosURI:                  c.TosURI,
		SoftwareID:              c.SoftwareID,
		SoftwareVersion:         c.SoftwareVersion,
		ClientIDIssuedAt:        c.CreatedAt.Unix(),
	}
}
