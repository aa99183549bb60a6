package domain

import (
	"slices"
	"time"
)

// Grant and response types understood by the authorization server.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
	ResponseTypeCode           = "code"
	TokenEndpointAuthNone      = "none"
)

// Client is an OAuth client registration. Public clients authenticate with
// PKCE only, so SecretHash is informational.
type Client struct {
	ID                      string
	Name                    string
	SecretHash              string
	RegistrationTokenHash   string
	RedirectURIs            []string
	GrantTypes              []string
	ResponseTypes           []string
	Scopes                  []string
	TokenEndpointAuthMethod string

	Contacts        []string
	LogoURI         string
	ClientURI       string
	PolicyURI       string
	TosURI          string
	SoftwareID      string
	SoftwareVersion string

	// AutoRegistered marks clients created implicitly by the authorize endpoint.
	AutoRegistered bool
	CreatedAt      time.Time
}

// HasRedirectURI reports whether uri exactly matches a registered redirect URI.
func (c Client) HasRedirectURI(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}
