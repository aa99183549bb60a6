package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
	"github.com/aussiebroadwan/influxmcp/internal/server/store"
	"github.com/aussiebroadwan/influxmcp/pkg/cryptox"
	"github.com/aussiebroadwan/influxmcp/pkg/slogx"
)

// RegistrationService implements dynamic client registration (RFC 7591)
// and the read half of client management (RFC 7592).
type RegistrationService struct {
	Store store.Store
	Now   func() time.Time
}

// RegisterRequest is the client metadata accepted at registration.
type RegisterRequest struct {
	ClientName      string
	RedirectURIs    []string
	GrantTypes      []string
	ResponseTypes   []string
	Scope           string
	Contacts        []string
	LogoURI         string
	ClientURI       string
	PolicyURI       string
	TosURI          string
	SoftwareID      string
	SoftwareVersion string
}

// RegisteredClient is returned once, at registration. The plaintext secret
// and registration access token are never retrievable again.
type RegisteredClient struct {
	Client                  domain.Client
	ClientSecret            string
	RegistrationAccessToken string
}

// Register validates metadata and stores a new public client.
func (s *RegistrationService) Register(ctx context.Context, req RegisterRequest) (*RegisteredClient, error) {
	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		return nil, oauthError(ErrInvalidClientMetadata, "client_name is required")
	}

	for _, uri := range req.RedirectURIs {
		if err := validateRedirectURI(uri); err != nil {
			return nil, oauthError(ErrInvalidClientMetadata, err.Error())
		}
	}

	grantTypes := dedupe(req.GrantTypes)
	if len(grantTypes) == 0 {
		grantTypes = []string{domain.GrantTypeAuthorizationCode}
	}
	for _, gt := range grantTypes {
		if gt != domain.GrantTypeAuthorizationCode && gt != domain.GrantTypeRefreshToken {
			return nil, oauthError(ErrInvalidClientMetadata, fmt.Sprintf("unsupported grant_type %q", gt))
		}
	}

	responseTypes := dedupe(req.ResponseTypes)
	if len(responseTypes) == 0 {
		responseTypes = []string{domain.ResponseTypeCode}
	}
	if slices.ContainsFunc(responseTypes, func(rt string) bool { return rt != domain.ResponseTypeCode }) {
		return nil, oauthError(ErrInvalidClientMetadata, "only response_type code is supported")
	}

	scopes := dedupe(strings.Fields(req.Scope))
	if len(scopes) == 0 {
		scopes = domain.DefaultScopes()
	}

	clientID, err := cryptox.GenerateIdentifier(domain.ClientIDPrefix)
	if err != nil {
		return nil, err
	}
	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}
	regToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	secretHash, err := cryptox.HashSecret(secret)
	if err != nil {
		return nil, err
	}
	regTokenHash, err := cryptox.HashSecret(regToken)
	if err != nil {
		return nil, err
	}

	client := domain.Client{
		ID:                      clientID,
		Name:                    name,
		SecretHash:              secretHash,
		RegistrationTokenHash:   regTokenHash,
		RedirectURIs:            dedupe(req.RedirectURIs),
		GrantTypes:              grantTypes,
		ResponseTypes:           responseTypes,
		Scopes:                  scopes,
		TokenEndpointAuthMethod: domain.TokenEndpointAuthNone,
		Contacts:                dedupe(req.Contacts),
		LogoURI:                 req.LogoURI,
		ClientURI:               req.ClientURI,
		PolicyURI:               req.PolicyURI,
		TosURI:                  req.TosURI,
		SoftwareID:              cmp.Or(strings.TrimSpace(req.SoftwareID), domain.DefaultSoftwareID),
		SoftwareVersion:         cmp.Or(strings.TrimSpace(req.SoftwareVersion), domain.DefaultSoftwareVersion),
		CreatedAt:               nowOr(s.Now).Truncate(time.Second),
	}

	if err := s.Store.Clients().CreateClient(ctx, client); err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("client registered",
		slog.String("client_id", client.ID),
		slog.String("client_name", client.Name),
	)

	return &RegisteredClient{
		Client:                  client,
		ClientSecret:            secret,
		RegistrationAccessToken: regToken,
	}, nil
}

// GetRegistration returns a client's registration after checking the
// registration access token issued with it. Auto-registered clients have no
// such token and cannot be read.
func (s *RegistrationService) GetRegistration(ctx context.Context, clientID, registrationToken string) (domain.Client, error) {
	if strings.TrimSpace(registrationToken) == "" {
		return domain.Client{}, oauthError(ErrInvalidToken, "Missing registration access token")
	}

	client, err := s.Store.Clients().GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, oauthError(ErrInvalidToken, "Invalid registration access token")
		}
		return domain.Client{}, err
	}

	if client.RegistrationTokenHash == "" || cryptox.VerifySecret(registrationToken, client.RegistrationTokenHash) != nil {
		return domain.Client{}, oauthError(ErrInvalidToken, "Invalid registration access token")
	}
	return client, nil
}

func validateRedirectURI(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid redirect_uri %q", raw)
	}
	if !u.IsAbs() {
		return fmt.Errorf("redirect_uri %q must be an absolute URI", raw)
	}
	if u.Fragment != "" || strings.Contains(raw, "#") {
		return fmt.Errorf("redirect_uri %q must not contain a fragment", raw)
	}
	return nil
}
