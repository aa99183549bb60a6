package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
	"github.com/aussiebroadwan/influxmcp/internal/server/store"
	"github.com/aussiebroadwan/influxmcp/pkg/cryptox"
	"github.com/aussiebroadwan/influxmcp/pkg/slogx"
)

// AuthorizeService encapsulates the OAuth2 authorization-code issuance flow.
type AuthorizeService struct {
	Store   store.Store
	CodeTTL time.Duration

	// AllowUnregisteredClients lets the authorize endpoint register an
	// unknown client_id on the fly, bound to the presented redirect URI.
	AllowUnregisteredClients bool

	// AutoRegisterOrigins restricts auto-registration to redirect URIs whose
	// origin matches one of these patterns. A pattern may use a leading
	// wildcard label, e.g. "https://*.claude.ai". Empty allows any origin.
	AutoRegisterOrigins []string

	Now func() time.Time
}

// AuthorizeRequest captures the inputs of an authorization request.
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               []string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// AuthorizeCodeResponse contains the authorization code and redirect information.
type AuthorizeCodeResponse struct {
	Code        string
	RedirectURI string
	State       string
	Scopes      []string
}

// IssueAuthorizationCode validates an authorization request, resolves or
// auto-registers the client and mints a single-use code bound to the PKCE
// challenge.
//
// Validation happens in a fixed order: response_type, client_id,
// redirect_uri, code_challenge, then the challenge method. The code expires
// after CodeTTL (default 10 minutes).
func (s *AuthorizeService) IssueAuthorizationCode(ctx context.Context, req AuthorizeRequest) (*AuthorizeCodeResponse, error) {
	log := slogx.FromContext(ctx)

	if strings.TrimSpace(req.ResponseType) != domain.ResponseTypeCode {
		return nil, oauthError(ErrUnsupportedResponseType, "Only response_type=code is supported")
	}

	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		return nil, oauthError(ErrInvalidRequest, "Missing client_id parameter")
	}

	redirectURI := strings.TrimSpace(req.RedirectURI)
	if redirectURI == "" {
		return nil, oauthError(ErrInvalidRequest, "Missing redirect_uri parameter")
	}

	challenge, method, err := validatePKCE(req.CodeChallenge, req.CodeChallengeMethod)
	if err != nil {
		return nil, err
	}

	client, err := s.resolveClient(ctx, clientID, redirectURI)
	if err != nil {
		return nil, err
	}

	if len(client.RedirectURIs) > 0 && !client.HasRedirectURI(redirectURI) {
		log.Warn("authorize: redirect_uri not registered", slog.String("client_id", client.ID))
		return nil, oauthError(ErrInvalidRequest, "redirect_uri does not match a registered redirect URI")
	}

	scopes := grantScopes(req.Scope, client.Scopes)

	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	ttl := s.CodeTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	now := nowOr(s.Now)
	record := domain.AuthorizationCode{
		CodeHash:            cryptox.FingerprintToken(code),
		ClientID:            client.ID,
		RedirectURI:         redirectURI,
		Scopes:              scopes,
		CodeChallenge:       challenge,
		CodeChallengeMethod: method,
		ExpiresAt:           now.Add(ttl),
		CreatedAt:           now,
	}

	if err := s.Store.AuthorizationCodes().CreateAuthorizationCode(ctx, record); err != nil {
		return nil, err
	}

	log.Info("authorization code issued",
		slog.String("client_id", client.ID),
		slog.String("scope", domain.JoinScopes(scopes)),
	)

	return &AuthorizeCodeResponse{
		Code:        code,
		RedirectURI: redirectURI,
		State:       req.State,
		Scopes:      scopes,
	}, nil
}

// resolveClient loads the client, registering it on first sight when the
// policy allows.
func (s *AuthorizeService) resolveClient(ctx context.Context, clientID, redirectURI string) (domain.Client, error) {
	client, err := s.Store.Clients().GetClient(ctx, clientID)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Client{}, err
	}

	if !s.AllowUnregisteredClients {
		return domain.Client{}, oauthError(ErrInvalidClient, "Unknown client_id")
	}
	if !originAllowed(redirectURI, s.AutoRegisterOrigins) {
		return domain.Client{}, oauthError(ErrInvalidClient, "Unknown client_id and redirect_uri origin is not allowed to auto-register")
	}

	client = domain.Client{
		ID:                      clientID,
		Name:                    domain.DefaultClientName,
		RedirectURIs:            []string{redirectURI},
		GrantTypes:              []string{domain.GrantTypeAuthorizationCode, domain.GrantTypeRefreshToken},
		ResponseTypes:           []string{domain.ResponseTypeCode},
		Scopes:                  domain.DefaultScopes(),
		TokenEndpointAuthMethod: domain.TokenEndpointAuthNone,
		SoftwareID:              domain.DefaultSoftwareID,
		SoftwareVersion:         domain.DefaultSoftwareVersion,
		AutoRegistered:          true,
		CreatedAt:               nowOr(s.Now),
	}

	if err := s.Store.Clients().CreateClient(ctx, client); err != nil {
		// Lost a race with a concurrent first request for the same client.
		if errors.Is(err, store.ErrAlreadyExists) {
			return s.Store.Clients().GetClient(ctx, clientID)
		}
		return domain.Client{}, err
	}

	slogx.FromContext(ctx).Info("client auto-registered",
		slog.String("client_id", clientID),
		slog.String("redirect_uri", redirectURI),
	)
	return client, nil
}

func validatePKCE(challenge, method string) (string, string, error) {
	challenge = strings.TrimSpace(challenge)
	if challenge == "" {
		return "", "", oauthError(ErrInvalidRequest, "Missing code_challenge parameter (PKCE is required)")
	}

	method = strings.TrimSpace(method)
	switch {
	case method == "", strings.EqualFold(method, cryptox.PKCEMethodS256):
		return challenge, cryptox.PKCEMethodS256, nil
	case strings.EqualFold(method, cryptox.PKCEMethodPlain):
		return challenge, cryptox.PKCEMethodPlain, nil
	default:
		return "", "", oauthError(ErrInvalidRequest, "Unsupported code_challenge_method")
	}
}

// grantScopes narrows the requested scopes to what the client registered.
// An empty request or an empty intersection yields the client's scopes.
func grantScopes(requested, clientScopes []string) []string {
	if len(clientScopes) == 0 {
		clientScopes = domain.DefaultScopes()
	}
	requested = dedupe(requested)
	if len(requested) == 0 {
		return dedupe(clientScopes)
	}
	if granted := intersectScopes(requested, clientScopes); len(granted) > 0 {
		return granted
	}
	return dedupe(clientScopes)
}

// originAllowed reports whether rawURL's origin matches any pattern.
func originAllowed(rawURL string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)

	for _, p := range patterns {
		pu, err := url.Parse(strings.TrimSpace(p))
		if err != nil || !strings.EqualFold(pu.Scheme, scheme) {
			continue
		}
		ph := strings.ToLower(pu.Host)
		if wildcard, ok := strings.CutPrefix(ph, "*."); ok {
			if strings.HasSuffix(host, "."+wildcard) {
				return true
			}
			continue
		}
		if ph == host {
			return true
		}
	}
	return false
}

func intersectScopes(a, b []string) []string {
	set := map[string]struct{}{}
	for _, s := range b {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
