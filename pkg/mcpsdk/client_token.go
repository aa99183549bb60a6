package mcpsdk

import (
	"context"
	"net/http"
	"net/url"
)

// ExchangeAuthorizationCode trades an authorization code and its PKCE
// verifier for tokens.
func (c *SDKClient) ExchangeAuthorizationCode(
	ctx context.Context,
	clientID, code, redirectURI, codeVerifier string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"code_verifier": {codeVerifier},
	}
	if clientID != "" {
		data.Set("client_id", clientID)
	}
	if redirectURI != "" {
		data.Set("redirect_uri", redirectURI)
	}

	return c.requestToken(ctx, data)
}

// RefreshGrant requests a new access token using a refresh token.
func (c *SDKClient) RefreshGrant(
	ctx context.Context,
	clientID, refreshToken string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	if clientID != "" {
		data.Set("client_id", clientID)
	}

	return c.requestToken(ctx, data)
}

// RevokeToken revokes an access or refresh token (RFC 7009).
func (c *SDKClient) RevokeToken(ctx context.Context, token, tokenTypeHint string) error {
	data := url.Values{"token": {token}}
	if tokenTypeHint != "" {
		data.Set("token_type_hint", tokenTypeHint)
	}

	resp, err := c.postForm(ctx, PathRevoke, data)
	if err != nil {
		return err
	}

	var ignored map[string]any
	return decodeJSON(resp, &ignored, http.StatusOK)
}

// Introspect reports whether a token is active (RFC 7662).
func (c *SDKClient) Introspect(ctx context.Context, token string) (*IntrospectionResponse, error) {
	resp, err := c.postForm(ctx, PathIntrospect, url.Values{"token": {token}})
	if err != nil {
		return nil, err
	}

	var out IntrospectionResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) requestToken(ctx context.Context, data url.Values) (*TokenResponse, error) {
	resp, err := c.postForm(ctx, PathToken, data)
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}
