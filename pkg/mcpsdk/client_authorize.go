package mcpsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/influxmcp/pkg/cryptox"
)

// PKCEChallenge holds the PKCE verifier and challenge pair.
// The verifier is kept secret by the client, and the challenge is sent to the authorization endpoint.
type PKCEChallenge struct {
	// Verifier is the high-entropy random string (kept secret)
	Verifier string

	// Challenge is the base64url-encoded SHA256 hash of the verifier (sent to server)
	Challenge string

	// Method is always "S256"
	Method string
}

// GeneratePKCEChallenge creates a new PKCE code verifier and challenge pair.
// The verifier is 64 hex characters, inside the 43-128 range of RFC 7636.
func GeneratePKCEChallenge() (*PKCEChallenge, error) {
	verifier, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE verifier: %w", err)
	}

	return &PKCEChallenge{
		Verifier:  verifier,
		Challenge: cryptox.S256Challenge(verifier),
		Method:    cryptox.PKCEMethodS256,
	}, nil
}

// AuthorizeRequest holds the parameters of an authorization request.
type AuthorizeRequest struct {
	ClientID    string
	RedirectURI string
	State       string
	Scopes      []string
	PKCE        *PKCEChallenge
}

func (r AuthorizeRequest) values() url.Values {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", r.ClientID)
	params.Set("redirect_uri", r.RedirectURI)

	if r.State != "" {
		params.Set("state", r.State)
	}
	if len(r.Scopes) > 0 {
		params.Set("scope", strings.Join(r.Scopes, " "))
	}
	if r.PKCE != nil {
		params.Set("code_challenge", r.PKCE.Challenge)
		params.Set("code_challenge_method", r.PKCE.Method)
	}
	return params
}

// BuildAuthorizeURL constructs the authorization URL a browser should be sent to.
//
// Example:
//
//	pkce, _ := mcpsdk.GeneratePKCEChallenge()
//	u := client.BuildAuthorizeURL(mcpsdk.AuthorizeRequest{
//		ClientID:    reg.ClientID,
//		RedirectURI: "https://localhost/callback",
//		State:       "random-state",
//		PKCE:        pkce,
//	})
//	// Keep pkce.Verifier for ExchangeAuthorizationCode.
func (c *SDKClient) BuildAuthorizeURL(req AuthorizeRequest) string {
	return fmt.Sprintf("%s%s?%s", c.BaseURL, PathAuthorize, req.values().Encode())
}

// AuthorizeResult is the parsed redirect of a successful authorization.
type AuthorizeResult struct {
	Code   string
	State  string
	Issuer string
}

// Authorize calls the authorization endpoint without following the redirect
// and returns the code carried by the Location header.
func (c *SDKClient) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	// Create HTTP client that doesn't follow redirects
	noRedirectClient := &http.Client{
		Timeout:   c.HTTPClient.Timeout,
		Transport: c.HTTPClient.Transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BuildAuthorizeURL(req), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := noRedirectClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusFound {
		return nil, parseErrorResponse(resp, bodyBytes)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return nil, fmt.Errorf("redirect response missing Location header")
	}

	redirectURL, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redirect URL: %w", err)
	}

	query := redirectURL.Query()
	code := query.Get("code")
	if code == "" {
		if errorCode := query.Get("error"); errorCode != "" {
			return nil, &OAuth2Error{
				StatusCode:  resp.StatusCode,
				Code:        errorCode,
				Description: query.Get("error_description"),
			}
		}
		return nil, fmt.Errorf("redirect missing authorization code")
	}

	return &AuthorizeResult{
		Code:   code,
		State:  query.Get("state"),
		Issuer: query.Get("iss"),
	}, nil
}
