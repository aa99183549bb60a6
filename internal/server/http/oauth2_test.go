package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/influxmcp/pkg/cryptox"
	"github.com/aussiebroadwan/influxmcp/pkg/httpx"
	"github.com/aussiebroadwan/influxmcp/pkg/mcpsdk"
)

var clientIDPattern = regexp.MustCompile(`^influxdb_mcp_[0-9a-f]{32}$`)

func TestRegisteredClientFlow(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)
	const ip = "203.0.113.10"

	req := httptest.NewRequest(http.MethodPost, mcpsdk.PathRegister, strings.NewReader(`{
		"client_name": "Claude",
		"redirect_uris": ["`+testRedirectURI+`"],
		"grant_types": ["authorization_code", "refresh_token"]
	}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(r, req, ip)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	reg := decode[mcpsdk.RegisterResponse](t, rec)
	require.Regexp(t, clientIDPattern, reg.ClientID)
	require.Equal(t, "Claude", reg.ClientName)
	require.Equal(t, []string{testRedirectURI}, reg.RedirectURIs)
	require.Equal(t, "none", reg.TokenEndpointAuthMethod)
	require.NotEmpty(t, reg.ClientSecret)
	require.NotEmpty(t, reg.RegistrationAccessToken)
	require.Equal(t, testBaseURL+mcpsdk.PathClients+reg.ClientID, reg.RegistrationClientURI)
	require.NotZero(t, reg.ClientIDIssuedAt)

	t.Run("read registration", func(t *testing.T) {
		get := httptest.NewRequest(http.MethodGet, mcpsdk.PathClients+reg.ClientID, nil)
		rec := serve(r, get, ip)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, mcpsdk.ErrorCodeInvalidToken, decode[mcpsdk.ErrorResponse](t, rec).Error)

		get = httptest.NewRequest(http.MethodGet, mcpsdk.PathClients+reg.ClientID, nil)
		get.Header.Set("Authorization", "Bearer "+reg.RegistrationAccessToken)
		rec = serve(r, get, ip)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		info := decode[mcpsdk.ClientInformation](t, rec)
		require.Equal(t, reg.ClientID, info.ClientID)
		require.Equal(t, reg.ClientIDIssuedAt, info.ClientIDIssuedAt)
	})

	code := authorize(t, r, reg.ClientID, ip)
	exchange := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"code_verifier": {testVerifier},
		"client_id":     {reg.ClientID},
		"redirect_uri":  {testRedirectURI},
	}

	rec = postForm(r, mcpsdk.PathToken, exchange, ip)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	tokens := decode[mcpsdk.TokenResponse](t, rec)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	require.Equal(t, "Bearer", tokens.TokenType)
	require.Positive(t, tokens.ExpiresIn)

	// Codes are single use.
	rec = postForm(r, mcpsdk.PathToken, exchange, ip)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, mcpsdk.ErrorCodeInvalidGrant, decode[mcpsdk.ErrorResponse](t, rec).Error)

	rec = postForm(r, mcpsdk.PathToken, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {tokens.RefreshToken},
	}, ip)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	refreshed := decode[mcpsdk.TokenResponse](t, rec)
	require.NotEmpty(t, refreshed.AccessToken)
	require.NotEqual(t, tokens.AccessToken, refreshed.AccessToken)

	rec = postForm(r, mcpsdk.PathIntrospect, url.Values{"token": {refreshed.AccessToken}}, ip)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[mcpsdk.IntrospectionResponse](t, rec)
	require.True(t, info.Active)
	require.Equal(t, reg.ClientID, info.ClientID)
	require.Greater(t, info.Exp, info.Iat)

	rec = postForm(r, mcpsdk.PathRevoke, url.Values{"token": {refreshed.AccessToken}}, ip)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{}`, rec.Body.String())

	rec = postForm(r, mcpsdk.PathIntrospect, url.Values{"token": {refreshed.AccessToken}}, ip)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"active":false}`, rec.Body.String())
}

func TestRegisterRejectsBadMetadata(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `client_name=x`},
		{"missing name", `{"redirect_uris":["https://a.example/cb"]}`},
		{"relative redirect", `{"client_name":"x","redirect_uris":["/cb"]}`},
		{"implicit grant", `{"client_name":"x","grant_types":["implicit"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, mcpsdk.PathRegister, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := serve(r, req, "203.0.113.11")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, mcpsdk.ErrorCodeInvalidClientMetadata, decode[mcpsdk.ErrorResponse](t, rec).Error)
		})
	}
}

func TestAuthorizeErrors(t *testing.T) {
	t.Parallel()

	valid := func() url.Values {
		return url.Values{
			"response_type":  {"code"},
			"client_id":      {"claude-client"},
			"redirect_uri":   {testRedirectURI},
			"code_challenge": {cryptox.S256Challenge(testVerifier)},
		}
	}

	tests := []struct {
		name       string
		mutate     func(url.Values)
		closed     bool
		wantStatus int
		wantCode   string
	}{
		{"response type", func(v url.Values) { v.Set("response_type", "token") }, false, http.StatusBadRequest, mcpsdk.ErrorCodeUnsupportedResponseType},
		{"missing client", func(v url.Values) { v.Del("client_id") }, false, http.StatusBadRequest, mcpsdk.ErrorCodeInvalidRequest},
		{"missing redirect", func(v url.Values) { v.Del("redirect_uri") }, false, http.StatusBadRequest, mcpsdk.ErrorCodeInvalidRequest},
		{"missing challenge", func(v url.Values) { v.Del("code_challenge") }, false, http.StatusBadRequest, mcpsdk.ErrorCodeInvalidRequest},
		{"bad method", func(v url.Values) { v.Set("code_challenge_method", "S512") }, false, http.StatusBadRequest, mcpsdk.ErrorCodeInvalidRequest},
		{"unknown client", func(url.Values) {}, true, http.StatusUnauthorized, mcpsdk.ErrorCodeInvalidClient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newTestRouter(t, func(r *Router) { r.AuthorizeService.AllowUnregisteredClients = !tt.closed })

			q := valid()
			tt.mutate(q)
			rec := serve(r, httptest.NewRequest(http.MethodGet, mcpsdk.PathAuthorize+"?"+q.Encode(), nil), "203.0.113.20")
			require.Equal(t, tt.wantStatus, rec.Code)
			require.Empty(t, rec.Header().Get("Location"))
			require.Equal(t, tt.wantCode, decode[mcpsdk.ErrorResponse](t, rec).Error)
		})
	}
}

func TestAuthorizeRedirectMismatch(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)
	const ip = "203.0.113.21"

	authorize(t, r, "claude-client", ip)

	q := url.Values{
		"response_type":  {"code"},
		"client_id":      {"claude-client"},
		"redirect_uri":   {"https://evil.example/cb"},
		"code_challenge": {cryptox.S256Challenge(testVerifier)},
	}
	rec := serve(r, httptest.NewRequest(http.MethodGet, mcpsdk.PathAuthorize+"?"+q.Encode(), nil), ip)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, rec.Header().Get("Location"))
	require.Equal(t, mcpsdk.ErrorCodeInvalidRequest, decode[mcpsdk.ErrorResponse](t, rec).Error)
}

func TestAuthorizeHTMLRedirect(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	q := url.Values{
		"response_type":  {"code"},
		"client_id":      {"browser-client"},
		"redirect_uri":   {testRedirectURI},
		"state":          {"s1"},
		"code_challenge": {cryptox.S256Challenge(testVerifier)},
	}
	req := httptest.NewRequest(http.MethodGet, mcpsdk.PathAuthorize+"?"+q.Encode(), nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := serve(r, req, "203.0.113.22")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Empty(t, rec.Header().Get("Location"))

	body := rec.Body.String()
	require.Contains(t, body, "Authorization Successful")
	require.Contains(t, body, "https://claude.ai/api/mcp/auth_callback?code=")
	require.Contains(t, body, "window.location.replace(")
}

func TestAuthorizePostForm(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	rec := postForm(r, mcpsdk.PathAuthorize, url.Values{
		"response_type":         {"code"},
		"client_id":             {"form-client"},
		"redirect_uri":          {testRedirectURI},
		"code_challenge":        {testVerifier},
		"code_challenge_method": {"plain"},
	}, "203.0.113.23")
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.NotEmpty(t, loc.Query().Get("code"))
	require.False(t, loc.Query().Has("state"))
}

func TestTokenErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		form        url.Values
		wantStatus  int
		wantCode    string
	}{
		{"missing grant type", "application/x-www-form-urlencoded", url.Values{}, http.StatusBadRequest, mcpsdk.ErrorCodeUnsupportedGrantType},
		{"blank grant type", "application/x-www-form-urlencoded", url.Values{"grant_type": {" "}}, http.StatusBadRequest, mcpsdk.ErrorCodeUnsupportedGrantType},
		{"unsupported grant", "application/x-www-form-urlencoded", url.Values{"grant_type": {"password"}}, http.StatusBadRequest, mcpsdk.ErrorCodeUnsupportedGrantType},
		{"malformed json body", "application/json", url.Values{"grant_type": {"authorization_code"}}, http.StatusBadRequest, mcpsdk.ErrorCodeInvalidRequest},
		{"plain text body", "text/plain", url.Values{"grant_type": {"authorization_code"}}, http.StatusBadRequest, mcpsdk.ErrorCodeInvalidRequest},
		{"missing verifier", "application/x-www-form-urlencoded", url.Values{"grant_type": {"authorization_code"}, "code": {"abc"}}, http.StatusBadRequest, mcpsdk.ErrorCodeInvalidRequest},
		{"unknown code", "application/x-www-form-urlencoded", url.Values{"grant_type": {"authorization_code"}, "code": {"abc"}, "code_verifier": {testVerifier}}, http.StatusBadRequest, mcpsdk.ErrorCodeInvalidGrant},
		{"unknown refresh", "application/x-www-form-urlencoded", url.Values{"grant_type": {"refresh_token"}, "refresh_token": {"nope"}}, http.StatusBadRequest, mcpsdk.ErrorCodeInvalidGrant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newTestRouter(t)

			req := httptest.NewRequest(http.MethodPost, mcpsdk.PathToken, strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", tt.contentType)
			rec := serve(r, req, "203.0.113.30")
			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantCode, decode[mcpsdk.ErrorResponse](t, rec).Error)
		})
	}
}

func TestTokenJSONBody(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)
	const ip = "203.0.113.34"

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, mcpsdk.PathToken, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		return serve(r, req, ip)
	}

	code := authorize(t, r, "json-client", ip)
	rec := post(`{"grant_type":"authorization_code","code":"` + code + `","code_verifier":"` + testVerifier + `","client_id":"json-client"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tokens := decode[mcpsdk.TokenResponse](t, rec)
	require.NotEmpty(t, tokens.AccessToken)

	rec = post(`{"grant_type":"refresh_token","refresh_token":"` + tokens.RefreshToken + `"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = post(`{"grant_type":"refresh_token","refresh_token":{"nested":true}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, mcpsdk.ErrorCodeInvalidRequest, decode[mcpsdk.ErrorResponse](t, rec).Error)

	rec = post(`{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, mcpsdk.ErrorCodeUnsupportedGrantType, decode[mcpsdk.ErrorResponse](t, rec).Error)
}

func TestTokenWrongVerifierKeepsCode(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)
	const ip = "203.0.113.31"

	code := authorize(t, r, "pkce-client", ip)

	rec := postForm(r, mcpsdk.PathToken, url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"code_verifier": {strings.Repeat("x", 64)},
	}, ip)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, mcpsdk.ErrorCodeInvalidGrant, decode[mcpsdk.ErrorResponse](t, rec).Error)

	rec = postForm(r, mcpsdk.PathToken, url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"code_verifier": {testVerifier},
	}, ip)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestTokenRateLimit(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)
	const sharedIP = "203.0.113.32"

	exchange := func(clientID, ip string) int {
		form := url.Values{"grant_type": {"password"}}
		if clientID != "" {
			form.Set("client_id", clientID)
		}
		return postForm(r, mcpsdk.PathToken, form, ip).Code
	}

	var last int
	for range httpx.StrictLimit.Burst + 1 {
		last = exchange("client-a", sharedIP)
	}
	require.Equal(t, http.StatusTooManyRequests, last)

	// Another client behind the same address keeps its own budget.
	require.Equal(t, http.StatusBadRequest, exchange("client-b", sharedIP))

	// So does the address itself when no client_id is sent.
	require.Equal(t, http.StatusBadRequest, exchange("", sharedIP))

	require.Equal(t, http.StatusBadRequest, exchange("client-a", "203.0.113.33"))
}

func TestRevokeAndIntrospectRequireToken(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	for _, path := range []string{mcpsdk.PathRevoke, mcpsdk.PathIntrospect} {
		rec := postForm(r, path, url.Values{}, "203.0.113.40")
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
		require.Equal(t, mcpsdk.ErrorCodeInvalidRequest, decode[mcpsdk.ErrorResponse](t, rec).Error)
	}

	// Unknown tokens are not an error for either endpoint.
	rec := postForm(r, mcpsdk.PathRevoke, url.Values{"token": {"unknown"}}, "203.0.113.40")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postForm(r, mcpsdk.PathIntrospect, url.Values{"token": {"unknown"}}, "203.0.113.40")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"active":false}`, rec.Body.String())
}

func TestRevokeRefreshTokenEndsSession(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)
	const ip = "203.0.113.41"

	tokens := issueTokens(t, r, "revoking-client", ip)

	rec := postForm(r, mcpsdk.PathRevoke, url.Values{
		"token":           {tokens.RefreshToken},
		"token_type_hint": {"refresh_token"},
	}, ip)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postForm(r, mcpsdk.PathToken, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {tokens.RefreshToken},
	}, ip)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, mcpsdk.ErrorCodeInvalidGrant, decode[mcpsdk.ErrorResponse](t, rec).Error)
}
