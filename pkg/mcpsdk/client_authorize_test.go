package mcpsdk

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratePKCEChallenge(t *testing.T) {
	t.Parallel()

	pkce, err := GeneratePKCEChallenge()
	require.NoError(t, err)
	require.NotNil(t, pkce)

	require.Len(t, pkce.Verifier, 64)
	require.Equal(t, "S256", pkce.Method)

	hash := sha256.Sum256([]byte(pkce.Verifier))
	require.Equal(t, base64.RawURLEncoding.EncodeToString(hash[:]), pkce.Challenge)

	other, err := GeneratePKCEChallenge()
	require.NoError(t, err)
	require.NotEqual(t, pkce.Verifier, other.Verifier)
}

func TestBuildAuthorizeURL(t *testing.T) {
	t.Parallel()

	client := NewSDKClient("https://mcp.example.com/")

	t.Run("minimal parameters", func(t *testing.T) {
		u := client.BuildAuthorizeURL(AuthorizeRequest{ClientID: "test-client", RedirectURI: "https://app.example.com/callback"})
		require.True(t, strings.HasPrefix(u, "https://mcp.example.com/api/oauth/authorize?"))
		require.Contains(t, u, "response_type=code")
		require.Contains(t, u, "client_id=test-client")
		require.Contains(t, u, "redirect_uri=https%3A%2F%2Fapp.example.com%2Fcallback")
		require.NotContains(t, u, "state=")
		require.NotContains(t, u, "code_challenge")
	})

	t.Run("with state and scopes", func(t *testing.T) {
		u := client.BuildAuthorizeURL(AuthorizeRequest{
			ClientID:    "test-client",
			RedirectURI: "https://app.example.com/callback",
			State:       "random-state",
			Scopes:      []string{"mcp:tools", "influxdb:read"},
		})
		require.Contains(t, u, "state=random-state")
		require.Contains(t, u, "scope=mcp%3Atools+influxdb%3Aread")
	})

	t.Run("with PKCE", func(t *testing.T) {
		pkce, err := GeneratePKCEChallenge()
		require.NoError(t, err)

		u := client.BuildAuthorizeURL(AuthorizeRequest{ClientID: "c", RedirectURI: "https://x/cb", PKCE: pkce})
		require.Contains(t, u, "code_challenge="+pkce.Challenge)
		require.Contains(t, u, "code_challenge_method=S256")
	})
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode string
		wantErr  string
	}{
		{
			name: "redirect with code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, PathAuthorize, r.URL.Path)
				require.Equal(t, "application/json", r.Header.Get("Accept"))
				http.Redirect(w, r, "https://x/cb?code=abc&state=s1&iss=https%3A%2F%2Fmcp.example.com", http.StatusFound)
			},
			wantCode: "abc",
		},
		{
			name: "redirect with error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "https://x/cb?error=access_denied&error_description=nope", http.StatusFound)
			},
			wantErr: "access_denied: nope",
		},
		{
			name: "json error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				ErrUnsupportedResponseType.WriteError(w)
			},
			wantErr: "unsupported_response_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)

			client := NewSDKClient(srv.URL)
			res, err := client.Authorize(context.Background(), AuthorizeRequest{
				ClientID:    "c",
				RedirectURI: "https://x/cb",
				State:       "s1",
			})
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				var oauthErr *OAuth2Error
				require.ErrorAs(t, err, &oauthErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantCode, res.Code)
			require.Equal(t, "s1", res.State)
			require.Equal(t, "https://mcp.example.com", res.Issuer)
		})
	}
}
