package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)

	reg, err := f.register.Register(context.Background(), RegisterRequest{
		ClientName:   "T",
		RedirectURIs: []string{"https://x/cb"},
	})
	require.NoError(t, err)

	require.Regexp(t, regexp.MustCompile(`^influxdb_mcp_[0-9a-f]{32}$`), reg.Client.ID)
	require.Len(t, reg.ClientSecret, 64)
	require.Len(t, reg.RegistrationAccessToken, 64)
	require.Equal(t, domain.TokenEndpointAuthNone, reg.Client.TokenEndpointAuthMethod)
	require.Equal(t, []string{domain.GrantTypeAuthorizationCode}, reg.Client.GrantTypes)
	require.Equal(t, []string{domain.ResponseTypeCode}, reg.Client.ResponseTypes)
	require.Equal(t, domain.DefaultScopes(), reg.Client.Scopes)
	require.Equal(t, domain.DefaultSoftwareID, reg.Client.SoftwareID)
	require.Equal(t, domain.DefaultSoftwareVersion, reg.Client.SoftwareVersion)
	require.NotContains(t, reg.Client.SecretHash, reg.ClientSecret)

	stored, err := f.register.GetRegistration(context.Background(), reg.Client.ID, reg.RegistrationAccessToken)
	require.NoError(t, err)
	require.Equal(t, reg.Client.ID, stored.ID)

	_, err = f.register.GetRegistration(context.Background(), reg.Client.ID, reg.ClientSecret)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.register.GetRegistration(context.Background(), "missing", reg.RegistrationAccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRegisterRejectsBadMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing client_name", RegisterRequest{RedirectURIs: []string{"https://x/cb"}}},
		{"blank client_name", RegisterRequest{ClientName: "   "}},
		{"relative redirect", RegisterRequest{ClientName: "T", RedirectURIs: []string{"/cb"}}},
		{"fragment redirect", RegisterRequest{ClientName: "T", RedirectURIs: []string{"https://x/cb#frag"}}},
		{"unknown grant type", RegisterRequest{ClientName: "T", GrantTypes: []string{"password"}}},
		{"unknown response type", RegisterRequest{ClientName: "T", ResponseTypes: []string{"token"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			_, err := f.register.Register(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrInvalidClientMetadata)
			require.NotEmpty(t, Describe(err))
		})
	}
}

func TestAutoRegisteredClientHasNoRegistrationAccess(t *testing.T) {
	f := newFixture(t)
	_ = f.issueCode(t, "auto-client")

	_, err := f.register.GetRegistration(context.Background(), "auto-client", "anything")
	require.ErrorIs(t, err, ErrInvalidToken)
}
