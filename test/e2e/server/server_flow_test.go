package server_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/influxmcp/pkg/mcpsdk"
)

func TestDiscoveryAndHealth(t *testing.T) {
	baseURL := setupStack(t, nil)
	client := mcpsdk.NewSDKClient(baseURL)

	status, err := client.GetStatus(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", status.Status)

	meta, err := client.GetAuthorizationServerMetadata(t.Context())
	require.NoError(t, err)
	require.Equal(t, baseURL, meta.Issuer)
	require.Equal(t, baseURL+mcpsdk.PathToken, meta.TokenEndpoint)
	require.Contains(t, meta.CodeChallengeMethodsSupported, "S256")

	health, err := client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", health.Checks.InfluxDB)
}

func TestToolRoundTrip(t *testing.T) {
	baseURL := setupStack(t, map[string]string{"REQUIRE_AUTH": "true"})
	client := mcpsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	session, _, _ := authorizedSession(t, client)

	tools, err := session.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, tools, 4)

	_, err = session.CallTool(ctx, "write-data", map[string]any{
		"org":       influxOrg,
		"bucket":    influxBucket,
		"data":      "cpu,host=e2e usage=0.75 1700000000",
		"precision": "s",
	})
	require.NoError(t, err)

	res, err := session.CallTool(ctx, "query-data", map[string]any{
		"org":   influxOrg,
		"query": `from(bucket: "` + influxBucket + `") |> range(start: 0) |> filter(fn: (r) => r._measurement == "cpu")`,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	require.Contains(t, res.Content[0].Text, "usage")

	res, err = session.CallTool(ctx, "create-org", map[string]any{"name": "e2e-created-org"})
	require.NoError(t, err)
	require.Contains(t, res.Content[0].Text, "e2e-created-org")

	var orgs struct {
		Contents []struct {
			Text string `json:"text"`
		} `json:"contents"`
	}
	require.NoError(t, session.Call(ctx, "resources/read", map[string]any{"uri": "influxdb://orgs"}, &orgs))
	require.NotEmpty(t, orgs.Contents)
	require.Contains(t, orgs.Contents[0].Text, influxOrg)
}

func TestAccessTokenLifecycle(t *testing.T) {
	baseURL := setupStack(t, map[string]string{"REQUIRE_AUTH": "true"})
	client := mcpsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	// Without a token the transport refuses to serve.
	err := client.NewMCPSession("").Call(ctx, "ping", nil, nil)
	require.Error(t, err)

	_, tokens, clientID := authorizedSession(t, client)

	refreshed, err := client.RefreshGrant(ctx, clientID, tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, tokens.AccessToken, refreshed.AccessToken)

	info, err := client.Introspect(ctx, refreshed.AccessToken)
	require.NoError(t, err)
	require.True(t, info.Active)

	require.NoError(t, client.RevokeToken(ctx, refreshed.AccessToken, "access_token"))

	err = client.NewMCPSession(refreshed.AccessToken).Call(ctx, "ping", nil, nil)
	require.Error(t, err)

	var oauthErr *mcpsdk.OAuth2Error
	require.ErrorAs(t, err, &oauthErr)
	require.Equal(t, http.StatusUnauthorized, oauthErr.StatusCode)
	require.Equal(t, mcpsdk.ErrorCodeInvalidToken, oauthErr.Code)
}
