package server_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/influxmcp/pkg/mcpsdk"
)

/*
 * Container setup shared by the end-to-end tests: one InfluxDB and one
 * MCP server on a private network, driven through pkg/mcpsdk.
 */

const (
	testImageName = "influxmcp-test:latest"

	influxAlias  = "influxdb"
	influxOrg    = "e2e-org"
	influxBucket = "e2e-bucket"
	influxToken  = "e2e-admin-token"

	testRedirectURI = "http://localhost:8976/callback"
)

// TestMain builds the server image once for all tests and removes it after.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	fmt.Fprintf(os.Stdout, "Building InfluxDB MCP Server Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up InfluxDB MCP Server Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/influxmcp/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	_ = exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName).Run()
}

// setupStack starts InfluxDB and the server and returns the server base URL.
// extraEnv overrides the server environment.
func setupStack(t *testing.T, extraEnv map[string]string) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container tests in -short mode")
	}
	ctx := context.Background()

	nw, err := network.New(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := nw.Remove(context.Background()); err != nil {
			t.Logf("failed to remove network: %v", err)
		}
	})

	influx, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          "influxdb:2.7",
			ExposedPorts:   []string{"8086/tcp"},
			Networks:       []string{nw.Name},
			NetworkAliases: map[string][]string{nw.Name: {influxAlias}},
			Env: map[string]string{
				"DOCKER_INFLUXDB_INIT_MODE":        "setup",
				"DOCKER_INFLUXDB_INIT_USERNAME":    "admin",
				"DOCKER_INFLUXDB_INIT_PASSWORD":    "admin-password",
				"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
				"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
				"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
			},
			WaitingFor: wait.ForHTTP("/health").
				WithPort("8086/tcp").
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { terminate(t, influx) })

	env := map[string]string{
		"INFLUXDB_URL":   "http://" + influxAlias + ":8086",
		"INFLUXDB_TOKEN": influxToken,
		"INFLUXDB_ORG":   influxOrg,
		"ENV":            "test",
		"LOG_LEVEL":      "info",
		"LOG_FORMAT":     "json",
		// Raise the limits so rapid test traffic is not throttled
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	server, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Networks:     []string{nw.Name},
			Env:          env,
			WaitingFor: wait.ForHTTP("/livez").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { terminate(t, server) })

	host, err := server.Host(ctx)
	require.NoError(t, err)
	port, err := server.MappedPort(ctx, "8080")
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, port.Port())

	// InfluxDB finishes its setup after /health turns green.
	client := mcpsdk.NewSDKClient(baseURL)
	require.Eventually(t, func() bool {
		health, err := client.GetReadiness(ctx)
		return err == nil && health.Status == "ok"
	}, 60*time.Second, time.Second, "server never became ready")

	return baseURL
}

func terminate(t *testing.T, c testcontainers.Container) {
	if err := c.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

// authorizedSession registers a client, completes the PKCE flow and returns
// an initialized MCP session plus the issued tokens.
func authorizedSession(t *testing.T, client *mcpsdk.SDKClient) (*mcpsdk.MCPSession, *mcpsdk.TokenResponse, string) {
	t.Helper()
	ctx := t.Context()

	reg, err := client.Register(ctx, mcpsdk.RegisterRequest{
		ClientName:   "e2e-client",
		RedirectURIs: []string{testRedirectURI},
	})
	require.NoError(t, err)

	pkce, err := mcpsdk.GeneratePKCEChallenge()
	require.NoError(t, err)

	authz, err := client.Authorize(ctx, mcpsdk.AuthorizeRequest{
		ClientID:    reg.ClientID,
		RedirectURI: testRedirectURI,
		State:       "e2e-state",
		PKCE:        pkce,
	})
	require.NoError(t, err)
	require.Equal(t, "e2e-state", authz.State)

	tokens, err := client.ExchangeAuthorizationCode(ctx, reg.ClientID, authz.Code, testRedirectURI, pkce.Verifier)
	require.NoError(t, err)

	session := client.NewMCPSession(tokens.AccessToken)
	_, err = session.Initialize(ctx, "e2e", "1.0.0")
	require.NoError(t, err)

	return session, tokens, reg.ClientID
}
