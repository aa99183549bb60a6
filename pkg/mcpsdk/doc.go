/*
Package mcpsdk provides a client SDK for the InfluxDB MCP server.

# Overview

The server exposes an OAuth 2.1 authorization server (dynamic registration,
authorization code with PKCE, refresh, revocation and introspection) in front
of a JSON-RPC Model Context Protocol endpoint. The SDK wraps both halves:

  - SDKClient: unauthenticated OAuth, discovery and health calls
  - MCPSession: JSON-RPC calls against the MCP endpoint with a bearer token

# Authorization Code Flow

	client := mcpsdk.NewSDKClient("https://mcp.example.com")

	reg, err := client.Register(ctx, mcpsdk.RegisterRequest{
		ClientName:   "my-agent",
		RedirectURIs: []string{"https://localhost/callback"},
	})

	pkce, err := mcpsdk.GeneratePKCEChallenge()
	auth, err := client.Authorize(ctx, mcpsdk.AuthorizeRequest{
		ClientID:    reg.ClientID,
		RedirectURI: "https://localhost/callback",
		PKCE:        pkce,
	})

	tokens, err := client.ExchangeAuthorizationCode(ctx, reg.ClientID, auth.Code,
		"https://localhost/callback", pkce.Verifier)

# MCP Calls

	session := client.NewMCPSession(tokens.AccessToken)
	info, err := session.Initialize(ctx, "my-agent", "0.1.0")
	tools, err := session.ListTools(ctx)
	res, err := session.CallTool(ctx, "query-data", map[string]any{
		"org":   "acme",
		"query": `from(bucket: "metrics") |> range(start: -1h)`,
	})

# Errors

OAuth endpoint failures are returned as *OAuth2Error. JSON-RPC failures are
returned as *RPCError, including the 500 the server answers with when it has
no InfluxDB credentials.
*/
package mcpsdk
