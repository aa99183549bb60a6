package mcpsdk

import (
	"net/http"
	"strings"
	"time"
)

// Server paths.
const (
	PathAuthorize            = "/api/oauth/authorize"
	PathToken                = "/api/oauth/token"
	PathRegister             = "/api/oauth/register"
	PathRevoke               = "/api/oauth/revoke"
	PathIntrospect           = "/api/oauth/introspect"
	PathClients              = "/api/oauth/clients/"
	PathAuthServerMetadata   = "/.well-known/oauth-authorization-server"
	PathProtectedResourceDoc = "/.well-known/oauth-protected-resource"
	PathMCP                  = "/api/mcp"
	PathHealth               = "/health"
	PathLivez                = "/livez"
	PathReadyz               = "/readyz"
)

// SDKClient is a client for the InfluxDB MCP server. It covers the OAuth
// endpoints and plain JSON-RPC calls against the MCP endpoint.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// MCPPath is the JSON-RPC endpoint, PathMCP by default.
	MCPPath string
}

// NewSDKClient creates a new client for the server at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		MCPPath: PathMCP,
	}
}
