package domain

import "strings"

const (
	ScopeMCPTools      = "mcp:tools"
	ScopeMCPResources  = "mcp:resources"
	ScopeMCPPrompts    = "mcp:prompts"
	ScopeInfluxDBRead  = "influxdb:read"
	ScopeInfluxDBWrite = "influxdb:write"
)

const (
	DefaultClientName      = "Claude.ai"
	DefaultSoftwareID      = "influxdb-mcp-server"
	DefaultSoftwareVersion = "1.0.0"
	ClientIDPrefix         = "influxdb_mcp"
	TokenTypeBearer        = "Bearer"
)

// Scope pairs a scope name with a human readable description.
type Scope struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var supportedScopes = []Scope{
	{ScopeMCPTools, "Access to MCP tools"},
	{ScopeMCPResources, "Access to MCP resources"},
	{ScopeMCPPrompts, "Access to MCP prompts"},
	{ScopeInfluxDBRead, "Read access to InfluxDB"},
	{ScopeInfluxDBWrite, "Write access to InfluxDB"},
}

// DefaultScopes is granted when a request names no scope. mcp:prompts is
// advertised but opt-in.
func DefaultScopes() []string {
	return []string{ScopeMCPTools, ScopeMCPResources, ScopeInfluxDBRead, ScopeInfluxDBWrite}
}

// SupportedScopes lists every scope the server understands.
func SupportedScopes() []Scope {
	out := make([]Scope, len(supportedScopes))
	copy(out, supportedScopes)
	return out
}

// SupportedScopeNames is SupportedScopes reduced to names.
func SupportedScopeNames() []string {
	out := make([]string, 0, len(supportedScopes))
	for _, s := range supportedScopes {
		out = append(out, s.Name)
	}
	return out
}

// JoinScopes renders scopes in the space-delimited wire form.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}
