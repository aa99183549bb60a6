// Package mcp implements the Model Context Protocol method table over
// JSON-RPC 2.0. Transport concerns live in the HTTP layer; a Dispatcher only
// turns request payloads into replies.
package mcp

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/influxmcp/internal/influx"
	"github.com/aussiebroadwan/influxmcp/internal/telemetry"
	"github.com/aussiebroadwan/influxmcp/pkg/slogx"
)

// ProtocolVersion is the MCP revision this server speaks.
const ProtocolVersion = "2024-11-05"

// Defaults for serverInfo.
const (
	DefaultServerName    = "influxdb-mcp-server"
	DefaultServerVersion = "1.0.0"
)

// MCP methods.
const (
	MethodInitialize            = "initialize"
	MethodPing                  = "ping"
	MethodToolsList             = "tools/list"
	MethodToolsCall             = "tools/call"
	MethodResourcesList         = "resources/list"
	MethodResourcesRead         = "resources/read"
	MethodResourceTemplatesList = "resources/templates/list"
	MethodPromptsList           = "prompts/list"
	MethodPromptsGet            = "prompts/get"
	MethodLoggingSetLevel       = "logging/setLevel"
)

// Influx is the collaborator behind tools and resources.
type Influx interface {
	WriteData(ctx context.Context, org, bucket, data, precision string) (string, error)
	QueryData(ctx context.Context, org, query string) (string, error)
	CreateBucket(ctx context.Context, name, orgID string, retentionSeconds int64) (influx.Bucket, error)
	CreateOrg(ctx context.Context, name, description string) (influx.Organization, error)
	ListOrgs(ctx context.Context) ([]influx.Organization, error)
	ListBuckets(ctx context.Context) ([]influx.Bucket, error)
	ListMeasurements(ctx context.Context, bucket string) ([]string, error)
}

// Config holds the choices that differ between MCP clients.
type Config struct {
	ServerName    string
	ServerVersion string

	// ToolNameStyle is ToolNameHyphen (default) or ToolNameUnderscore.
	ToolNameStyle string

	// LoggingEnabled advertises the logging capability and serves
	// logging/setLevel against LevelVar.
	LoggingEnabled bool
	LevelVar       *slog.LevelVar

	// DefaultOrg fills the org argument of tools that take one when the
	// caller leaves it out. Empty keeps org required.
	DefaultOrg string
}

// Dispatcher maps JSON-RPC requests onto the method table. It holds no
// per-session state and is safe for concurrent use.
type Dispatcher struct {
	cfg       Config
	influx    Influx
	telemetry *telemetry.Recorder
	tools     []*tool
	resources *resourceRouter
}

// NewDispatcher resolves the tool schemas and resource templates.
func NewDispatcher(cfg Config, in Influx, rec *telemetry.Recorder) (*Dispatcher, error) {
	cfg.ServerName = cmp.Or(cfg.ServerName, DefaultServerName)
	cfg.ServerVersion = cmp.Or(cfg.ServerVersion, DefaultServerVersion)
	cfg.ToolNameStyle = cmp.Or(cfg.ToolNameStyle, ToolNameHyphen)
	if cfg.ToolNameStyle != ToolNameHyphen && cfg.ToolNameStyle != ToolNameUnderscore {
		return nil, fmt.Errorf("mcp: unknown tool name style %q", cfg.ToolNameStyle)
	}

	tools, err := resolveTools()
	if err != nil {
		return nil, fmt.Errorf("mcp: %w", err)
	}
	resources, err := newResourceRouter()
	if err != nil {
		return nil, fmt.Errorf("mcp: %w", err)
	}

	return &Dispatcher{
		cfg:       cfg,
		influx:    in,
		telemetry: rec,
		tools:     tools,
		resources: resources,
	}, nil
}

// Reply is the outcome of one HTTP payload.
type Reply struct {
	// Body is a *Response, a []*Response for batches, or nil when every
	// message was a notification.
	Body any

	// Initialize is set when the payload contained an initialize request.
	Initialize bool
}

// HandlePayload decodes a single message or a batch and dispatches it.
func (d *Dispatcher) HandlePayload(ctx context.Context, body []byte) Reply {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return Reply{Body: ParseError()}
	}

	if body[0] != '[' {
		resp, sawInit := d.handleRaw(ctx, body)
		if resp == nil {
			return Reply{Initialize: sawInit}
		}
		return Reply{Body: resp, Initialize: sawInit}
	}

	var batch []json.RawMessage
	if err := json.Unmarshal(body, &batch); err != nil || len(batch) == 0 {
		return Reply{Body: InvalidRequest()}
	}

	var (
		replies []*Response
		sawInit bool
	)
	for _, raw := range batch {
		resp, isInit := d.handleRaw(ctx, raw)
		sawInit = sawInit || isInit
		if resp != nil {
			replies = append(replies, resp)
		}
	}
	if len(replies) == 0 {
		return Reply{Initialize: sawInit}
	}
	return Reply{Body: replies, Initialize: sawInit}
}

func (d *Dispatcher) handleRaw(ctx context.Context, raw json.RawMessage) (*Response, bool) {
	req, ok := decodeRequest(raw)
	if !ok {
		return InvalidRequest(), false
	}
	return d.Handle(ctx, req), req.Method == MethodInitialize
}

// Handle dispatches one request. It returns nil for notifications.
func (d *Dispatcher) Handle(ctx context.Context, req *Request) *Response {
	log := slogx.FromContext(ctx)
	log.Debug("mcp_request", "method", req.Method, "notification", req.IsNotification())

	if req.IsNotification() {
		return nil
	}

	v, err := d.dispatch(ctx, req)
	if err != nil {
		rpcErr := toRPCError(err)
		if rpcErr.Code != CodeMethodNotFound {
			log.Warn("mcp_request_failed", "method", req.Method, "code", rpcErr.Code, "error", err)
		}
		return failure(req.ID, rpcErr)
	}
	return result(req.ID, v)
}

func (d *Dispatcher) dispatch(ctx context.Context, req *Request) (any, error) {
	switch req.Method {
	case MethodInitialize:
		return d.initialize(), nil
	case MethodPing:
		return struct{}{}, nil
	case MethodToolsList:
		return map[string]any{"tools": d.Tools()}, nil
	case MethodToolsCall:
		return d.callTool(ctx, req.Params)
	case MethodResourcesList:
		return map[string]any{"resources": staticResources}, nil
	case MethodResourceTemplatesList:
		return map[string]any{"resourceTemplates": resourceTemplates}, nil
	case MethodResourcesRead:
		return d.readResource(ctx, req.Params)
	case MethodPromptsList:
		return map[string]any{"prompts": d.Prompts()}, nil
	case MethodPromptsGet:
		return d.getPrompt(req.Params)
	case MethodLoggingSetLevel:
		if d.cfg.LoggingEnabled {
			return d.setLevel(req.Params)
		}
	}
	return nil, newError(CodeMethodNotFound, "Method not found", nil)
}

// InitializeResult is the initialize result.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
}

// ServerInfo names the server.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (d *Dispatcher) initialize() InitializeResult {
	caps := map[string]any{
		"tools":     struct{}{},
		"resources": struct{}{},
		"prompts":   struct{}{},
	}
	if d.cfg.LoggingEnabled {
		caps["logging"] = struct{}{}
	}
	return InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    caps,
		ServerInfo:      ServerInfo{Name: d.cfg.ServerName, Version: d.cfg.ServerVersion},
	}
}

// Tools returns the tool catalog in the configured naming style.
func (d *Dispatcher) Tools() []Tool {
	out := make([]Tool, 0, len(d.tools))
	for _, t := range d.tools {
		listed := t.Tool
		listed.Name = displayName(t.Name, d.cfg.ToolNameStyle)
		if d.cfg.DefaultOrg != "" && t.takesOrg() {
			listed.InputSchema = withoutRequired(t.InputSchema, argOrg)
		}
		out = append(out, listed)
	}
	return out
}

// Prompts returns the prompt catalog.
func (d *Dispatcher) Prompts() []Prompt {
	out := make([]Prompt, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, p.Prompt)
	}
	return out
}

// TextContent is an MCP text content block.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallToolResult is the tools/call result.
type CallToolResult struct {
	Content []TextContent `json:"content"`
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (d *Dispatcher) callTool(ctx context.Context, params json.RawMessage) (any, error) {
	var p callToolParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	t := d.findTool(p.Name)
	if t == nil {
		return nil, internalError("Unknown tool: " + p.Name)
	}

	args, err := t.prepareArguments(p.Arguments, d.cfg.DefaultOrg)
	if err != nil {
		return nil, invalidParams(err.Error())
	}

	ctx, end := d.telemetry.StartToolCall(ctx, t.Name)
	v, err := t.call(ctx, d.influx, args)
	end(err)
	if err != nil {
		return nil, err
	}

	text, err := textOf(v)
	if err != nil {
		return nil, err
	}
	return CallToolResult{Content: []TextContent{{Type: "text", Text: text}}}, nil
}

func (d *Dispatcher) findTool(name string) *tool {
	name = canonicalName(name)
	for _, t := range d.tools {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// ReadResourceResult is the resources/read result.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

type readResourceParams struct {
	URI string `json:"uri"`
}

func (d *Dispatcher) readResource(ctx context.Context, params json.RawMessage) (any, error) {
	var p readResourceParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	v, ok, err := d.resources.read(ctx, d.influx, p.URI)
	if !ok {
		return nil, internalError("Unknown resource: " + p.URI)
	}
	d.telemetry.RecordResourceRead(ctx, p.URI, err)
	if err != nil {
		return nil, err
	}

	text, err := textOf(v)
	if err != nil {
		return nil, err
	}
	return ReadResourceResult{Contents: []ResourceContents{{URI: p.URI, MimeType: mimeJSON, Text: text}}}, nil
}

type getPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments"`
}

func (d *Dispatcher) getPrompt(params json.RawMessage) (any, error) {
	var p getPromptParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	pr, ok := findPrompt(p.Name)
	if !ok {
		return nil, invalidParams("Unknown prompt: " + p.Name)
	}
	return PromptResult{
		Description: pr.Description,
		Messages: []PromptMessage{{
			Role:    "assistant",
			Content: TextContent{Type: "text", Text: pr.render(p.Arguments)},
		}},
	}, nil
}

type setLevelParams struct {
	Level string `json:"level"`
}

func (d *Dispatcher) setLevel(params json.RawMessage) (any, error) {
	var p setLevelParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	level, ok := slogx.LookupLevel(p.Level)
	if !ok {
		return nil, invalidParams("Unknown log level: " + p.Level)
	}
	if d.cfg.LevelVar != nil {
		d.cfg.LevelVar.Set(level)
	}
	return struct{}{}, nil
}

func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return invalidParams(err.Error())
	}
	return nil
}

// textOf renders a collaborator result: strings verbatim, anything else as
// indented JSON.
func textOf(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// toRPCError maps handler and collaborator errors onto JSON-RPC errors.
func toRPCError(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	switch {
	case errors.Is(err, influx.ErrInvalidArgument):
		return invalidParams(err.Error())
	case errors.Is(err, influx.ErrUnauthorized):
		return newError(CodeUnauthorized, "Upstream unauthorized", err.Error())
	case errors.Is(err, influx.ErrUnavailable):
		return newError(CodeUnavailable, "Upstream unavailable", err.Error())
	default:
		return internalError(err.Error())
	}
}
