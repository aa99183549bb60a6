package mcpsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
)

// MCPSession issues JSON-RPC calls against the MCP endpoint with a bearer
// token. It remembers the Mcp-Session-Id returned by initialize.
type MCPSession struct {
	client      *SDKClient
	accessToken string
	nextID      atomic.Int64

	mu        sync.Mutex
	sessionID string
}

// NewMCPSession returns a session that authenticates with accessToken.
// An empty token sends no Authorization header.
func (c *SDKClient) NewMCPSession(accessToken string) *MCPSession {
	return &MCPSession{client: c, accessToken: accessToken}
}

// SessionID returns the session id assigned by the server, if any.
func (s *MCPSession) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      *int64 `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (s *MCPSession) headers() map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if s.accessToken != "" {
		h["Authorization"] = "Bearer " + s.accessToken
	}
	if id := s.SessionID(); id != "" {
		h["Mcp-Session-Id"] = id
	}
	return h
}

// Call sends one request and decodes its result into result, which may be
// nil. A JSON-RPC error is returned as *RPCError.
func (s *MCPSession) Call(ctx context.Context, method string, params, result any) error {
	id := s.nextID.Add(1)
	resp, err := s.client.postJSON(ctx, s.client.MCPPath, rpcRequest{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  method,
		Params:  params,
	}, s.headers())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if err := parseErrorResponse(resp, body); err != nil {
			return err
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if sid := resp.Header.Get("Mcp-Session-Id"); sid != "" {
		s.mu.Lock()
		s.sessionID = sid
		s.mu.Unlock()
	}

	var envelope rpcResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

// Notify sends a notification. The server answers with no body.
func (s *MCPSession) Notify(ctx context.Context, method string, params any) error {
	resp, err := s.client.postJSON(ctx, s.client.MCPPath, rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	}, s.headers())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		return nil
	}
	if err := parseErrorResponse(resp, body); err != nil {
		return err
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}

// Initialize performs the initialize handshake and sends the initialized
// notification.
func (s *MCPSession) Initialize(ctx context.Context, clientName, clientVersion string) (*InitializeResult, error) {
	var res InitializeResult
	err := s.Call(ctx, "initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]string{"name": clientName, "version": clientVersion},
	}, &res)
	if err != nil {
		return nil, err
	}
	if err := s.Notify(ctx, "notifications/initialized", nil); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListTools returns the server's tool catalog.
func (s *MCPSession) ListTools(ctx context.Context) ([]Tool, error) {
	var res struct {
		Tools []Tool `json:"tools"`
	}
	if err := s.Call(ctx, "tools/list", nil, &res); err != nil {
		return nil, err
	}
	return res.Tools, nil
}

// CallTool invokes a tool by name.
func (s *MCPSession) CallTool(ctx context.Context, name string, args map[string]any) (*CallToolResult, error) {
	var res CallToolResult
	err := s.Call(ctx, "tools/call", map[string]any{"name": name, "arguments": args}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
