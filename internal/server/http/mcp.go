package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/influxmcp/internal/influx"
	"github.com/aussiebroadwan/influxmcp/internal/mcp"
	"github.com/aussiebroadwan/influxmcp/pkg/httpx"
	"github.com/aussiebroadwan/influxmcp/pkg/idx"
	"github.com/aussiebroadwan/influxmcp/pkg/slogx"
)

const (
	headerSessionID       = "Mcp-Session-Id"
	headerProtocolVersion = "MCP-Protocol-Version"

	defaultKeepAlive = 30 * time.Second
)

var initializedNotification = []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)

// MCPHandler exposes the dispatcher over plain JSON-RPC POST, streamable
// HTTP and the legacy SSE handshake.
type MCPHandler struct {
	Dispatcher *mcp.Dispatcher

	// BaseURL prefixes the message endpoint announced on /sse.
	BaseURL func(*http.Request) string

	// KeepAlive is the period of ": ping" comments on open streams.
	KeepAlive time.Duration

	// Closing ends every open stream when it is closed. Nil never fires.
	Closing <-chan struct{}
}

// HandleStreamable serves /mcp and /api/mcp.
//
//	@Summary		MCP endpoint
//	@Description	POST carries one JSON-RPC 2.0 message or a batch. With Accept: text/event-stream the reply is sent as a single SSE data frame.
//	@Description	GET opens an event stream that announces notifications/initialized and then sends keep-alive comments.
//	@Description	DELETE ends the session.
//	@Tags			MCP
//	@Accept			json
//	@Produce		json,text/event-stream
//	@Security		BearerAuth
//	@Param			request	body		object	true	"JSON-RPC request or batch"
//	@Success		200		{object}	object	"JSON-RPC response or batch"
//	@Success		204		"Only notifications were sent"
//	@Failure		401		{object}	map[string]string	"invalid_token (when authentication is required)"
//	@Failure		405		{object}	map[string]string	"Method not allowed"
//	@Failure		500		{object}	object				"InfluxDB is not configured"
//	@Router			/api/mcp [post]
func (h *MCPHandler) HandleStreamable(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.stream(w, r, false)
	case http.MethodDelete:
		if id, err := idx.Parse(r.Header.Get(headerSessionID)); err == nil {
			slogx.FromContext(r.Context()).Debug("mcp session closed", "session_id", id, "age", time.Since(id.Time()))
		}
		w.Header().Set(headerProtocolVersion, mcp.ProtocolVersion)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// HandleSSE serves the legacy GET /sse handshake.
//
//	@Summary		Legacy SSE handshake
//	@Description	Sends an endpoint event naming the /messages URL and a session id, then notifications/initialized, then keep-alive comments until the client disconnects.
//	@Tags			MCP
//	@Produce		text/event-stream
//	@Security		BearerAuth
//	@Success		200	{string}	string	"event stream"
//	@Router			/sse [get]
func (h *MCPHandler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	h.stream(w, r, true)
}

// HandleMessages accepts JSON-RPC posts for clients connected through /sse.
//
//	@Summary		Legacy SSE message endpoint
//	@Description	Same semantics as POST /api/mcp.
//	@Tags			MCP
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		object	true	"JSON-RPC request or batch"
//	@Success		200		{object}	object	"JSON-RPC response or batch"
//	@Success		204		"Only notifications were sent"
//	@Router			/messages [post]
func (h *MCPHandler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	h.handlePost(w, r)
}

func (h *MCPHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if clientID := httpx.ClientIDFromContext(ctx); clientID != "" {
		ctx = slogx.With(ctx, "client_id", clientID)
	}
	log := slogx.FromContext(ctx)

	w.Header().Set(headerProtocolVersion, mcp.ProtocolVersion)

	body, err := io.ReadAll(io.LimitReader(r.Body, httpx.MaxBodyBytes+1))
	if err != nil {
		log.Warn("mcp: read body", "err", err)
		httpx.WriteJSON(w, http.StatusBadRequest, mcp.ParseError())
		return
	}
	if len(body) > httpx.MaxBodyBytes {
		httpx.WriteJSON(w, http.StatusRequestEntityTooLarge, mcp.InvalidRequest())
		return
	}

	reply := h.Dispatcher.HandlePayload(ctx, body)
	if reply.Initialize {
		w.Header().Set(headerSessionID, idx.New().String())
	}
	if reply.Body == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		httpx.WriteJSON(w, http.StatusOK, reply.Body)
		return
	}

	payload, err := json.Marshal(reply.Body)
	if err != nil {
		log.Error("mcp: encode reply", "err", err)
		http.Error(w, "failed to encode reply", http.StatusInternalServerError)
		return
	}

	setEventStreamHeaders(w)
	w.WriteHeader(http.StatusOK)
	if err := writeEvent(w, "", payload); err != nil {
		log.Debug("mcp: write event", "err", err)
	}
}

type endpointEvent struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// stream holds an event stream open until the client goes away. The ticker
// is stopped exactly once, when stream returns.
func (h *MCPHandler) stream(w http.ResponseWriter, r *http.Request, announceEndpoint bool) {
	rc := http.NewResponseController(w)
	sessionID := idx.New().String()
	ctx := slogx.With(r.Context(), "session_id", sessionID)
	log := slogx.FromContext(ctx)

	// Streams outlive the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	setEventStreamHeaders(w)
	w.Header().Set(headerSessionID, sessionID)
	w.Header().Set(headerProtocolVersion, mcp.ProtocolVersion)
	w.WriteHeader(http.StatusOK)

	if announceEndpoint {
		endpoint, _ := json.Marshal(endpointEvent{URL: h.BaseURL(r) + "/messages", SessionID: sessionID})
		if err := writeEvent(w, "endpoint", endpoint); err != nil {
			return
		}
	}
	if err := writeEvent(w, "", initializedNotification); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		log.Warn("sse: streaming unsupported", "err", err)
		return
	}

	log.Debug("sse stream opened")

	interval := h.KeepAlive
	if interval <= 0 {
		interval = defaultKeepAlive
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("sse stream closed")
			return
		case <-h.Closing:
			log.Debug("sse stream closed for shutdown")
			return
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func setEventStreamHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

func writeEvent(w io.Writer, event string, data []byte) error {
	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

func methodNotAllowed(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
}

// configError is the JSON-RPC envelope sent when the server cannot reach
// InfluxDB at all. It has no id: no request was dispatched.
type configError struct {
	JSONRPC string     `json:"jsonrpc"`
	Error   *mcp.Error `json:"error"`
}

// RequireInfluxToken rejects MCP traffic with a 500 before dispatch when no
// InfluxDB token is configured.
func RequireInfluxToken(status InfluxStatus) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if status != nil && status.Configured() {
				next.ServeHTTP(w, r)
				return
			}

			slogx.FromContext(r.Context()).Error("mcp request rejected", "err", influx.ErrNotConfigured)
			httpx.WriteJSON(w, http.StatusInternalServerError, configError{
				JSONRPC: mcp.JSONRPCVersion,
				Error: &mcp.Error{
					Code:    mcp.CodeInternalError,
					Message: "Internal server error",
					Data:    influx.ErrNotConfigured.Error(),
				},
			})
		})
	}
}
