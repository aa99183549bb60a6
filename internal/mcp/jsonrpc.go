package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONRPCVersion is the only envelope version accepted.
const JSONRPCVersion = "2.0"

// JSON-RPC error codes. The -320xx range carries classified upstream failures.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeUnauthorized   = -32001
	CodeUnavailable    = -32002
)

// Request is a JSON-RPC request. A request without an id is a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no reply.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response carries exactly one of Result or Error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("%s (%d): %v", e.Message, e.Code, e.Data)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

func newError(code int, message string, data any) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

func internalError(data string) *Error {
	return newError(CodeInternalError, "Internal error", data)
}

func invalidParams(data string) *Error {
	return newError(CodeInvalidParams, "Invalid params", data)
}

func result(id json.RawMessage, v any) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Result: v}
}

func failure(id json.RawMessage, err *Error) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Error: err}
}

// ParseError is the reply to a body that is not JSON.
func ParseError() *Response {
	return failure(nil, newError(CodeParseError, "Parse error", nil))
}

// InvalidRequest is the reply to JSON that is not a valid request envelope.
func InvalidRequest() *Response {
	return failure(nil, newError(CodeInvalidRequest, "Invalid Request", nil))
}

// decodeRequest validates a single envelope.
func decodeRequest(raw json.RawMessage) (*Request, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, false
	}
	if req.JSONRPC != JSONRPCVersion || req.Method == "" {
		return nil, false
	}
	return &req, true
}
