// Package mcp talks to a code-intelligence server over the Model Context
// Protocol (JSON-RPC 2.0 over a subprocess's stdio or over HTTP) and exposes
// the results as prompt.IntelligenceSource.
package mcp

import (
	"context"
	"encoding/json"
)

// Protocol selects the transport.
type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolStdio Protocol = "stdio"
)

const (
	protocolVersion = "2024-11-05"
	clientName      = "steer"
	clientVersion   = "1.0.0"
)

// ToolSchema is a tool as listed by tools/list.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// Capabilities is the server's capability object from initialize. A present
// key means the capability is offered.
type Capabilities struct {
	Tools     json.RawMessage `json:"tools,omitempty"`
	Resources json.RawMessage `json:"resources,omitempty"`
	Prompts   json.RawMessage `json:"prompts,omitempty"`
	Logging   json.RawMessage `json:"logging,omitempty"`
}

// HasTools reports whether the server offers tools.
func (c Capabilities) HasTools() bool {
	return len(c.Tools) > 0 && string(c.Tools) != "null" && string(c.Tools) != "false"
}

// CallResult is the outcome of one tools/call.
type CallResult struct {
	Success   bool            `json:"success"`
	Output    json.RawMessage `json:"output,omitempty"`
	Error     string          `json:"error,omitempty"`
	LatencyMs int64           `json:"latency_ms"`
}

// Transport is one connection to an MCP server.
type Transport interface {
	// Connect establishes the connection and performs the initialize handshake.
	Connect(ctx context.Context) error

	// Disconnect closes the connection.
	Disconnect() error

	// ListTools retrieves the available tools.
	ListTools(ctx context.Context) ([]ToolSchema, error)

	// CallTool invokes a tool. Tool-level failures are reported in CallResult,
	// transport failures as error.
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*CallResult, error)

	// Ping checks if the server is responsive.
	Ping(ctx context.Context) error

	// IsConnected returns current connection status.
	IsConnected() bool
}

// rpcRequest is a JSON-RPC request. A nil ID makes it a notification.
type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      *int        `json:"id,omitempty"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// rpcResponse is a JSON-RPC response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int            `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is the error member of a response.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func newRequest(id int, method string, params interface{}) rpcRequest {
	return rpcRequest{JSONRPC: "2.0", ID: &id, Method: method, Params: params}
}

func newNotification(method string) rpcRequest {
	return rpcRequest{JSONRPC: "2.0", Method: method}
}

func initializeParams() map[string]interface{} {
	return map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]interface{}{},
		"clientInfo": map[string]string{
			"name":    clientName,
			"version": clientVersion,
		},
	}
}

// initializeResult is the result of initialize.
type initializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
}

// toolContent is the MCP tools/call result shape.
type toolContent struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	StructuredContent json.RawMessage `json:"structuredContent,omitempty"`
	IsError           bool            `json:"isError,omitempty"`
}
