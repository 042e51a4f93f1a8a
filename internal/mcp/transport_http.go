package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"steer/internal/logging"
)

// HTTPTransport posts JSON-RPC messages to a single MCP endpoint.
type HTTPTransport struct {
	mu sync.RWMutex

	baseURL    string
	client     *http.Client
	connected  bool
	serverInfo *initializeResult

	nextID atomic.Int64
}

// NewHTTPTransport creates a transport for baseURL. A non-positive timeout
// leaves request deadlines to the caller's context.
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	client := &http.Client{}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Connect performs the initialize handshake.
func (t *HTTPTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connected {
		return nil
	}

	resp, err := t.post(ctx, newRequest(t.id(), "initialize", initializeParams()))
	if err != nil {
		return fmt.Errorf("failed to connect to MCP server at %s: %w", t.baseURL, err)
	}
	var result initializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return fmt.Errorf("failed to parse initialize result: %w", err)
	}
	if _, err := t.post(ctx, newNotification("notifications/initialized")); err != nil {
		return fmt.Errorf("failed to send initialized notification: %w", err)
	}

	t.serverInfo = &result
	t.connected = true
	logging.Intel("MCP HTTP transport connected to %s (server %s %s)",
		t.baseURL, result.ServerInfo.Name, result.ServerInfo.Version)
	return nil
}

// Disconnect closes the connection.
func (t *HTTPTransport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return nil
	}
	t.connected = false
	t.serverInfo = nil
	t.client.CloseIdleConnections()
	logging.Intel("MCP HTTP transport disconnected from %s", t.baseURL)
	return nil
}

// ListTools retrieves available tools from the server.
func (t *HTTPTransport) ListTools(ctx context.Context) ([]ToolSchema, error) {
	resp, err := t.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	var result struct {
		Tools []ToolSchema `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to parse tools response: %w", err)
	}

	logging.IntelDebug("MCP server returned %d tools", len(result.Tools))
	return result.Tools, nil
}

// CallTool invokes a tool on the server.
func (t *HTTPTransport) CallTool(ctx context.Context, name string, args map[string]interface{}) (*CallResult, error) {
	if !t.IsConnected() {
		return nil, fmt.Errorf("not connected to MCP server")
	}

	start := time.Now()
	resp, err := t.call(ctx, "tools/call", map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	latencyMs := time.Since(start).Milliseconds()

	if err != nil {
		return &CallResult{Success: false, Error: err.Error(), LatencyMs: latencyMs}, nil
	}
	return &CallResult{Success: true, Output: resp.Result, LatencyMs: latencyMs}, nil
}

// Capabilities returns what the server announced during initialize.
func (t *HTTPTransport) Capabilities() (Capabilities, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.serverInfo == nil {
		return Capabilities{}, false
	}
	return t.serverInfo.Capabilities, true
}

// Ping checks if the server is responsive.
func (t *HTTPTransport) Ping(ctx context.Context) error {
	_, err := t.call(ctx, "ping", nil)
	return err
}

// IsConnected returns current connection status.
func (t *HTTPTransport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

func (t *HTTPTransport) id() int {
	return int(t.nextID.Add(1))
}

func (t *HTTPTransport) call(ctx context.Context, method string, params interface{}) (*rpcResponse, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.connected {
		return nil, fmt.Errorf("not connected to MCP server")
	}
	return t.post(ctx, newRequest(t.id(), method, params))
}

// post sends one message. Notifications may get an empty body back, which
// yields an empty response.
func (t *HTTPTransport) post(ctx context.Context, msg rpcRequest) (*rpcResponse, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode >= 400 {
		return nil, fmt.Errorf("server returned status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(data)))
	}

	var resp rpcResponse
	if len(bytes.TrimSpace(data)) == 0 {
		if msg.ID != nil {
			return nil, fmt.Errorf("empty response to %s", msg.Method)
		}
		return &resp, nil
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Error != nil {
		return &resp, fmt.Errorf("MCP error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	return &resp, nil
}

var _ Transport = (*HTTPTransport)(nil)
