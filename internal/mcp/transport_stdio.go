package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"steer/internal/logging"
)

// maxLineBytes bounds one JSON-RPC line from the server.
const maxLineBytes = 4 * 1024 * 1024

// StdioTransport runs the MCP server as a subprocess and exchanges
// newline-delimited JSON-RPC messages over its stdin/stdout.
type StdioTransport struct {
	mu sync.RWMutex

	command string
	args    []string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.ReadCloser
	stderr  io.ReadCloser

	connected  bool
	serverInfo *initializeResult

	pendingReqs map[int]chan *rpcResponse
	nextID      int

	wg sync.WaitGroup
}

// NewStdioTransport creates a transport for a command line such as "codegraph-mcp --stdio".
func NewStdioTransport(endpoint string) *StdioTransport {
	parts := strings.Fields(endpoint)
	var cmd string
	var args []string
	if len(parts) > 0 {
		cmd = parts[0]
		args = parts[1:]
	}

	return &StdioTransport{
		command:     cmd,
		args:        args,
		pendingReqs: make(map[int]chan *rpcResponse),
		nextID:      1,
	}
}

// Connect starts the subprocess, the reader loops and the initialize handshake.
func (t *StdioTransport) Connect(ctx context.Context) error {
	if err := t.start(); err != nil {
		return err
	}
	// The lock is released here: the handshake waits on readStdout, which needs it.
	if err := t.initialize(ctx); err != nil {
		_ = t.Disconnect()
		return fmt.Errorf("MCP initialize failed: %w", err)
	}
	return nil
}

func (t *StdioTransport) start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connected {
		return nil
	}
	if t.command == "" {
		return fmt.Errorf("empty command for stdio transport")
	}

	t.cmd = exec.Command(t.command, t.args...)

	var err error
	t.stdin, err = t.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	t.stdout, err = t.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	t.stderr, err = t.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := t.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start command %s: %w", t.command, err)
	}
	t.connected = true

	t.wg.Add(2)
	go t.readStderr()
	go t.readStdout()

	logging.Intel("MCP stdio server started: %s (pid=%d)", t.command, t.cmd.Process.Pid)
	return nil
}

func (t *StdioTransport) initialize(ctx context.Context) error {
	t.mu.RLock()
	done := t.serverInfo != nil
	t.mu.RUnlock()
	if done {
		return nil
	}

	resp, err := t.call(ctx, "initialize", initializeParams())
	if err != nil {
		return err
	}
	var result initializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return fmt.Errorf("failed to parse initialize result: %w", err)
	}

	t.mu.Lock()
	t.serverInfo = &result
	t.mu.Unlock()

	if err := t.notify(newNotification("notifications/initialized")); err != nil {
		return err
	}
	logging.Intel("MCP server %s %s initialized (protocol %s)",
		result.ServerInfo.Name, result.ServerInfo.Version, result.ProtocolVersion)
	return nil
}

// Disconnect stops the subprocess and waits for the reader loops.
func (t *StdioTransport) Disconnect() error {
	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		return nil
	}
	t.connected = false

	if t.stdin != nil {
		_ = t.stdin.Close()
	}
	if t.cmd != nil && t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	for id, ch := range t.pendingReqs {
		close(ch)
		delete(t.pendingReqs, id)
	}
	t.serverInfo = nil
	cmd := t.cmd
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		if cmd != nil {
			_ = cmd.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		logging.Get(logging.CategoryIntel).Warn("Timeout waiting for stdio transport goroutines to exit")
	}

	logging.Intel("MCP stdio transport disconnected")
	return nil
}

func (t *StdioTransport) readStderr() {
	defer t.wg.Done()
	scanner := bufio.NewScanner(t.stderr)
	for scanner.Scan() {
		logging.IntelDebug("[STDERR] %s", scanner.Text())
	}
}

// readStdout dispatches responses to waiting callers by request id.
func (t *StdioTransport) readStdout() {
	defer t.wg.Done()
	scanner := bufio.NewScanner(t.stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp rpcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			logging.Get(logging.CategoryIntel).Warn("Failed to parse JSON from stdout: %v", err)
			continue
		}
		if resp.ID == nil {
			logging.IntelDebug("Received notification: %s", string(line))
			continue
		}

		t.mu.Lock()
		ch, exists := t.pendingReqs[*resp.ID]
		if exists {
			delete(t.pendingReqs, *resp.ID)
			ch <- &resp
		} else {
			logging.Get(logging.CategoryIntel).Warn("Received response for unknown ID: %d", *resp.ID)
		}
		t.mu.Unlock()
	}

	if err := scanner.Err(); err != nil {
		t.mu.RLock()
		connected := t.connected
		t.mu.RUnlock()
		if connected {
			logging.Get(logging.CategoryIntel).Error("Error reading stdout: %v", err)
		}
	}
}

// call sends a request and waits for its response.
func (t *StdioTransport) call(ctx context.Context, method string, params interface{}) (*rpcResponse, error) {
	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		return nil, fmt.Errorf("not connected to MCP server")
	}

	id := t.nextID
	t.nextID++

	data, err := json.Marshal(newRequest(id, method, params))
	if err != nil {
		t.mu.Unlock()
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ch := make(chan *rpcResponse, 1)
	t.pendingReqs[id] = ch

	if _, err := t.stdin.Write(append(data, '\n')); err != nil {
		delete(t.pendingReqs, id)
		t.mu.Unlock()
		return nil, fmt.Errorf("failed to write to stdin: %w", err)
	}
	t.mu.Unlock()

	select {
	case resp := <-ch:
		if resp == nil {
			return nil, fmt.Errorf("connection closed")
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("MCP error %d: %s", resp.Error.Code, resp.Error.Message)
		}
		return resp, nil
	case <-ctx.Done():
		t.mu.Lock()
		delete(t.pendingReqs, id)
		t.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (t *StdioTransport) notify(n rpcRequest) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected || t.stdin == nil {
		return fmt.Errorf("not connected to MCP server")
	}
	if _, err := t.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}

// ListTools retrieves available tools from the server.
func (t *StdioTransport) ListTools(ctx context.Context) ([]ToolSchema, error) {
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
	return result.Tools, nil
}

// CallTool invokes a tool on the server.
func (t *StdioTransport) CallTool(ctx context.Context, name string, args map[string]interface{}) (*CallResult, error) {
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

// Ping checks if the server is responsive.
func (t *StdioTransport) Ping(ctx context.Context) error {
	_, err := t.call(ctx, "ping", nil)
	return err
}

// IsConnected returns current connection status.
func (t *StdioTransport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

var _ Transport = (*StdioTransport)(nil)
