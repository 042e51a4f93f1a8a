package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"steer/internal/logging"
	"steer/internal/types"
)

// DefaultTimeout bounds one intelligence query.
const DefaultTimeout = 5 * time.Second

// ToolNames maps each intelligence facet to the server tool that serves it.
// An empty name skips the facet.
type ToolNames struct {
	CallGraph    string `yaml:"call_graph" json:"call_graph"`
	References   string `yaml:"references" json:"references"`
	Dependencies string `yaml:"dependencies" json:"dependencies"`
	Constraints  string `yaml:"constraints" json:"constraints"`
}

// DefaultToolNames returns the conventional code-graph tool names.
func DefaultToolNames() ToolNames {
	return ToolNames{
		CallGraph:    "call_graph",
		References:   "find_references",
		Dependencies: "module_dependencies",
		Constraints:  "check_constraints",
	}
}

// NewTransport builds the transport for protocol. Stdio uses endpoint as the
// command line, HTTP uses baseURL.
func NewTransport(protocol Protocol, endpoint, baseURL string, timeout time.Duration) (Transport, error) {
	switch protocol {
	case ProtocolStdio:
		if endpoint == "" {
			return nil, fmt.Errorf("stdio transport requires an endpoint command")
		}
		return NewStdioTransport(endpoint), nil
	case ProtocolHTTP, "":
		if baseURL == "" {
			return nil, fmt.Errorf("http transport requires a base URL")
		}
		return NewHTTPTransport(baseURL, timeout), nil
	default:
		return nil, fmt.Errorf("unknown MCP protocol %q", protocol)
	}
}

// IntelClient answers intelligence queries from an MCP code-graph server.
// Failures never reach the caller: they produce types.Unavailable().
type IntelClient struct {
	mu        sync.Mutex
	transport Transport
	tools     ToolNames
	timeout   time.Duration
	source    string
}

// IntelOption configures an IntelClient.
type IntelOption func(*IntelClient)

// WithTools overrides the tool names.
func WithTools(names ToolNames) IntelOption {
	return func(c *IntelClient) { c.tools = names }
}

// WithTimeout sets the per-query deadline.
func WithTimeout(d time.Duration) IntelOption {
	return func(c *IntelClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSourceName sets the label reported in CodeIntelligence.Source.
func WithSourceName(name string) IntelOption {
	return func(c *IntelClient) { c.source = name }
}

// NewIntelClient wraps transport. The connection is opened on first use.
func NewIntelClient(transport Transport, opts ...IntelOption) *IntelClient {
	c := &IntelClient{
		transport: transport,
		tools:     DefaultToolNames(),
		timeout:   DefaultTimeout,
		source:    "mcp",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *IntelClient) ensureConnected(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport.IsConnected() {
		return nil
	}
	return c.transport.Connect(ctx)
}

// Query implements prompt.IntelligenceSource.
func (c *IntelClient) Query(ctx context.Context, q types.IntelligenceQuery) types.CodeIntelligence {
	if q.IsEmpty() {
		return types.Unavailable()
	}

	timer := logging.StartTimer(logging.CategoryIntel, "Query")
	defer timer.Stop()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.ensureConnected(ctx); err != nil {
		logging.Get(logging.CategoryIntel).Warn("Code intelligence unavailable: %v", err)
		return types.Unavailable()
	}

	args := map[string]interface{}{
		"task_id":    q.TaskID,
		"task_title": q.TaskTitle,
		"files":      q.Files,
		"symbols":    q.Symbols,
	}

	var (
		out       = types.CodeIntelligence{Source: c.source}
		resMu     sync.Mutex
		succeeded int
	)
	record := func() { resMu.Lock(); succeeded++; resMu.Unlock() }

	g, gctx := errgroup.WithContext(ctx)
	if c.tools.CallGraph != "" {
		g.Go(func() error {
			var nodes []types.CallGraphNode
			if c.fetch(gctx, c.tools.CallGraph, args, &nodes) {
				resMu.Lock()
				out.CallGraph = nodes
				resMu.Unlock()
				record()
			}
			return nil
		})
	}
	if c.tools.References != "" {
		g.Go(func() error {
			var refs []types.SymbolReference
			if c.fetch(gctx, c.tools.References, args, &refs) {
				resMu.Lock()
				out.References = refs
				resMu.Unlock()
				record()
			}
			return nil
		})
	}
	if c.tools.Dependencies != "" {
		g.Go(func() error {
			var deps []types.ModuleDependency
			if c.fetch(gctx, c.tools.Dependencies, args, &deps) {
				resMu.Lock()
				out.Dependencies = deps
				resMu.Unlock()
				record()
			}
			return nil
		})
	}
	if c.tools.Constraints != "" {
		g.Go(func() error {
			var results []types.ConstraintResult
			if c.fetch(gctx, c.tools.Constraints, args, &results) {
				resMu.Lock()
				out.Compliance = results
				resMu.Unlock()
				record()
			}
			return nil
		})
	}
	_ = g.Wait()

	if succeeded == 0 {
		logging.Get(logging.CategoryIntel).Warn("Code intelligence: every tool call failed for task %s", q.TaskID)
		return types.Unavailable()
	}
	out.IsAvailable = true
	logging.IntelDebug("Code intelligence for %s: %d nodes, %d refs, %d deps, %d constraints",
		q.TaskID, len(out.CallGraph), len(out.References), len(out.Dependencies), len(out.Compliance))
	return out
}

// fetch calls one tool and decodes its payload into dst. Failures are logged.
func (c *IntelClient) fetch(ctx context.Context, tool string, args map[string]interface{}, dst interface{}) bool {
	res, err := c.transport.CallTool(ctx, tool, args)
	if err != nil {
		logging.Get(logging.CategoryIntel).Warn("Tool %s failed: %v", tool, err)
		return false
	}
	if !res.Success {
		logging.Get(logging.CategoryIntel).Warn("Tool %s failed: %s", tool, res.Error)
		return false
	}
	if err := decodeToolOutput(res.Output, dst); err != nil {
		logging.Get(logging.CategoryIntel).Warn("Tool %s returned unusable output: %v", tool, err)
		return false
	}
	logging.IntelDebug("Tool %s answered in %dms", tool, res.LatencyMs)
	return true
}

// Close disconnects the transport.
func (c *IntelClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport.Disconnect()
}

// decodeToolOutput extracts the JSON payload from a tools/call result. The
// payload is taken from structuredContent when present, otherwise from the
// first text content block. It may be a bare array or an object wrapping the
// array under "results".
func decodeToolOutput(raw json.RawMessage, dst interface{}) error {
	var tc toolContent
	if err := json.Unmarshal(raw, &tc); err != nil {
		return fmt.Errorf("decode tool result: %w", err)
	}
	if tc.IsError {
		msg := "tool reported an error"
		for _, c := range tc.Content {
			if c.Text != "" {
				msg = c.Text
				break
			}
		}
		return fmt.Errorf("%s", msg)
	}

	payload := []byte(tc.StructuredContent)
	if len(payload) == 0 || string(payload) == "null" {
		for _, c := range tc.Content {
			if c.Type == "text" && c.Text != "" {
				payload = []byte(c.Text)
				break
			}
		}
	}
	if len(payload) == 0 {
		return fmt.Errorf("no content")
	}

	if err := json.Unmarshal(payload, dst); err == nil {
		return nil
	}
	var wrapped struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(payload, &wrapped); err != nil || len(wrapped.Results) == 0 {
		return fmt.Errorf("payload is neither a list nor a results object")
	}
	return json.Unmarshal(wrapped.Results, dst)
}
