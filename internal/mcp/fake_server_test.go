package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"go.uber.org/goleak"
)

const helperEnv = "STEER_MCP_FAKE_SERVER"

func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" {
		serveStdio(os.Stdin, os.Stdout)
		os.Exit(0)
	}
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// fakeRequest mirrors rpcRequest with a raw id so notifications are visible.
type fakeRequest struct {
	ID     *int            `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

func serveStdio(in io.Reader, out io.Writer) {
	fmt.Fprintln(os.Stderr, "fake server ready")
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		var req fakeRequest
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		resp := handleFake(req)
		if resp == nil {
			continue
		}
		data, _ := json.Marshal(resp)
		fmt.Fprintf(out, "%s\n", data)
	}
}

func fakeHTTPHandler(t *testing.T, methods *[]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fakeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if methods != nil {
			*methods = append(*methods, req.Method)
		}
		resp := handleFake(req)
		if resp == nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode: %v", err)
		}
	}
}

func textResult(text string) json.RawMessage {
	data, _ := json.Marshal(map[string]interface{}{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	return data
}

// handleFake answers like a small code-graph server. It returns nil for notifications.
func handleFake(req fakeRequest) *rpcResponse {
	if req.ID == nil {
		return nil
	}
	resp := &rpcResponse{JSONRPC: "2.0", ID: req.ID}
	switch req.Method {
	case "initialize":
		resp.Result = json.RawMessage(`{"protocolVersion":"2024-11-05","capabilities":{"tools":{}},"serverInfo":{"name":"fake-graph","version":"0.1"}}`)
	case "ping":
		resp.Result = json.RawMessage(`{}`)
	case "tools/list":
		resp.Result = json.RawMessage(`{"tools":[{"name":"call_graph","description":"callers and callees"},{"name":"find_references"}]}`)
	case "tools/call":
		var p struct {
			Name string `json:"name"`
		}
		_ = json.Unmarshal(req.Params, &p)
		switch p.Name {
		case "call_graph":
			resp.Result = json.RawMessage(`{"content":[],"structuredContent":[{"symbol":"Run","file":"main.go","line":12,"callers":["main"],"callees":["load"]}]}`)
		case "find_references":
			resp.Result = textResult(`{"results":[{"symbol":"Run","file":"cmd/app.go","line":40,"kind":"call"}]}`)
		case "module_dependencies":
			resp.Result = json.RawMessage(`{"content":[{"type":"text","text":"index not built"}],"isError":true}`)
		default:
			resp.Error = &rpcError{Code: -32602, Message: "unknown tool " + p.Name}
		}
	default:
		resp.Error = &rpcError{Code: -32601, Message: "method not found"}
	}
	return resp
}
