package mcpmgr

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClient is an in-memory Client with scripted responses.
type fakeClient struct {
	tools   []*mcp.Tool
	listErr error
	callErr error
	// block makes ListTools, CallTool and Ping wait for ctx to end.
	block bool

	mu       sync.Mutex
	calls    []*mcp.CallToolParams
	closed   atomic.Int32
	closeErr error
}

func (c *fakeClient) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.tools, nil
}

func (c *fakeClient) CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	c.mu.Lock()
	c.calls = append(c.calls, params)
	c.mu.Unlock()
	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if c.callErr != nil {
		return nil, c.callErr
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "called " + params.Name}},
	}, nil
}

func (c *fakeClient) Ping(ctx context.Context) error {
	if c.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (c *fakeClient) Close() error {
	c.closed.Add(1)
	return c.closeErr
}

func (c *fakeClient) lastCall() *mcp.CallToolParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return nil
	}
	return c.calls[len(c.calls)-1]
}

// fakeConnector hands out pre-registered clients by server name.
type fakeConnector struct {
	mu       sync.Mutex
	clients  map[string]*fakeClient
	failures map[string]error
	connects int
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{
		clients:  make(map[string]*fakeClient),
		failures: make(map[string]error),
	}
}

func (c *fakeConnector) add(name string, client *fakeClient) *fakeClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clients[name] = client
	return client
}

func (c *fakeConnector) fail(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[name] = err
}

func (c *fakeConnector) Connect(ctx context.Context, cfg ServerConfig) (Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects++
	if err := c.failures[cfg.Name]; err != nil {
		return nil, err
	}
	client, ok := c.clients[cfg.Name]
	if !ok {
		return nil, errors.New("no fake client for " + cfg.Name)
	}
	return client, nil
}

func newTestManager(connector Connector) *Manager {
	return NewManager(&ManagerOptions{
		Logger:    quietLogger(),
		Connector: connector,
	})
}

func stdioConfig(name string) ServerConfig {
	return ServerConfig{Name: name, Command: "fake-mcp-server"}
}

func rawTool(name, schema string) *mcp.Tool {
	tool := &mcp.Tool{Name: name, Description: name + " tool"}
	if schema != "" {
		tool.InputSchema = rawSchema(schema)
	}
	return tool
}

// rawSchema decodes a JSON Schema document the way the SDK hands it over.
func rawSchema(doc string) *jsonschema.Schema {
	var s jsonschema.Schema
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		panic(err)
	}
	return &s
}
