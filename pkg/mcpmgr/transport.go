package mcpmgr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Client is the live capability behind one registered connection.
type Client interface {
	// ListTools returns every tool the server advertises, in server order.
	ListTools(ctx context.Context) ([]*mcp.Tool, error)
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
	Ping(ctx context.Context) error
	// Close releases the connection and any process behind it.
	Close() error
}

// Connector turns a validated ServerConfig into a connected Client. It is
// only invoked for transports the manager tracks.
type Connector interface {
	Connect(ctx context.Context, cfg ServerConfig) (Client, error)
}

// SDKConnector connects through the modelcontextprotocol/go-sdk client.
type SDKConnector struct {
	// ClientName is advertised during initialization; the server name is
	// used when empty.
	ClientName    string
	ClientVersion string
	Logger        *slog.Logger
	// LogJSONRPC logs every frame at debug level.
	LogJSONRPC bool
}

var _ Connector = (*SDKConnector)(nil)

// Connect spawns (stdio) or dials (http) the server and performs the MCP
// handshake. There is no retry at this layer.
func (c *SDKConnector) Connect(ctx context.Context, cfg ServerConfig) (Client, error) {
	switch cfg.TransportKind() {
	case TransportStdio:
		transport, err := buildStdioTransport(cfg)
		if err != nil {
			return nil, err
		}
		return c.connect(ctx, cfg.Name, transport)
	case TransportHTTP:
		return c.connectHTTP(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransport, cfg.Transport)
	}
}

func (c *SDKConnector) connect(ctx context.Context, serverName string, transport mcp.Transport) (*sdkClient, error) {
	impl := &mcp.Implementation{
		Name:    c.clientName(serverName),
		Version: c.clientVersion(),
	}
	client := mcp.NewClient(impl, nil)
	if c.LogJSONRPC {
		transport = &loggingTransport{serverName: serverName, delegate: transport, logger: c.logger()}
	}
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, err
	}
	return &sdkClient{session: session}, nil
}

func (c *SDKConnector) connectHTTP(ctx context.Context, cfg ServerConfig) (*sdkClient, error) {
	endpoint := cfg.Endpoint()
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint missing for %q", cfg.Name)
	}
	httpClient := decorateHTTPClient(cfg.HTTPClient, cfg.Headers, cfg.AuthProvider)

	var streamErr error
	if !cfg.preferSSE() {
		session, err := c.connect(ctx, cfg.Name, &mcp.StreamableClientTransport{
			Endpoint:   endpoint,
			HTTPClient: httpClient,
		})
		if err == nil {
			return session, nil
		}
		streamErr = err
		c.logger().Debug("streamable connect failed, trying SSE", "server", cfg.Name, "error", err)
	}
	session, err := c.connect(ctx, cfg.Name, &mcp.SSEClientTransport{
		Endpoint:   endpoint,
		HTTPClient: httpClient,
	})
	if err != nil {
		if streamErr != nil {
			return nil, fmt.Errorf("streamable error: %v; sse error: %w", streamErr, err)
		}
		return nil, err
	}
	return session, nil
}

func (c *SDKConnector) clientName(serverName string) string {
	if c.ClientName != "" {
		return c.ClientName
	}
	return serverName
}

func (c *SDKConnector) clientVersion() string {
	if c.ClientVersion != "" {
		return c.ClientVersion
	}
	return "1.0.0"
}

func (c *SDKConnector) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// buildStdioTransport prepares the child process. Env overrides are appended
// to the inherited environment so they take precedence.
func buildStdioTransport(cfg ServerConfig) (*mcp.CommandTransport, error) {
	if cfg.Command == "" {
		return nil, ErrMissingCommand
	}
	args := cfg.Args
	if args == nil {
		args = []string{}
	}
	cmd := exec.Command(cfg.Command, args...)
	if len(cfg.Env) > 0 {
		env := os.Environ()
		for k, v := range cfg.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Env = env
	}
	return &mcp.CommandTransport{Command: cmd}, nil
}

type sdkClient struct {
	session *mcp.ClientSession
}

func (c *sdkClient) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	var tools []*mcp.Tool
	params := &mcp.ListToolsParams{}
	for {
		res, err := c.session.ListTools(ctx, params)
		if err != nil {
			if isMethodUnavailableError(err) {
				return tools, nil
			}
			return nil, err
		}
		tools = append(tools, res.Tools...)
		if res.NextCursor == "" {
			return tools, nil
		}
		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}
}

func (c *sdkClient) CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	return c.session.CallTool(ctx, params)
}

func (c *sdkClient) Ping(ctx context.Context) error {
	return c.session.Ping(ctx, nil)
}

func (c *sdkClient) Close() error {
	return c.session.Close()
}

// isMethodUnavailableError matches servers that do not implement tools/list.
// JSON-RPC code -32601 is matched in the message text.
func isMethodUnavailableError(err error) bool {
	if err == nil {
		return false
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "method not found") ||
		strings.Contains(lower, "-32601") ||
		strings.Contains(lower, "does not support") ||
		strings.Contains(lower, "unimplemented")
}

type loggingTransport struct {
	serverName string
	delegate   mcp.Transport
	logger     *slog.Logger
}

func (t *loggingTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	conn, err := t.delegate.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &loggingConnection{serverName: t.serverName, delegate: conn, logger: t.logger}, nil
}

type loggingConnection struct {
	serverName string
	delegate   mcp.Connection
	logger     *slog.Logger
	mu         sync.Mutex
}

func (c *loggingConnection) SessionID() string { return c.delegate.SessionID() }

func (c *loggingConnection) Read(ctx context.Context) (jsonrpc.Message, error) {
	msg, err := c.delegate.Read(ctx)
	if err == nil {
		c.emit(ctx, "receive", msg)
	}
	return msg, err
}

func (c *loggingConnection) Write(ctx context.Context, msg jsonrpc.Message) error {
	if err := c.delegate.Write(ctx, msg); err != nil {
		return err
	}
	c.emit(ctx, "send", msg)
	return nil
}

func (c *loggingConnection) Close() error { return c.delegate.Close() }

func (c *loggingConnection) emit(ctx context.Context, direction string, msg jsonrpc.Message) {
	if !c.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	encoded, err := json.Marshal(msg)
	if err != nil {
		encoded = []byte(err.Error())
	}
	c.logger.Debug("jsonrpc", "server", c.serverName, "direction", direction, "message", string(encoded))
}

func decorateHTTPClient(base *http.Client, headers map[string]string, provider HTTPAuthProvider) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	if len(headers) == 0 && provider == nil {
		return base
	}
	clone := *base
	clone.Transport = &headerDecorator{
		next:         defaultRoundTripper(base.Transport),
		headers:      headers,
		authProvider: provider,
	}
	return &clone
}

type headerDecorator struct {
	next         http.RoundTripper
	headers      map[string]string
	authProvider HTTPAuthProvider
}

func (d *headerDecorator) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}
	if d.authProvider != nil && req.Header.Get("Authorization") == "" {
		token, err := d.authProvider(req.Context())
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set("Authorization", token)
		}
	}
	return d.next.RoundTrip(req)
}

func defaultRoundTripper(next http.RoundTripper) http.RoundTripper {
	if next != nil {
		return next
	}
	return http.DefaultTransport
}
