package mcpgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/auth"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/cors"

	"github.com/vikashloomba/mcp-server-manager-go/pkg/mcpmgr"
)

const protectedResourcePath = "/.well-known/oauth-protected-resource"

// Gateway exposes a Streamable MCP server that fronts the validated tools of
// every server connected to an mcpmgr.Manager under a single HTTP endpoint.
type Gateway struct {
	manager *mcpmgr.Manager
	opts    Options

	features *featureIndex

	server        *mcp.Server
	streamHandler *mcp.StreamableHTTPHandler
	mux           *http.ServeMux
	httpHandler   http.Handler

	serverMu     sync.Mutex
	httpServerMu sync.Mutex
	httpServer   *http.Server
}

// NewGateway builds a Gateway and synchronizes the initial tool snapshot.
// Servers that fail to sync are logged and left out; construction only fails
// on invalid options.
func NewGateway(mgr *mcpmgr.Manager, opts *Options) (*Gateway, error) {
	if mgr == nil {
		return nil, fmt.Errorf("mcpgateway: manager is required")
	}
	options := opts.withDefaults()
	if options.TokenOptions != nil && options.TokenVerifier == nil {
		return nil, fmt.Errorf("mcpgateway: TokenOptions requires a TokenVerifier")
	}
	g := &Gateway{
		manager:  mgr,
		opts:     options,
		features: newFeatureIndex(options.Namespace),
	}

	g.server = mcp.NewServer(options.Implementation, &mcp.ServerOptions{HasTools: true})
	g.streamHandler = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return g.server
	}, &options.Streamable)
	g.mux = http.NewServeMux()
	g.httpHandler = g.mountHandler()

	_ = g.SyncAll(context.Background())
	return g, nil
}

// Handler exposes the HTTP handler that serves the Streamable endpoint.
func (g *Gateway) Handler() http.Handler {
	return g.httpHandler
}

// ServeMux returns the mux behind Handler so callers can add routes such as
// health checks. Routes may be added before or after serving starts.
func (g *Gateway) ServeMux() *http.ServeMux {
	return g.mux
}

// ListenAndServe runs an HTTP server until the provided context is cancelled or
// the server stops.
func (g *Gateway) ListenAndServe(ctx context.Context) error {
	g.httpServerMu.Lock()
	if g.httpServer != nil {
		serv := g.httpServer
		g.httpServerMu.Unlock()
		return fmt.Errorf("mcpgateway: server already running on %s", serv.Addr)
	}
	srv := &http.Server{Addr: g.opts.Addr, Handler: g.Handler()}
	g.httpServer = srv
	g.httpServerMu.Unlock()
	defer func() {
		g.httpServerMu.Lock()
		if g.httpServer == srv {
			g.httpServer = nil
		}
		g.httpServerMu.Unlock()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), g.opts.SyncTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops the embedded HTTP server if it is running.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.httpServerMu.Lock()
	srv := g.httpServer
	g.httpServer = nil
	g.httpServerMu.Unlock()
	if srv == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return srv.Shutdown(ctx)
}

// Options returns the effective gateway options after defaults were applied.
func (g *Gateway) Options() Options {
	return g.opts
}

// AttachServer starts cfg on the manager and exposes its tools.
func (g *Gateway) AttachServer(ctx context.Context, cfg mcpmgr.ServerConfig) error {
	if _, err := g.manager.StartServer(ctx, cfg); err != nil {
		return err
	}
	if !g.manager.IsServerAlive(cfg.Name) {
		// Acknowledged but untracked network server; nothing to expose.
		return nil
	}
	return g.SyncServer(ctx, cfg.Name)
}

// SyncAll refreshes every connected server and drops the tools of servers
// that are no longer connected. Per-server failures are joined.
func (g *Gateway) SyncAll(ctx context.Context) error {
	connected := g.manager.GetConnectedServers()
	live := make(map[string]struct{}, len(connected))
	var errs []error
	for _, server := range connected {
		live[server] = struct{}{}
		if err := g.SyncServer(ctx, server); err != nil {
			errs = append(errs, err)
			g.logError("sync server", err, "server", server)
		}
	}
	for _, server := range g.features.Servers() {
		if _, ok := live[server]; !ok {
			g.DetachServer(server)
		}
	}
	return errors.Join(errs...)
}

// SyncServer replaces the gateway's registrations for one server with its
// current validated tools.
func (g *Gateway) SyncServer(ctx context.Context, server string) error {
	ctx, cancel := g.syncContext(ctx)
	defer cancel()
	tools, err := g.manager.GetValidatedTools(ctx, server)
	if err != nil {
		return err
	}
	removed, added, skipped := g.features.UpdateTools(server, tools)
	for _, err := range skipped {
		g.opts.Logger.Warn("skipping tool", "server", server, "error", err)
	}
	g.serverMu.Lock()
	if len(removed) > 0 {
		g.server.RemoveTools(removed...)
	}
	for _, reg := range added {
		g.server.AddTool(reg.Tool, g.makeToolHandler(reg.Target))
	}
	g.serverMu.Unlock()
	g.opts.Logger.Debug("synced tools", "server", server, "count", len(added))
	return nil
}

// DetachServer removes every tool the gateway registered for server.
func (g *Gateway) DetachServer(server string) {
	removed := g.features.RemoveServer(server)
	if len(removed) == 0 {
		return
	}
	g.serverMu.Lock()
	g.server.RemoveTools(removed...)
	g.serverMu.Unlock()
}

func (g *Gateway) makeToolHandler(target toolTarget) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		res := g.manager.CallTool(ctx, target.ServerID, target.NativeName, args)
		return toCallToolResult(res), nil
	}
}

// toCallToolResult maps a dispatcher outcome onto the MCP result type. A
// failed call becomes a tool error the downstream model can read.
func toCallToolResult(res mcpmgr.ToolCallResult) *mcp.CallToolResult {
	if !res.Success {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: res.Error}},
			IsError: true,
		}
	}
	var out mcp.CallToolResult
	if err := json.Unmarshal(res.Result, &out); err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(res.Result)}},
		}
	}
	return &out
}

func (g *Gateway) mountHandler() http.Handler {
	path := g.opts.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	var mcpHandler http.Handler = g.streamHandler
	if g.opts.TokenVerifier != nil {
		mcpHandler = auth.RequireBearerToken(g.opts.TokenVerifier, g.opts.TokenOptions)(mcpHandler)
		g.mux.Handle(protectedResourcePath, g.protectedResourceHandler())
	}
	g.mux.Handle(path, mcpHandler)
	if !strings.HasSuffix(path, "/") {
		g.mux.Handle(path+"/", mcpHandler)
	}
	if len(g.opts.AllowedOrigins) == 0 {
		return g.mux
	}
	return cors.New(cors.Options{
		AllowedOrigins:   g.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Mcp-Session-Id", "WWW-Authenticate"},
		AllowCredentials: true,
	}).Handler(g.mux)
}

// protectedResourceHandler serves RFC 9728 metadata describing this gateway.
// Browsers fetch it cross-origin before authorizing, so it always allows
// any origin.
func (g *Gateway) protectedResourceHandler() http.Handler {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		doc := map[string]any{
			"resource":                 fmt.Sprintf("%s://%s%s", scheme, r.Host, g.opts.Path),
			"bearer_methods_supported": []string{"header"},
		}
		if g.opts.AuthorizationServer != "" {
			doc["authorization_servers"] = []string{g.opts.AuthorizationServer}
		}
		if g.opts.TokenOptions != nil && len(g.opts.TokenOptions.Scopes) > 0 {
			doc["scopes_supported"] = g.opts.TokenOptions.Scopes
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	})
	return cors.AllowAll().Handler(h)
}

func (g *Gateway) syncContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if g.opts.SyncTimeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, g.opts.SyncTimeout)
}

func (g *Gateway) logError(msg string, err error, args ...any) {
	if err == nil {
		return
	}
	attrs := append([]any{"error", err}, args...)
	g.opts.Logger.Error(msg, attrs...)
}
