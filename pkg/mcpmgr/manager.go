package mcpmgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Manager supervises a set of MCP server connections keyed by server name.
// All methods are safe for concurrent use.
type Manager struct {
	opts      ManagerOptions
	logger    *slog.Logger
	connector Connector
	registry  *registry
	telemetry *telemetry
}

// NewManager constructs a Manager with no registered servers.
func NewManager(opts *ManagerOptions) *Manager {
	normalized := opts.normalized()
	return &Manager{
		opts:      normalized,
		logger:    normalized.Logger,
		connector: normalized.Connector,
		registry:  newRegistry(),
		telemetry: newTelemetry(normalized.TracerProvider, normalized.MeterProvider, normalized.Logger),
	}
}

// StartServer validates cfg and, for tracked transports, connects to the
// server and registers it under cfg.Name. Starting a name that is already
// registered replaces the old connection, which is then closed.
//
// Untracked http and websocket servers are acknowledged without touching the
// registry.
func (m *Manager) StartServer(ctx context.Context, cfg ServerConfig) (msg string, err error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	kind := cfg.TransportKind()
	switch {
	case kind == TransportWebSocket:
		m.logger.Debug("websocket server acknowledged", "server", cfg.Name, "url", cfg.Endpoint())
		return fmt.Sprintf("WebSocket server configured: %s", cfg.Name), nil
	case kind == TransportHTTP && !m.opts.TrackNetworkTransports:
		m.logger.Debug("http server acknowledged", "server", cfg.Name, "url", cfg.Endpoint())
		return fmt.Sprintf("HTTP server configured: %s", cfg.Name), nil
	}

	ctx, span := m.telemetry.startSpan(ctx, "mcpmgr.StartServer", attrServer.String(cfg.Name))
	defer func() {
		m.telemetry.recordServerStart(ctx, cfg.Name, kind, err)
		endSpan(span, err)
	}()

	timeout := m.timeoutFor(cfg)
	connectCtx, cancel := withTimeout(ctx, timeout)
	client, err := m.connector.Connect(connectCtx, cfg)
	if err != nil {
		err = classifyTimeout(connectCtx, err, timeout)
		cancel()
		return "", &ServerError{Server: cfg.Name, Op: "start", Err: err}
	}
	cancel()

	prev := m.registry.put(&connection{
		name:      cfg.Name,
		client:    client,
		transport: kind,
		timeout:   timeout,
		started:   time.Now(),
	})
	if prev != nil {
		m.logger.Debug("replacing existing connection", "server", cfg.Name)
		m.closeConnection(ctx, prev)
	}
	m.logger.Info("connected to MCP server", "server", cfg.Name, "transport", string(kind))
	return fmt.Sprintf("Started and connected to MCP server: %s", cfg.Name), nil
}

// StartServers starts every config in order and joins the failures. A
// failing server does not prevent the others from starting.
func (m *Manager) StartServers(ctx context.Context, cfgs []ServerConfig) error {
	var errs []error
	for _, cfg := range cfgs {
		if _, err := m.StartServer(ctx, cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StopServer removes the named server from the registry and closes its
// connection. Unknown names are ignored and close failures are only logged.
func (m *Manager) StopServer(ctx context.Context, name string) {
	conn := m.registry.remove(name)
	if conn == nil {
		return
	}
	m.closeConnection(ctx, conn)
	m.logger.Info("stopped MCP server", "server", name)
}

// Shutdown closes every registered connection and leaves the registry empty.
// Close failures are joined into the returned error.
func (m *Manager) Shutdown(ctx context.Context) error {
	conns := m.registry.drain()
	if len(conns) == 0 {
		return nil
	}
	errs := make([]error, len(conns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.ShutdownConcurrency)
	for i, conn := range conns {
		g.Go(func() error {
			if err := closeWithContext(gctx, conn.client); err != nil {
				errs[i] = &ServerError{Server: conn.name, Op: "close", Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// GetConnectedServers returns the names of registered servers, sorted.
func (m *Manager) GetConnectedServers() []string {
	return m.registry.names()
}

// IsServerAlive reports whether name is registered. It performs no I/O.
func (m *Manager) IsServerAlive(name string) bool {
	return m.registry.has(name)
}

// CheckAllServers maps every registered server to true. Unregistered servers
// are absent rather than false.
func (m *Manager) CheckAllServers() map[string]bool {
	names := m.registry.names()
	status := make(map[string]bool, len(names))
	for _, name := range names {
		status[name] = true
	}
	return status
}

// PingServer performs a protocol-level ping against a registered server.
func (m *Manager) PingServer(ctx context.Context, name string) error {
	conn, ok := m.registry.get(name)
	if !ok {
		return &ServerError{Server: name, Op: "ping", Err: ErrServerNotFound}
	}
	ctx, cancel := withTimeout(ctx, conn.timeout)
	defer cancel()
	if err := conn.client.Ping(ctx); err != nil {
		return &ServerError{Server: name, Op: "ping", Err: classifyTimeout(ctx, err, conn.timeout)}
	}
	return nil
}

func (m *Manager) timeoutFor(cfg ServerConfig) time.Duration {
	if cfg.Timeout != 0 {
		return cfg.Timeout
	}
	return m.opts.DefaultTimeout
}

// closeConnection closes conn without surfacing the error.
func (m *Manager) closeConnection(ctx context.Context, conn *connection) {
	if err := closeWithContext(ctx, conn.client); err != nil {
		m.logger.Debug("close failed", "server", conn.name, "error", err)
	}
}

// closeWithContext closes client, giving up waiting once ctx is done. The
// close itself keeps running in the background.
func closeWithContext(ctx context.Context, client Client) error {
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan error, 1)
	go func() {
		done <- client.Close()
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
