package mcpmgr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

// HTTPAuthProvider dynamically supplies an Authorization header (for example,
// "Bearer <token>") for outbound HTTP requests initiated by the manager.
type HTTPAuthProvider func(context.Context) (string, error)

// TokenSourceAuth adapts an oauth2.TokenSource into an HTTPAuthProvider.
// Tokens are fetched per request; wrap ts in oauth2.ReuseTokenSource to cache.
func TokenSourceAuth(ts oauth2.TokenSource) HTTPAuthProvider {
	return func(context.Context) (string, error) {
		tok, err := ts.Token()
		if err != nil {
			return "", fmt.Errorf("mcpmgr: resolve token: %w", err)
		}
		tokenType := tok.Type()
		return tokenType + " " + tok.AccessToken, nil
	}
}

// ServerConfig describes one backend: its unique name, the transport used to
// reach it, and the transport-specific settings. An empty Transport means
// stdio.
type ServerConfig struct {
	Name      string    `json:"name" yaml:"name"`
	Transport Transport `json:"transport,omitempty" yaml:"transport,omitempty"`

	// stdio
	Command string            `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// http / websocket
	URL     string            `json:"url,omitempty" yaml:"url,omitempty"`
	Port    uint16            `json:"port,omitempty" yaml:"port,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// PreferSSE forces the SSE transport for tracked http servers. When nil,
	// SSE is preferred for URLs ending in "/sse".
	PreferSSE *bool `json:"preferSSE,omitempty" yaml:"preferSSE,omitempty"`

	// Timeout bounds the handshake and every remote call for this server.
	// Zero uses ManagerOptions.DefaultTimeout; negative disables deadlines.
	Timeout time.Duration `json:"-" yaml:"-"`

	HTTPClient   *http.Client     `json:"-" yaml:"-"`
	AuthProvider HTTPAuthProvider `json:"-" yaml:"-"`
}

// Validate reports configuration errors that must fail before anything is
// spawned or dialed.
func (c ServerConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("mcpmgr: %w", ErrMissingName)
	}
	if strings.Contains(c.Name, ToolNameSeparator) {
		return &ServerError{Server: c.Name, Op: "configure", Err: ErrReservedName}
	}
	switch c.TransportKind() {
	case TransportStdio:
		if c.Command == "" {
			return &ServerError{Server: c.Name, Op: "configure", Err: ErrMissingCommand}
		}
	case TransportHTTP, TransportWebSocket:
	default:
		return &ServerError{
			Server: c.Name,
			Op:     "configure",
			Err:    fmt.Errorf("%w: %s", ErrUnsupportedTransport, c.Transport),
		}
	}
	return nil
}

// ManagerOptions configures a Manager instance.
type ManagerOptions struct {
	// DefaultClientName overrides the client name advertised during
	// initialization. When empty, the server name is used.
	DefaultClientName string
	// DefaultClientVersion controls the semantic version reported to servers.
	DefaultClientVersion string
	// DefaultTimeout is applied whenever a server configuration omits an
	// explicit timeout. Defaults to 30s.
	DefaultTimeout time.Duration
	// Logger receives structured diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
	// LogJSONRPC logs every JSON-RPC frame at debug level.
	LogJSONRPC bool
	// TrackNetworkTransports dials http servers and registers them as live
	// connections instead of only acknowledging them.
	TrackNetworkTransports bool
	// Connector materializes connections. Defaults to an SDKConnector built
	// from the fields above.
	Connector Connector
	// ShutdownConcurrency bounds how many connections Shutdown closes at
	// once. Defaults to 8.
	ShutdownConcurrency int

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

func (o *ManagerOptions) normalized() ManagerOptions {
	var opts ManagerOptions
	if o != nil {
		opts = *o
	}
	if opts.DefaultClientVersion == "" {
		opts.DefaultClientVersion = "1.0.0"
	}
	if opts.DefaultTimeout == 0 {
		opts.DefaultTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ShutdownConcurrency <= 0 {
		opts.ShutdownConcurrency = 8
	}
	if opts.Connector == nil {
		opts.Connector = &SDKConnector{
			ClientName:    opts.DefaultClientName,
			ClientVersion: opts.DefaultClientVersion,
			Logger:        opts.Logger,
			LogJSONRPC:    opts.LogJSONRPC,
		}
	}
	return opts
}
