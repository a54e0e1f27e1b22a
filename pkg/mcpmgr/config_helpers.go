package mcpmgr

import (
	"fmt"
	"strings"
)

// Transport identifies how the manager reaches a server.
type Transport string

const (
	TransportStdio     Transport = "stdio"
	TransportHTTP      Transport = "http"
	TransportWebSocket Transport = "websocket"
)

// TransportKind returns the effective transport, treating an empty value as
// stdio. Identifiers match exactly; anything else is returned unchanged so
// Validate can name it.
func (c ServerConfig) TransportKind() Transport {
	if c.Transport == "" {
		return TransportStdio
	}
	return c.Transport
}

// IsStdio reports whether the server is launched as a child process.
func (c ServerConfig) IsStdio() bool { return c.TransportKind() == TransportStdio }

// IsHTTP reports whether the server is reached over HTTP.
func (c ServerConfig) IsHTTP() bool { return c.TransportKind() == TransportHTTP }

// IsWebSocket reports whether the server is reached over a websocket.
func (c ServerConfig) IsWebSocket() bool { return c.TransportKind() == TransportWebSocket }

// IsNetwork reports whether the server is an externally managed endpoint.
func (c ServerConfig) IsNetwork() bool { return c.IsHTTP() || c.IsWebSocket() }

// Endpoint returns the URL of a network server. When only Port is set the
// server is assumed to listen on localhost. Stdio configs return "".
func (c ServerConfig) Endpoint() string {
	if !c.IsNetwork() {
		return ""
	}
	if c.URL != "" {
		return c.URL
	}
	if c.Port == 0 {
		return ""
	}
	scheme := "http"
	if c.IsWebSocket() {
		scheme = "ws"
	}
	return fmt.Sprintf("%s://localhost:%d", scheme, c.Port)
}

func (c ServerConfig) preferSSE() bool {
	if c.PreferSSE != nil {
		return *c.PreferSSE
	}
	return strings.HasSuffix(strings.TrimSpace(c.Endpoint()), "/sse")
}
