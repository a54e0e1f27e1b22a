// Package mcpmgr supervises many Model Context Protocol (MCP) servers from a
// single Go process. It launches one connection per configured backend, keeps
// a registry of the live ones, turns their advertised tools into typed
// toolschema.Tool values, and dispatches tool calls while isolating failures
// of individual servers.
//
// # Core entry points
//
//   - Manager is the long-lived orchestration type. Construct it with
//     NewManager, then call StartServer / StopServer for each backend and
//     Shutdown when done.
//   - ServerConfig declares how a server is reached: a stdio command with
//     arguments and environment overrides, or an http/websocket endpoint.
//     LoadConfigFile reads a list of them from YAML or JSON.
//   - ManagerOptions set client identity, default timeouts, logging, telemetry
//     providers and the Connector used to materialize connections.
//
// After a server is started, ListTools returns its tools with input schemas
// converted by package toolschema, ListAllTools aggregates every server under
// "<server>__<tool>" names, GetValidatedTools drops tools whose contracts a
// tool-calling model cannot use, and CallTool routes an invocation and
// normalizes the outcome into a ToolCallResult.
//
// Liveness as reported by IsServerAlive and CheckAllServers means "present in
// the registry"; PingServer performs an actual round trip.
//
// http and websocket servers are treated as externally managed and are only
// acknowledged by StartServer. Setting ManagerOptions.TrackNetworkTransports
// makes the manager dial http servers over Streamable HTTP (falling back to
// SSE) and track them like stdio connections.
package mcpmgr
