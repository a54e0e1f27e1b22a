// Package mcpgateway re-exposes the validated tools of every server connected
// to an mcpmgr.Manager over a single Streamable HTTP MCP endpoint. Tool names
// are prefixed with their server so downstream clients can call any upstream
// tool through one session; calls are routed through Manager.CallTool.
package mcpgateway
