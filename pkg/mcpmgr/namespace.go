package mcpmgr

import "strings"

// ToolNameSeparator joins a server name and a tool name in aggregated
// listings. It stays within the MCP character guidance for tool names.
const ToolNameSeparator = "__"

// PrefixedToolName returns the aggregated name "<server>__<tool>".
func PrefixedToolName(server, tool string) string {
	return server + ToolNameSeparator + tool
}

// SplitToolName reverses PrefixedToolName. The split happens at the first
// separator, so tool names may themselves contain "__" but server names
// may not.
func SplitToolName(prefixed string) (server, tool string, ok bool) {
	server, tool, ok = strings.Cut(prefixed, ToolNameSeparator)
	if !ok || server == "" || tool == "" {
		return "", "", false
	}
	return server, tool, true
}
