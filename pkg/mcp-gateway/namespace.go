package mcpgateway

import "github.com/vikashloomba/mcp-server-manager-go/pkg/mcpmgr"

// NamespaceStrategy generates the downstream tool names for upstream MCP
// servers. Implementations must be deterministic and collision-free for a
// given server/tool pair.
type NamespaceStrategy interface {
	ToolName(server, tool string) string
}

// ServerPrefixNamespace prefixes every tool with the originating server name.
// The separator defaults to mcpmgr.ToolNameSeparator so gateway names match
// the names returned by Manager.ListAllTools.
type ServerPrefixNamespace struct {
	Separator string
}

func (s ServerPrefixNamespace) ToolName(server, tool string) string {
	if s.Separator == "" {
		return mcpmgr.PrefixedToolName(server, tool)
	}
	return server + s.Separator + tool
}
