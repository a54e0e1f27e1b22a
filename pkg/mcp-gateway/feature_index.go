package mcpgateway

import (
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vikashloomba/mcp-server-manager-go/pkg/toolschema"
)

const (
	metaKeyServerID   = "mcpgateway.server_id"
	metaKeyNativeName = "mcpgateway.native_name"
)

// featureIndex remembers which gateway tool names belong to which upstream
// server so a resync can replace exactly that server's registrations.
type featureIndex struct {
	ns NamespaceStrategy

	mu          sync.RWMutex
	tools       map[string]toolTarget
	serverTools map[string][]string
}

type toolTarget struct {
	GatewayName string
	ServerID    string
	NativeName  string
}

type toolRegistration struct {
	Tool   *mcp.Tool
	Target toolTarget
}

func newFeatureIndex(ns NamespaceStrategy) *featureIndex {
	return &featureIndex{
		ns:          ns,
		tools:       make(map[string]toolTarget),
		serverTools: make(map[string][]string),
	}
}

// UpdateTools replaces serverID's tools. It returns the gateway names to
// unregister and the registrations to add. Tools whose schema cannot be
// expressed for the SDK are skipped and reported in skipped.
func (f *featureIndex) UpdateTools(serverID string, upstream []toolschema.Tool) (removed []string, added []toolRegistration, skipped []error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	removed = f.removeToolsLocked(serverID)
	added = make([]toolRegistration, 0, len(upstream))
	names := make([]string, 0, len(upstream))
	for _, tool := range upstream {
		gatewayName := f.ns.ToolName(serverID, tool.Name)
		sdkTool, err := toSDKTool(tool, gatewayName, serverID)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		target := toolTarget{GatewayName: gatewayName, ServerID: serverID, NativeName: tool.Name}
		f.tools[gatewayName] = target
		added = append(added, toolRegistration{Tool: sdkTool, Target: target})
		names = append(names, gatewayName)
	}
	f.serverTools[serverID] = names
	return removed, added, skipped
}

// RemoveServer forgets serverID and returns the gateway names it owned.
func (f *featureIndex) RemoveServer(serverID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removeToolsLocked(serverID)
}

func (f *featureIndex) ToolTarget(name string) (toolTarget, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	target, ok := f.tools[name]
	return target, ok
}

// Servers returns the servers that currently have registrations, sorted.
func (f *featureIndex) Servers() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	servers := make([]string, 0, len(f.serverTools))
	for server := range f.serverTools {
		servers = append(servers, server)
	}
	sort.Strings(servers)
	return servers
}

func (f *featureIndex) removeToolsLocked(serverID string) []string {
	names, ok := f.serverTools[serverID]
	if !ok {
		return nil
	}
	for _, name := range names {
		delete(f.tools, name)
	}
	delete(f.serverTools, serverID)
	return append([]string(nil), names...)
}

func toSDKTool(tool toolschema.Tool, gatewayName, serverID string) (*mcp.Tool, error) {
	schema, err := tool.InputSchema.JSONSchema()
	if err != nil {
		return nil, fmt.Errorf("mcpgateway: tool %q on %q: %w", tool.Name, serverID, err)
	}
	return &mcp.Tool{
		Name:        gatewayName,
		Title:       tool.Title,
		Description: tool.Description,
		InputSchema: schema,
		Meta: withMeta(nil, map[string]any{
			metaKeyServerID:   serverID,
			metaKeyNativeName: tool.Name,
		}),
	}, nil
}

func withMeta(base map[string]any, extras map[string]any) map[string]any {
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]any)
	}
	for k, v := range extras {
		out[k] = v
	}
	return out
}
