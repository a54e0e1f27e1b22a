package mcpmgr

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vikashloomba/mcp-server-manager-go/pkg/toolschema"
)

// ListTools returns every tool the named server advertises, in server order,
// with input schemas converted to toolschema.Schema. Schemas that cannot be
// decoded degrade to an empty object schema and are logged; they never fail
// the listing.
func (m *Manager) ListTools(ctx context.Context, server string) (tools []toolschema.Tool, err error) {
	conn, ok := m.registry.get(server)
	if !ok {
		m.logger.Warn("server not found in connections", "server", server)
		return nil, &ServerError{Server: server, Op: "list tools", Err: ErrServerNotFound}
	}

	ctx, span := m.telemetry.startSpan(ctx, "mcpmgr.ListTools", attrServer.String(server))
	defer func() { endSpan(span, err) }()

	listCtx, cancel := withTimeout(ctx, conn.timeout)
	defer cancel()
	raw, err := conn.client.ListTools(listCtx)
	if err != nil {
		err = classifyTimeout(listCtx, err, conn.timeout)
		m.logger.Error("listing tools failed", "server", server, "error", err)
		return nil, &ServerError{Server: server, Op: "list tools", Err: err}
	}

	tools = make([]toolschema.Tool, 0, len(raw))
	for _, t := range raw {
		if t == nil {
			continue
		}
		tools = append(tools, m.convertTool(server, t))
	}
	m.logger.Debug("listed tools", "server", server, "count", len(tools))
	return tools, nil
}

// ListAllTools lists every registered server and renames each tool to
// "<server>__<tool>". Servers that fail are logged and skipped, so the
// result may be partial but the call itself never fails.
func (m *Manager) ListAllTools(ctx context.Context) []toolschema.Tool {
	var all []toolschema.Tool
	for _, server := range m.registry.names() {
		tools, err := m.ListTools(ctx, server)
		if err != nil {
			m.logger.Warn("skipping server in aggregate listing", "server", server, "error", err)
			continue
		}
		for _, t := range tools {
			t.Name = PrefixedToolName(server, t.Name)
			all = append(all, t)
		}
	}
	if all == nil {
		all = []toolschema.Tool{}
	}
	return all
}

// GetValidatedTools lists the named server and keeps only the tools whose
// input schema passes toolschema.Validate. Rejections are logged with their
// reason.
func (m *Manager) GetValidatedTools(ctx context.Context, server string) ([]toolschema.Tool, error) {
	tools, err := m.ListTools(ctx, server)
	if err != nil {
		return nil, err
	}
	valid, rejected := toolschema.ValidateTools(tools)
	for _, reason := range rejected {
		m.logger.Info("dropping tool with unusable input schema", "server", server, "error", reason)
	}
	return valid, nil
}

// convertTool carries over name, description and input schema.
func (m *Manager) convertTool(server string, t *mcp.Tool) toolschema.Tool {
	return toolschema.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: convertInputSchema(t.InputSchema, m.logger.With("server", server, "tool", t.Name)),
	}
}

// convertInputSchema maps a missing or null schema to toolschema.Default.
func convertInputSchema(in any, logger *slog.Logger) toolschema.Schema {
	switch s := in.(type) {
	case nil:
		return toolschema.Default()
	case *jsonschema.Schema:
		return toolschema.FromJSONSchema(s, logger)
	}
	raw, err := json.Marshal(in)
	if err != nil {
		logger.Warn("failed to serialize input schema", "error", err)
		return toolschema.Fallback(nil)
	}
	if bytes.Equal(raw, []byte("null")) {
		return toolschema.Default()
	}
	return toolschema.Parse(raw, logger)
}
