package mcpmgr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oklog/ulid/v2"
)

// ErrorKind classifies a failed tool call.
type ErrorKind string

const (
	ErrorKindNotFound ErrorKind = "not_found"
	ErrorKindTimeout  ErrorKind = "timeout"
	ErrorKindProtocol ErrorKind = "protocol"
)

// ToolCallResult is the normalized outcome of CallTool. Exactly one of Result
// and Error is set.
type ToolCallResult struct {
	Success   bool            `json:"success"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorKind ErrorKind       `json:"errorKind,omitempty"`
	// CallID correlates log lines for one invocation.
	CallID string `json:"callId"`
}

// CallTool invokes tool on the named server. Arguments that are not a JSON
// object are replaced by an empty object. Failures are reported in the
// returned value rather than as an error.
//
// A result the server flags with isError is still a successful call; the
// flag travels inside Result.
func (m *Manager) CallTool(ctx context.Context, server, tool string, args json.RawMessage) (res ToolCallResult) {
	callID := ulid.Make().String()
	logger := m.logger.With("server", server, "tool", tool, "call_id", callID)

	conn, ok := m.registry.get(server)
	if !ok {
		logger.Error("server not found")
		return ToolCallResult{
			Error:     fmt.Sprintf("Server '%s' not found", server),
			ErrorKind: ErrorKindNotFound,
			CallID:    callID,
		}
	}

	started := time.Now()
	ctx, span := m.telemetry.startSpan(ctx, "mcpmgr.CallTool", attrServer.String(server), attrTool.String(tool))
	defer func() {
		m.telemetry.recordToolCall(ctx, server, tool, res, time.Since(started))
		var spanErr error
		if !res.Success {
			spanErr = errors.New(res.Error)
		}
		endSpan(span, spanErr)
	}()

	callCtx, cancel := withTimeout(ctx, conn.timeout)
	defer cancel()
	out, err := conn.client.CallTool(callCtx, &mcp.CallToolParams{
		Name:      tool,
		Arguments: normalizeArguments(args),
	})
	if err != nil {
		err = classifyTimeout(callCtx, err, conn.timeout)
		kind := ErrorKindProtocol
		if errors.Is(err, ErrTimeout) {
			kind = ErrorKindTimeout
		}
		logger.Error("error calling tool", "error", err)
		return ToolCallResult{Error: err.Error(), ErrorKind: kind, CallID: callID}
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		logger.Warn("failed to encode tool result", "error", err)
		encoded = json.RawMessage("null")
	}
	logger.Debug("tool call succeeded", "elapsed", time.Since(started))
	return ToolCallResult{Success: true, Result: encoded, CallID: callID}
}

// CallPrefixedTool routes an aggregated "<server>__<tool>" name to CallTool.
func (m *Manager) CallPrefixedTool(ctx context.Context, prefixed string, args json.RawMessage) ToolCallResult {
	server, tool, ok := SplitToolName(prefixed)
	if !ok {
		return ToolCallResult{
			Error:     fmt.Sprintf("Tool '%s' is not of the form <server>%s<tool>", prefixed, ToolNameSeparator),
			ErrorKind: ErrorKindNotFound,
			CallID:    ulid.Make().String(),
		}
	}
	return m.CallTool(ctx, server, tool, args)
}

// normalizeArguments decodes args as a JSON object. Anything else, including
// malformed JSON, becomes an empty object.
func normalizeArguments(args json.RawMessage) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal(args, &obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}
