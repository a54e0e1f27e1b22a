package mcpmgr

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallToolSuccess(t *testing.T) {
	t.Parallel()

	connector := newFakeConnector()
	manager := newTestManager(connector)
	client := &fakeClient{}
	startFake(t, manager, connector, "files", client)

	res := manager.CallTool(context.Background(), "files", "read", json.RawMessage(`{"path":"/tmp/a"}`))
	require.True(t, res.Success, res.Error)
	assert.Empty(t, res.Error)
	assert.Empty(t, res.ErrorKind)
	_, err := ulid.Parse(res.CallID)
	require.NoError(t, err)

	var payload struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(res.Result, &payload))
	require.Len(t, payload.Content, 1)
	assert.Equal(t, "called read", payload.Content[0].Text)

	call := client.lastCall()
	require.NotNil(t, call)
	assert.Equal(t, "read", call.Name)
	assert.Equal(t, map[string]any{"path": "/tmp/a"}, call.Arguments)
}

func TestCallToolNormalizesNonObjectArguments(t *testing.T) {
	t.Parallel()

	connector := newFakeConnector()
	manager := newTestManager(connector)
	client := &fakeClient{}
	startFake(t, manager, connector, "files", client)

	for _, args := range []string{`42`, `[1,2]`, `"text"`, `null`, `{not json`, ``} {
		res := manager.CallTool(context.Background(), "files", "read", json.RawMessage(args))
		require.True(t, res.Success, args)
		assert.Equal(t, map[string]any{}, client.lastCall().Arguments, args)
	}
}

func TestCallToolUnknownServer(t *testing.T) {
	t.Parallel()

	manager := newTestManager(newFakeConnector())
	res := manager.CallTool(context.Background(), "ghost", "read", nil)
	assert.False(t, res.Success)
	assert.Nil(t, res.Result)
	assert.Equal(t, "Server 'ghost' not found", res.Error)
	assert.Equal(t, ErrorKindNotFound, res.ErrorKind)
	assert.NotEmpty(t, res.CallID)
}

func TestCallToolFailureKinds(t *testing.T) {
	t.Parallel()

	connector := newFakeConnector()
	manager := newTestManager(connector)
	startFake(t, manager, connector, "broken", &fakeClient{callErr: errors.New("invalid params")})

	connector.add("slow", &fakeClient{block: true})
	cfg := stdioConfig("slow")
	cfg.Timeout = 20 * time.Millisecond
	_, err := manager.StartServer(context.Background(), cfg)
	require.NoError(t, err)

	res := manager.CallTool(context.Background(), "broken", "run", nil)
	assert.False(t, res.Success)
	assert.Nil(t, res.Result)
	assert.Equal(t, "invalid params", res.Error)
	assert.Equal(t, ErrorKindProtocol, res.ErrorKind)

	res = manager.CallTool(context.Background(), "slow", "run", nil)
	assert.False(t, res.Success)
	assert.Equal(t, ErrorKindTimeout, res.ErrorKind)
	assert.Contains(t, res.Error, "timed out")
}

func TestCallToolIDsAreUnique(t *testing.T) {
	t.Parallel()

	manager := newTestManager(newFakeConnector())
	first := manager.CallTool(context.Background(), "ghost", "a", nil)
	second := manager.CallTool(context.Background(), "ghost", "a", nil)
	assert.NotEqual(t, first.CallID, second.CallID)
}

func TestCallPrefixedTool(t *testing.T) {
	t.Parallel()

	connector := newFakeConnector()
	manager := newTestManager(connector)
	client := &fakeClient{}
	startFake(t, manager, connector, "a", client)

	res := manager.CallPrefixedTool(context.Background(), "a__deploy__prod", json.RawMessage(`{}`))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "deploy__prod", client.lastCall().Name)

	res = manager.CallPrefixedTool(context.Background(), "unprefixed", nil)
	assert.False(t, res.Success)
	assert.Equal(t, ErrorKindNotFound, res.ErrorKind)
}

func TestPrefixedNamesRouteBackToTheirServer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	connector := newFakeConnector()
	manager := newTestManager(connector)

	connector.add("a__b", &fakeClient{tools: []*mcp.Tool{rawTool("x", "")}})
	_, err := manager.StartServer(ctx, stdioConfig("a__b"))
	require.ErrorIs(t, err, ErrReservedName)
	assert.Zero(t, connector.connects)
	assert.False(t, manager.IsServerAlive("a__b"))

	client := &fakeClient{tools: []*mcp.Tool{rawTool("x", ""), rawTool("deploy__prod", "")}}
	startFake(t, manager, connector, "a_b", client)

	tools := manager.ListAllTools(ctx)
	require.Equal(t, []string{"a_b__x", "a_b__deploy__prod"}, toolNames(tools))
	for _, tool := range tools {
		res := manager.CallPrefixedTool(ctx, tool.Name, json.RawMessage(`{}`))
		require.True(t, res.Success, res.Error)
		server, native, ok := SplitToolName(tool.Name)
		require.True(t, ok)
		assert.Equal(t, "a_b", server)
		assert.Equal(t, native, client.lastCall().Name)
	}
}

func TestToolCallResultJSONShape(t *testing.T) {
	t.Parallel()

	encoded, err := json.Marshal(ToolCallResult{Error: "Server 'x' not found", ErrorKind: ErrorKindNotFound, CallID: "id"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"Server 'x' not found","errorKind":"not_found","callId":"id"}`, string(encoded))

	encoded, err = json.Marshal(ToolCallResult{Success: true, Result: json.RawMessage(`{"content":[]}`), CallID: "id"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"result":{"content":[]},"callId":"id"}`, string(encoded))
}
