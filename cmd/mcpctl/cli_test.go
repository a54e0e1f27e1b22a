package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikashloomba/mcp-server-manager-go/pkg/mcpmgr"
	"github.com/vikashloomba/mcp-server-manager-go/pkg/toolschema"
)

type stubClient struct {
	tools []*mcp.Tool
}

func (c *stubClient) ListTools(context.Context) ([]*mcp.Tool, error) { return c.tools, nil }

func (c *stubClient) CallTool(_ context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	if params.Name == "fail" {
		return nil, errors.New("tool failed")
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "ran " + params.Name}}}, nil
}

func (c *stubClient) Ping(context.Context) error { return nil }
func (c *stubClient) Close() error               { return nil }

type stubConnector struct{}

func (stubConnector) Connect(_ context.Context, cfg mcpmgr.ServerConfig) (mcpmgr.Client, error) {
	if cfg.Name == "down" {
		return nil, errors.New("refused")
	}
	return &stubClient{tools: []*mcp.Tool{
		{Name: "search", InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"q": {Type: "string"}},
			Required:   []string{"q"},
		}},
		{Name: "sloppy", InputSchema: &jsonschema.Schema{Type: "object", Required: []string{"q"}}},
	}}, nil
}

func stubManagers(opts *mcpmgr.ManagerOptions) *mcpmgr.Manager {
	opts.Connector = stubConnector{}
	return mcpmgr.NewManager(opts)
}

const testConfig = `
servers:
  - name: alpha
    command: alpha-server
  - name: down
    command: down-server
  - name: remote
    transport: http
    url: http://localhost:1/mcp
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	return path
}

func executeCommand(root *cobra.Command, args ...string) (stdout, stderr string, err error) {
	var outBuf, errBuf bytes.Buffer
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)
	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestToolsCommandListsPrefixedTools(t *testing.T) {
	out, _, err := executeCommand(newRootCmd(stubManagers), "--config", writeTestConfig(t), "tools")
	require.NoError(t, err)

	var tools []toolschema.Tool
	require.NoError(t, json.Unmarshal([]byte(out), &tools))
	require.Len(t, tools, 2)
	assert.Equal(t, "alpha__search", tools[0].Name)
	assert.Equal(t, "alpha__sloppy", tools[1].Name)
}

func TestToolsCommandValidatedForServer(t *testing.T) {
	out, _, err := executeCommand(newRootCmd(stubManagers), "--config", writeTestConfig(t), "tools", "--server", "alpha", "--validated")
	require.NoError(t, err)

	var tools []toolschema.Tool
	require.NoError(t, json.Unmarshal([]byte(out), &tools))
	require.Len(t, tools, 1)
	assert.Equal(t, "search", tools[0].Name)
	assert.Equal(t, []string{"q"}, tools[0].InputSchema.Object.Required)
}

func TestToolsCommandUnknownServer(t *testing.T) {
	_, _, err := executeCommand(newRootCmd(stubManagers), "--config", writeTestConfig(t), "tools", "--server", "down")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, exitFailure, exitErr.Code)
}

func TestCallCommand(t *testing.T) {
	config := writeTestConfig(t)

	out, _, err := executeCommand(newRootCmd(stubManagers), "--config", config, "call", "alpha", "search", "--args", `{"q":"go"}`)
	require.NoError(t, err)
	var res mcpmgr.ToolCallResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Contains(t, string(res.Result), "ran search")

	out, _, err = executeCommand(newRootCmd(stubManagers), "--config", config, "call", "alpha__search")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)

	out, _, err = executeCommand(newRootCmd(stubManagers), "--config", config, "call", "remote", "search")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, exitToolFailed, exitErr.Code)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Server 'remote' not found", res.Error)
	assert.Equal(t, mcpmgr.ErrorKindNotFound, res.ErrorKind)
}

func TestStatusCommand(t *testing.T) {
	out, _, err := executeCommand(newRootCmd(stubManagers), "--config", writeTestConfig(t), "status", "--ping")
	require.NoError(t, err)

	var status map[string]serverStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, map[string]serverStatus{"alpha": {Alive: true, Ping: "ok"}}, status)
}

func TestMissingConfigIsConfigError(t *testing.T) {
	_, _, err := executeCommand(newRootCmd(stubManagers), "--config", filepath.Join(t.TempDir(), "nope.yaml"), "status")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, exitConfig, exitErr.Code)
}
