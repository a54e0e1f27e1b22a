package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/vikashloomba/mcp-server-manager-go/pkg/mcpmgr"
)

// Exit codes.
const (
	exitFailure    = 1
	exitConfig     = 2
	exitToolFailed = 3
)

// ExitError carries a specific process exit code back to main.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// managerFactory builds the Manager each command works against.
type managerFactory func(*mcpmgr.ManagerOptions) *mcpmgr.Manager

func newRootCmd(newManager managerFactory) *cobra.Command {
	root := &cobra.Command{
		Use:   "mcpctl",
		Short: "Manage MCP servers and their tools",
		Long:  "mcpctl starts the MCP servers listed in a YAML or JSON config file, lists and calls their tools, and serves them through a single gateway endpoint.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config", "c", "mcp-servers.yaml", "Path to the server config file (.yaml, .yml or .json)")
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	root.PersistentFlags().Bool("log-jsonrpc", false, "Log every JSON-RPC frame (implies --verbose)")
	root.PersistentFlags().Bool("track-http", false, "Connect to http servers instead of only acknowledging them")
	root.PersistentFlags().Duration("timeout", 30*time.Second, "Default per-server timeout")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("mcpctl version %s\n", version))

	root.AddCommand(newToolsCmd(newManager))
	root.AddCommand(newCallCmd(newManager))
	root.AddCommand(newStatusCmd(newManager))
	root.AddCommand(newGatewayCmd(newManager))
	return root
}

func commandLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logJSONRPC, _ := cmd.Flags().GetBool("log-jsonrpc")
	level := slog.LevelWarn
	if verbose || logJSONRPC {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// withManager loads the config, starts every server, runs fn and shuts the
// servers down again. Servers that fail to start are logged and skipped.
func withManager(cmd *cobra.Command, newManager managerFactory, fn func(context.Context, *mcpmgr.Manager) error) error {
	path, _ := cmd.Flags().GetString("config")
	cfgs, err := mcpmgr.LoadConfigFile(path)
	if err != nil {
		return exitError(exitConfig, "%s", err)
	}

	logger := commandLogger(cmd)
	logJSONRPC, _ := cmd.Flags().GetBool("log-jsonrpc")
	trackHTTP, _ := cmd.Flags().GetBool("track-http")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	manager := newManager(&mcpmgr.ManagerOptions{
		DefaultClientName:      "mcpctl",
		DefaultClientVersion:   version,
		DefaultTimeout:         timeout,
		Logger:                 logger,
		LogJSONRPC:             logJSONRPC,
		TrackNetworkTransports: trackHTTP,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := manager.StartServers(ctx, cfgs); err != nil {
		logger.Warn("some servers failed to start", "error", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			logger.Debug("shutdown", "error", err)
		}
	}()
	return fn(ctx, manager)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isNotFound(err error) bool {
	return errors.Is(err, mcpmgr.ErrServerNotFound)
}
