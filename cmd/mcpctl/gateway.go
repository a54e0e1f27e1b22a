package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	mcpgateway "github.com/vikashloomba/mcp-server-manager-go/pkg/mcp-gateway"
	"github.com/vikashloomba/mcp-server-manager-go/pkg/mcpmgr"
)

func newGatewayCmd(newManager managerFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Serve the validated tools of every server over Streamable HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			path, _ := cmd.Flags().GetString("path")
			origins, _ := cmd.Flags().GetStringSlice("allow-origin")
			return withManager(cmd, newManager, func(ctx context.Context, manager *mcpmgr.Manager) error {
				logger := commandLogger(cmd)
				gateway, err := mcpgateway.NewGateway(manager, &mcpgateway.Options{
					Addr:           addr,
					Path:           path,
					AllowedOrigins: origins,
					Logger:         logger,
				})
				if err != nil {
					return err
				}
				opts := gateway.Options()
				fmt.Fprintf(cmd.ErrOrStderr(), "gateway serving Streamable MCP on %s%s\n", opts.Addr, opts.Path)
				if err := gateway.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().String("addr", ":8700", "Listen address")
	cmd.Flags().String("path", "/mcp", "HTTP path of the MCP endpoint")
	cmd.Flags().StringSlice("allow-origin", nil, "Enable CORS for these origins (repeatable, * for any)")
	return cmd
}
