package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vikashloomba/mcp-server-manager-go/pkg/mcpmgr"
	"github.com/vikashloomba/mcp-server-manager-go/pkg/toolschema"
)

func newToolsCmd(newManager managerFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools advertised by the configured servers",
		Long:  "Without --server, tools from every server are listed under <server>__<tool> names.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, _ := cmd.Flags().GetString("server")
			validated, _ := cmd.Flags().GetBool("validated")
			return withManager(cmd, newManager, func(ctx context.Context, manager *mcpmgr.Manager) error {
				tools, err := listTools(ctx, manager, server, validated)
				if err != nil {
					if isNotFound(err) {
						return exitError(exitFailure, "server %q is not running", server)
					}
					return err
				}
				return writeJSON(cmd.OutOrStdout(), tools)
			})
		},
	}
	cmd.Flags().StringP("server", "s", "", "Only list tools of this server")
	cmd.Flags().Bool("validated", false, "Only list tools whose input schema passes validation")
	return cmd
}

func listTools(ctx context.Context, manager *mcpmgr.Manager, server string, validated bool) ([]toolschema.Tool, error) {
	switch {
	case server != "" && validated:
		return manager.GetValidatedTools(ctx, server)
	case server != "":
		return manager.ListTools(ctx, server)
	}
	tools := manager.ListAllTools(ctx)
	if validated {
		tools, _ = toolschema.ValidateTools(tools)
	}
	return tools, nil
}
