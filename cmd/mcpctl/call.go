package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/vikashloomba/mcp-server-manager-go/pkg/mcpmgr"
)

func newCallCmd(newManager managerFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <server> <tool>",
		Short: "Call a tool and print the normalized result",
		Long:  "Calls <tool> on <server>. A single argument of the form <server>__<tool> is also accepted.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("args")
			return withManager(cmd, newManager, func(ctx context.Context, manager *mcpmgr.Manager) error {
				var res mcpmgr.ToolCallResult
				if len(args) == 1 {
					res = manager.CallPrefixedTool(ctx, args[0], json.RawMessage(raw))
				} else {
					res = manager.CallTool(ctx, args[0], args[1], json.RawMessage(raw))
				}
				if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
				if !res.Success {
					return exitError(exitToolFailed, "%s", res.Error)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringP("args", "a", "{}", "Tool arguments as a JSON object")
	return cmd
}
