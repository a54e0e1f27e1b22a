package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vikashloomba/mcp-server-manager-go/pkg/mcpmgr"
)

type serverStatus struct {
	Alive bool   `json:"alive"`
	Ping  string `json:"ping,omitempty"`
}

func newStatusCmd(newManager managerFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which configured servers are connected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ping, _ := cmd.Flags().GetBool("ping")
			return withManager(cmd, newManager, func(ctx context.Context, manager *mcpmgr.Manager) error {
				status := make(map[string]serverStatus)
				for name, alive := range manager.CheckAllServers() {
					st := serverStatus{Alive: alive}
					if ping {
						st.Ping = "ok"
						if err := manager.PingServer(ctx, name); err != nil {
							st.Ping = err.Error()
						}
					}
					status[name] = st
				}
				return writeJSON(cmd.OutOrStdout(), status)
			})
		},
	}
	cmd.Flags().Bool("ping", false, "Also ping every connected server")
	return cmd
}
