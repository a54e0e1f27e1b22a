package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vikashloomba/mcp-server-manager-go/pkg/mcpmgr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := mcpmgr.NewManager(&mcpmgr.ManagerOptions{
		DefaultClientName: "manager-example",
		Logger:            slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	msg, err := manager.StartServer(ctx, mcpmgr.ServerConfig{
		Name:    "everything",
		Command: "npx",
		Args:    []string{"-y", "@modelcontextprotocol/server-everything"},
		Timeout: 15 * time.Second,
	})
	if err != nil {
		log.Printf("start failed: %v", err)
		return
	}
	fmt.Println(msg)

	for _, tool := range manager.ListAllTools(ctx) {
		fmt.Printf("%-40s %s\n", tool.Name, tool.Description)
	}

	res := manager.CallPrefixedTool(ctx, "everything__echo", json.RawMessage(`{"message":"hello"}`))
	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))
}
