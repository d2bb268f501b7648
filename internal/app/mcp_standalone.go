package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"layr/internal/config"
	mcpserver "layr/internal/mcp"
	"layr/internal/secret"
)

// noopEmitter is a no-op EventEmitter used in MCP-only mode (no Wails frontend).
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// ServeMCP runs layr as a standalone MCP server on stdin/stdout with no GUI.
// Destructive tools wait for approval from a running desktop app through the
// shared database, unless LAYR_MCP_AUTO_APPROVE is set.
func ServeMCP() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.DefaultDataDir())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	b, err := openBackend(ctx, cfg, secret.NewKeychainStore(), noopEmitter{})
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer b.Close()

	srv := mcpserver.New(ctx, mcpserver.Deps{
		Emitter:     noopEmitter{},
		Projects:    b.projects,
		Editor:      b.editor,
		Approvals:   b.approvals,
		AutoApprove: os.Getenv("LAYR_MCP_AUTO_APPROVE") != "",
	})

	log.Println("[MCP] Starting standalone stdio server...")
	if err := srv.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
