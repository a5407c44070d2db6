// go_ytsum: YouTube transcript and summary MCP server.
//
// Exposes three MCP tools: video_transcript, video_summarize, video_history.
// Runs as HTTP MCP server or stdio transport. The same pipeline is available
// from the command line as cmd/ytsum.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_ytsum/internal/app"
	"github.com/anatolykoptev/go_ytsum/internal/engine"
	"github.com/anatolykoptev/go_ytsum/internal/ytserver"
)

var version = "dev"

func main() {
	cfg := engine.LoadConfig()

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer a.Close()

	slog.Info("starting go_ytsum",
		slog.String("port", cfg.MCPPort),
		slog.String("session_method", cfg.SessionMethod),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_ytsum",
		Version: version,
	}, nil)

	n := ytserver.RegisterTools(server, a)
	slog.Info("tools registered", slog.Int("count", n))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_ytsum",
		Version:      version,
		Port:         cfg.MCPPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}
