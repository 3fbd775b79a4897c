package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegraphlab/codegraph-mcp/internal/registry"
	"github.com/codegraphlab/codegraph-mcp/internal/server"
)

func defaultDataDir() string {
	if dir := os.Getenv("CODEGRAPH_DATA_DIR"); dir != "" {
		return dir
	}
	return "./data"
}

func main() {
	transport := flag.String("transport", "stdio", "Transport mode: stdio or http")
	port := flag.String("port", "8081", "HTTP port (only used with --transport http)")
	dataDir := flag.String("data-dir", defaultDataDir(), "Directory for the project registry and graph snapshots")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	reg, err := registry.Open(*dataDir)
	if err != nil {
		logger.Error("failed to open project registry", "error", err)
		os.Exit(1)
	}
	defer reg.Close()

	srv := server.New(reg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch *transport {
	case "stdio":
		logger.Info("codegraph MCP server starting", "transport", "stdio", "data_dir", *dataDir)
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case "http":
		addr := ":" + *port
		handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			return srv
		}, nil)
		logger.Info("codegraph MCP server listening", "addr", addr, "data_dir", *dataDir)
		if err := http.ListenAndServe(addr, handler); err != nil {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	default:
		logger.Error("unknown transport (use stdio or http)", "transport", *transport)
		os.Exit(1)
	}
}
