// bridged runs the DAW MCP bridge as a standalone daemon: the JSON-RPC
// service polled by a timer instead of an embedding host's tick callback.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"daw-mcp/go-bridge/internal/bridge"
	"daw-mcp/go-bridge/internal/config"
	"daw-mcp/go-bridge/internal/handlers"
	"daw-mcp/go-bridge/internal/metrics"
	"daw-mcp/go-bridge/internal/song"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	port := flag.Int("port", 0, "Listen port override (optional)")
	flag.Parse()
	if *showVersion {
		fmt.Printf("bridged version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	cfg := config.LoadFromPath(*configPath)
	if *port != 0 {
		cfg.Port = *port
	}

	logger := newLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	set := song.New()
	m := metrics.New()
	registry := handlers.New(func() *song.Song { return set }, m, logger)

	b, err := bridge.New(cfg, registry, m, bridge.AfterFuncScheduler{}, logger)
	if err != nil {
		logger.Error("bridged failed to initialize", "err", err)
		os.Exit(1)
	}

	b.Start()
	logger.Info("bridged started", "port", b.Port(), "tick", cfg.TickInterval.String())
	<-ctx.Done()
	b.Shutdown()
	logger.Info("bridged stopped")
}

func newLogger(cfg config.Logging) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
