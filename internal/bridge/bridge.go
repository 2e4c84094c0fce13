package bridge

import (
	"log/slog"

	"daw-mcp/go-bridge/internal/config"
	"daw-mcp/go-bridge/internal/metrics"
	"daw-mcp/go-bridge/internal/rpc"
	"daw-mcp/go-bridge/internal/transport"
)

// Bridge is the composition root: a bound multiplexer, the dispatch endpoint
// wired as its frame callback, and a driver ready to arm the first cycle.
type Bridge struct {
	server *transport.Server
	driver *Driver
	logger *slog.Logger
}

// New binds the configured port and wires dispatch. A bind failure is
// returned to the caller (startup-fatal, surfaced to the host's own
// notification mechanism); nothing is retried.
func New(cfg config.Config, handlers map[string]rpc.Handler, m *metrics.Metrics, sched Scheduler, logger *slog.Logger) (*Bridge, error) {
	if logger == nil {
		logger = slog.Default()
	}

	server, err := transport.Listen(transport.Options{
		Port:             cfg.Port,
		MaxBufferedBytes: cfg.MaxBufferedBytes,
		Logger:           logger,
		Metrics:          m,
	})
	if err != nil {
		return nil, err
	}

	dispatcher := rpc.NewDispatcher(handlers, logger)
	endpoint := rpc.NewEndpoint(dispatcher, rpc.RateLimitConfig{
		Enabled: cfg.RateLimit.Enabled,
		RPS:     cfg.RateLimit.RPS,
		Burst:   cfg.RateLimit.Burst,
	}, m, logger)
	server.SetRequestFunc(endpoint.HandleFrame)

	return &Bridge{
		server: server,
		driver: NewDriver(server, sched, cfg.TickInterval, logger),
		logger: logger,
	}, nil
}

// Start arms the first poll cycle.
func (b *Bridge) Start() {
	b.driver.Start()
	b.logger.Info("bridge started", "port", b.server.Port())
}

func (b *Bridge) Port() int { return b.server.Port() }

// Shutdown stops polling and force-closes every connection. Idempotent.
func (b *Bridge) Shutdown() {
	b.driver.Shutdown()
	b.logger.Info("bridge stopped")
}
