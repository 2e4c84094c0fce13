package handlers

import (
	"time"

	"daw-mcp/go-bridge/internal/metrics"
	"daw-mcp/go-bridge/internal/rpc"
)

// bridgeHandler exposes the bridge's own telemetry in-process, since the
// service speaks on a single TCP port and has no scrape endpoint.
type bridgeHandler struct {
	metrics   *metrics.Metrics
	startedAt time.Time
}

func (h *bridgeHandler) Handle(action string, params map[string]any) (any, error) {
	switch action {
	case "stats":
		return h.stats()
	default:
		return nil, rpc.Paramf("unknown bridge action: %s", action)
	}
}

func (h *bridgeHandler) stats() (any, error) {
	snapshot, err := h.metrics.Snapshot()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"uptimeSeconds": time.Since(h.startedAt).Seconds(),
		"metrics":       snapshot,
	}, nil
}
