package rpc

import (
	"encoding/json"
	"log/slog"
	"time"

	"daw-mcp/go-bridge/internal/metrics"
)

// Endpoint turns one wire frame into one wire response: parse, rate limit,
// dispatch, encode. The transport stays byte-level and never sees JSON.
type Endpoint struct {
	dispatcher *Dispatcher
	limiter    *rateLimiter
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewEndpoint(d *Dispatcher, limits RateLimitConfig, m *metrics.Metrics, logger *slog.Logger) *Endpoint {
	if logger == nil {
		logger = slog.Default()
	}
	return &Endpoint{
		dispatcher: d,
		limiter:    newRateLimiter(limits),
		metrics:    m,
		logger:     logger,
	}
}

// HandleFrame processes one newline-delimited frame received from client.
// A frame that is not valid JSON gets a parse-error response with a null id;
// the connection itself is left alone. The rate limiter is checked before
// parsing so a client spamming garbage frames is throttled like any other.
func (e *Endpoint) HandleFrame(frame []byte, client string) []byte {
	if !e.limiter.allow(client, time.Now()) {
		// Best-effort parse purely to echo the id back.
		var req Request
		_ = json.Unmarshal(frame, &req)
		e.logger.Warn("rate limited", "client", client, "method", req.Method)
		e.metrics.RequestHandled(CodeRateLimited, 0)
		return encode(Failure(req.ID, CodeRateLimited, "rate limit exceeded"))
	}

	var req Request
	if err := json.Unmarshal(frame, &req); err != nil {
		e.logger.Error("parse error", "client", client, "err", err)
		e.metrics.RequestHandled(CodeParseError, 0)
		return encode(Failure(nil, CodeParseError, "parse error: "+err.Error()))
	}

	started := time.Now()
	resp := e.dispatcher.Dispatch(req)
	elapsed := time.Since(started)

	if resp.Error != nil {
		e.metrics.RequestHandled(resp.Error.Code, elapsed)
		e.logger.Warn("rpc failed", "client", client, "method", req.Method,
			"rpc_code", resp.Error.Code, "latency_ms", elapsed.Milliseconds())
	} else {
		e.metrics.RequestHandled(0, elapsed)
		e.logger.Info("rpc response", "client", client, "method", req.Method,
			"latency_ms", elapsed.Milliseconds())
	}
	return encode(resp)
}

func encode(resp Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		// A handler returned something unmarshalable. Fall back to a static
		// internal-error envelope so the client still gets an answer.
		return []byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"response encoding failed"}}`)
	}
	return data
}
