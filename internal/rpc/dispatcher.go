package rpc

import (
	"errors"
	"log/slog"
	"strings"
)

// Handler implements one RPC category. Handle must return a *ParamError for
// unknown actions or bad arguments; any other error is treated as an internal
// failure and surfaced to the client with CodeInternalError.
type Handler interface {
	Handle(action string, params map[string]any) (any, error)
}

// Dispatcher routes "category.action" method names to registered handlers and
// wraps the outcome in a response envelope. It is pure routing: no I/O, no
// mutable state beyond the registry built at construction.
type Dispatcher struct {
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewDispatcher copies the registry so it stays immutable after startup.
func NewDispatcher(handlers map[string]Handler, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	registry := make(map[string]Handler, len(handlers))
	for category, h := range handlers {
		registry[category] = h
	}
	return &Dispatcher{handlers: registry, logger: logger}
}

// Dispatch handles one request and always produces a response with the
// request's id echoed back.
func (d *Dispatcher) Dispatch(req Request) Response {
	params := req.Params
	if params == nil {
		params = map[string]any{}
	}

	// Connectivity probe: answered without touching the registry.
	if req.Method == "ping" {
		return Success(req.ID, map[string]any{"pong": true})
	}

	category, action, found := strings.Cut(req.Method, ".")
	if !found || category == "" || action == "" {
		return Failure(req.ID, CodeMethodNotFound, "invalid method format: "+req.Method)
	}

	handler, ok := d.handlers[category]
	if !ok {
		return Failure(req.ID, CodeMethodNotFound, "unknown category: "+category)
	}

	result, err := handler.Handle(action, params)
	if err != nil {
		var paramErr *ParamError
		if errors.As(err, &paramErr) {
			d.logger.Warn("handler rejected request", "method", req.Method, "err", err)
			return Failure(req.ID, CodeInvalidParams, err.Error())
		}
		d.logger.Error("handler failed", "method", req.Method, "err", err)
		return Failure(req.ID, CodeInternalError, err.Error())
	}
	return Success(req.ID, result)
}
