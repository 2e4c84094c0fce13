// Package rpc implements the JSON-RPC 2.0 request envelope, the
// category.action dispatcher, and the frame-level endpoint that ties both to
// the newline-delimited wire protocol.
package rpc

import "encoding/json"

const protocolVersion = "2.0"

// Fixed error taxonomy. External tooling matches on these codes, so they
// must not drift.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// Server-defined (JSON-RPC reserves -32000..-32099 for implementations).
	CodeRateLimited = -32000
)

// Request is one parsed frame. ID is kept raw so it round-trips unchanged,
// whatever JSON type the client used.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  map[string]any  `json:"params"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response carries exactly one of Result or Error. ID is never omitted: a nil
// RawMessage marshals as JSON null, which is what an unidentifiable request
// must be answered with.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

func Success(id json.RawMessage, result any) Response {
	return Response{JSONRPC: protocolVersion, ID: id, Result: result}
}

func Failure(id json.RawMessage, code int, message string) Response {
	return Response{JSONRPC: protocolVersion, ID: id, Error: &Error{Code: code, Message: message}}
}
