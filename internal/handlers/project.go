package handlers

import "daw-mcp/go-bridge/internal/rpc"

// projectHandler serves project-level state: tempo, signature, transport
// flags.
type projectHandler struct {
	s *session
}

func (h *projectHandler) Handle(action string, params map[string]any) (any, error) {
	switch action {
	case "getInfo":
		return h.getInfo()
	default:
		return nil, rpc.Paramf("unknown project action: %s", action)
	}
}

func (h *projectHandler) getInfo() (any, error) {
	s := h.s.Song()
	return map[string]any{
		"bpm":                      s.Tempo,
		"timeSignatureNumerator":   s.SigNumerator,
		"timeSignatureDenominator": s.SigDenominator,
		"isPlaying":                s.Playing,
		"isRecording":              s.Recording,
	}, nil
}
