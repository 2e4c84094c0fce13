package handlers

import "daw-mcp/go-bridge/internal/rpc"

// transportHandler serves playback control: position, play/record toggles,
// transport status.
type transportHandler struct {
	s *session
}

func (h *transportHandler) Handle(action string, params map[string]any) (any, error) {
	switch action {
	case "setPosition":
		return h.setPosition(params)
	case "togglePlay":
		return h.togglePlay()
	case "toggleRecord":
		return h.toggleRecord()
	case "getStatus":
		return h.getStatus()
	default:
		return nil, rpc.Paramf("unknown transport action: %s", action)
	}
}

func (h *transportHandler) setPosition(params map[string]any) (any, error) {
	beats, err := requireFloat(params, "beats")
	if err != nil {
		return nil, err
	}
	h.s.Song().Position = beats
	h.s.logger.Info("set position", "beats", beats)
	return success(), nil
}

func (h *transportHandler) togglePlay() (any, error) {
	s := h.s.Song()
	s.Playing = !s.Playing
	return success(), nil
}

func (h *transportHandler) toggleRecord() (any, error) {
	s := h.s.Song()
	s.Recording = !s.Recording
	return success(), nil
}

func (h *transportHandler) getStatus() (any, error) {
	s := h.s.Song()
	return map[string]any{
		"isPlaying":   s.Playing,
		"isRecording": s.Recording,
		"position":    s.Position,
	}, nil
}
