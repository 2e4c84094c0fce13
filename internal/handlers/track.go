package handlers

import (
	"daw-mcp/go-bridge/internal/rpc"
	"daw-mcp/go-bridge/internal/song"
)

// trackHandler serves track operations: listing, creation, deletion, and
// the mixer properties the automation client edits.
type trackHandler struct {
	s *session
}

func (h *trackHandler) Handle(action string, params map[string]any) (any, error) {
	switch action {
	case "list":
		return h.list()
	case "get":
		return h.get(params)
	case "create":
		return h.create(params)
	case "delete":
		return h.delete(params)
	case "setName":
		return h.setName(params)
	case "setVolume":
		return h.setVolume(params)
	case "setPan":
		return h.setPan(params)
	case "setMute":
		return h.setMute(params)
	case "setSolo":
		return h.setSolo(params)
	case "setArm":
		return h.setArm(params)
	case "select":
		return h.selectTrack(params)
	default:
		return nil, rpc.Paramf("unknown track action: %s", action)
	}
}

func trackInfo(t *song.Track, index int) map[string]any {
	return map[string]any{
		"index":  index, // 0-based; the automation client converts to 1-based
		"name":   t.Name,
		"mute":   t.Mute,
		"solo":   t.Solo,
		"arm":    t.Arm,
		"volume": t.Volume,
		"pan":    t.Pan,
	}
}

func (h *trackHandler) list() (any, error) {
	s := h.s.Song()
	tracks := make([]map[string]any, 0, len(s.Tracks))
	for i, t := range s.Tracks {
		tracks = append(tracks, trackInfo(t, i))
	}
	h.s.logger.Info("listed tracks", "count", len(tracks))
	return map[string]any{"tracks": tracks}, nil
}

func (h *trackHandler) get(params map[string]any) (any, error) {
	index, err := requireInt(params, "index")
	if err != nil {
		return nil, err
	}
	t, err := h.s.Song().Track(index)
	if err != nil {
		return nil, err
	}
	return trackInfo(t, index), nil
}

func (h *trackHandler) create(params map[string]any) (any, error) {
	trackType := optString(params, "type", "instrument")
	position := optInt(params, "position", -1)

	kind := song.TrackMIDI
	if trackType == "audio" {
		kind = song.TrackAudio
	}
	// "instrument" and "effect" both create MIDI tracks.
	index := h.s.Song().CreateTrack(kind, position)
	h.s.logger.Info("created track", "type", trackType, "index", index)
	return map[string]any{"index": index}, nil
}

func (h *trackHandler) delete(params map[string]any) (any, error) {
	index, err := requireInt(params, "index")
	if err != nil {
		return nil, err
	}
	if err := h.s.Song().DeleteTrack(index); err != nil {
		return nil, err
	}
	h.s.logger.Info("deleted track", "index", index)
	return success(), nil
}

func (h *trackHandler) setName(params map[string]any) (any, error) {
	index, err := requireInt(params, "index")
	if err != nil {
		return nil, err
	}
	t, err := h.s.Song().Track(index)
	if err != nil {
		return nil, err
	}
	t.Name = optString(params, "name", "")
	return success(), nil
}

func (h *trackHandler) setVolume(params map[string]any) (any, error) {
	index, err := requireInt(params, "index")
	if err != nil {
		return nil, err
	}
	t, err := h.s.Song().Track(index)
	if err != nil {
		return nil, err
	}
	t.Volume = optFloat(params, "volume", 0.85)
	return success(), nil
}

func (h *trackHandler) setMute(params map[string]any) (any, error) {
	index, err := requireInt(params, "index")
	if err != nil {
		return nil, err
	}
	t, err := h.s.Song().Track(index)
	if err != nil {
		return nil, err
	}
	t.Mute = optBool(params, "mute", false)
	return success(), nil
}

func (h *trackHandler) setSolo(params map[string]any) (any, error) {
	index, err := requireInt(params, "index")
	if err != nil {
		return nil, err
	}
	t, err := h.s.Song().Track(index)
	if err != nil {
		return nil, err
	}
	t.Solo = optBool(params, "solo", false)
	return success(), nil
}

func (h *trackHandler) setPan(params map[string]any) (any, error) {
	index, err := requireInt(params, "index")
	if err != nil {
		return nil, err
	}
	t, err := h.s.Song().Track(index)
	if err != nil {
		return nil, err
	}
	t.Pan = optFloat(params, "pan", 0)
	return success(), nil
}

func (h *trackHandler) setArm(params map[string]any) (any, error) {
	index, err := requireInt(params, "index")
	if err != nil {
		return nil, err
	}
	t, err := h.s.Song().Track(index)
	if err != nil {
		return nil, err
	}
	t.Arm = optBool(params, "arm", false)
	return success(), nil
}

func (h *trackHandler) selectTrack(params map[string]any) (any, error) {
	index, err := requireInt(params, "index")
	if err != nil {
		return nil, err
	}
	s := h.s.Song()
	if _, err := s.Track(index); err != nil {
		return nil, err
	}
	s.Selection.TrackIndex = index
	return success(), nil
}
