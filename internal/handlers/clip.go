package handlers

import (
	"daw-mcp/go-bridge/internal/rpc"
	"daw-mcp/go-bridge/internal/song"
)

// clipHandler serves clip and MIDI note operations. Requests may address a
// clip explicitly (trackIndex + slotIndex) or fall back to the current
// selection, matching the automation client's two addressing modes.
type clipHandler struct {
	s *session
}

func (h *clipHandler) Handle(action string, params map[string]any) (any, error) {
	switch action {
	case "list":
		return h.list(params)
	case "create":
		return h.create(params)
	case "delete":
		return h.delete(params)
	case "stop":
		return h.stop(params)
	case "setName":
		return h.setName(params)
	case "setLength":
		return h.setLength(params)
	case "getNotes":
		return h.getNotes(params)
	case "setNote":
		return h.setNote(params)
	case "setNotes":
		return h.setNotes(params)
	case "clearNote":
		return h.clearNote(params)
	case "moveNote":
		return h.moveNote(params)
	case "setNoteVelocity":
		return h.setNoteVelocity(params)
	case "setNoteDuration":
		return h.setNoteDuration(params)
	case "setNoteMuted":
		return h.setNoteMuted(params)
	case "clearAllNotes":
		return h.clearAllNotes(params)
	case "clearNotesAtPitch":
		return h.clearNotesAtPitch(params)
	case "transpose":
		return h.transpose(params)
	case "findEmptySlots":
		return h.findEmptySlots(params)
	case "getSceneCount":
		return h.getSceneCount()
	case "createScene":
		return h.createScene(params)
	case "getSelection":
		return h.getSelection()
	case "select":
		return h.selectClip(params)
	case "hasContent":
		return h.hasContent(params)
	default:
		return nil, rpc.Paramf("unknown clip action: %s", action)
	}
}

func (h *clipHandler) track(params map[string]any) (*song.Track, int, error) {
	if hasParam(params, "trackIndex") {
		index, err := requireInt(params, "trackIndex")
		if err != nil {
			return nil, 0, err
		}
		t, err := h.s.Song().Track(index)
		if err != nil {
			return nil, 0, err
		}
		return t, index, nil
	}
	return h.s.Song().SelectedTrack()
}

func (h *clipHandler) slot(params map[string]any) (*song.ClipSlot, error) {
	if hasParam(params, "trackIndex") && hasParam(params, "slotIndex") {
		trackIndex, err := requireInt(params, "trackIndex")
		if err != nil {
			return nil, err
		}
		slotIndex, err := requireInt(params, "slotIndex")
		if err != nil {
			return nil, err
		}
		t, err := h.s.Song().Track(trackIndex)
		if err != nil {
			return nil, err
		}
		return t.Slot(slotIndex)
	}
	slot, err := h.s.Song().HighlightedSlot()
	if err != nil {
		return nil, rpc.Paramf("no clip slot selected")
	}
	return slot, nil
}

func (h *clipHandler) clip(params map[string]any) (*song.Clip, error) {
	slot, err := h.slot(params)
	if err != nil {
		return nil, err
	}
	if !slot.HasClip() {
		return nil, rpc.Paramf("no clip in slot")
	}
	return slot.Clip, nil
}

func (h *clipHandler) list(params map[string]any) (any, error) {
	t, trackIndex, err := h.track(params)
	if err != nil {
		return nil, err
	}
	clips := make([]map[string]any, 0)
	for i, slot := range t.Slots {
		if !slot.HasClip() {
			continue
		}
		clips = append(clips, map[string]any{
			"slotIndex":   i, // 0-based
			"name":        slot.Clip.Name,
			"length":      slot.Clip.Length,
			"isPlaying":   slot.Clip.Playing,
			"isRecording": slot.Clip.Recording,
		})
	}
	h.s.logger.Info("listed clips", "track", trackIndex, "count", len(clips))
	return map[string]any{"clips": clips}, nil
}

func (h *clipHandler) create(params map[string]any) (any, error) {
	slot, err := h.slot(params)
	if err != nil {
		return nil, err
	}
	if slot.HasClip() {
		return nil, rpc.Paramf("slot already has a clip")
	}
	slot.Clip = &song.Clip{
		Name:   optString(params, "name", ""),
		Length: optFloat(params, "lengthInBeats", 4.0),
	}
	h.s.logger.Info("created clip", "length", slot.Clip.Length)
	return success(), nil
}

func (h *clipHandler) delete(params map[string]any) (any, error) {
	slot, err := h.slot(params)
	if err != nil {
		return nil, err
	}
	if !slot.HasClip() {
		return nil, rpc.Paramf("no clip in slot")
	}
	slot.Clip = nil
	return success(), nil
}

// stop halts playback in a slot. Like the host's slot stop button it is a
// no-op on an empty slot rather than an error.
func (h *clipHandler) stop(params map[string]any) (any, error) {
	slot, err := h.slot(params)
	if err != nil {
		return nil, err
	}
	if slot.HasClip() {
		slot.Clip.Playing = false
	}
	return success(), nil
}

func (h *clipHandler) setName(params map[string]any) (any, error) {
	clip, err := h.clip(params)
	if err != nil {
		return nil, err
	}
	clip.Name = optString(params, "name", "")
	return success(), nil
}

func (h *clipHandler) setLength(params map[string]any) (any, error) {
	clip, err := h.clip(params)
	if err != nil {
		return nil, err
	}
	clip.Length = optFloat(params, "lengthInBeats", 4.0)
	return success(), nil
}

func (h *clipHandler) getNotes(params map[string]any) (any, error) {
	clip, err := h.clip(params)
	if err != nil {
		return nil, err
	}
	notes := make([]map[string]any, 0, len(clip.Notes))
	for _, n := range clip.Notes {
		notes = append(notes, map[string]any{
			"x":        n.Start,
			"y":        n.Pitch,
			"velocity": n.Velocity / 127.0, // normalized to 0.0-1.0
			"duration": n.Duration,
			"isMuted":  n.Muted,
		})
	}
	return map[string]any{
		"notes":      notes,
		"count":      len(notes),
		"clipLength": clip.Length,
	}, nil
}

func (h *clipHandler) setNote(params map[string]any) (any, error) {
	clip, err := h.clip(params)
	if err != nil {
		return nil, err
	}
	clip.Notes = append(clip.Notes, song.Note{
		Start:    optFloat(params, "x", 0),
		Pitch:    optInt(params, "y", 60),
		Velocity: optFloat(params, "velocity", 100),
		Duration: optFloat(params, "duration", 0.25),
		Muted:    optBool(params, "muted", false),
	})
	return success(), nil
}

// setNotes accepts both note formats: lean [x, y, velocity, duration] arrays
// and {x, y, velocity, duration, muted} objects.
func (h *clipHandler) setNotes(params map[string]any) (any, error) {
	clip, err := h.clip(params)
	if err != nil {
		return nil, err
	}
	raw, ok := params["notes"].([]any)
	if !ok || len(raw) == 0 {
		return success(), nil
	}

	notes := make([]song.Note, 0, len(raw))
	for _, entry := range raw {
		switch v := entry.(type) {
		case []any:
			if len(v) != 4 {
				return nil, rpc.Paramf("lean note must be [x, y, velocity, duration]")
			}
			x, okX := toFloat(v[0])
			y, okY := toFloat(v[1])
			velocity, okV := toFloat(v[2])
			duration, okD := toFloat(v[3])
			if !okX || !okY || !okV || !okD {
				return nil, rpc.Paramf("lean note values must be numbers")
			}
			notes = append(notes, song.Note{
				Start: x, Pitch: int(y), Velocity: velocity, Duration: duration,
			})
		case map[string]any:
			x, err := requireFloat(v, "x")
			if err != nil {
				return nil, err
			}
			y, err := requireInt(v, "y")
			if err != nil {
				return nil, err
			}
			notes = append(notes, song.Note{
				Start:    x,
				Pitch:    y,
				Velocity: optFloat(v, "velocity", 100),
				Duration: optFloat(v, "duration", 0.25),
				Muted:    optBool(v, "muted", false),
			})
		default:
			return nil, rpc.Paramf("note must be an array or an object")
		}
	}
	clip.Notes = append(clip.Notes, notes...)
	h.s.logger.Info("added notes", "count", len(notes))
	return success(), nil
}

// noteAt matches a note by grid position: same pitch, start within a small
// tolerance to absorb float round-trips.
func noteAt(n song.Note, x float64, y int) bool {
	const tolerance = 0.001
	d := n.Start - x
	return n.Pitch == y && d < tolerance && d > -tolerance
}

func requireNotePosition(params map[string]any) (float64, int, error) {
	if !hasParam(params, "x") || !hasParam(params, "y") {
		return 0, 0, rpc.Paramf("x and y are required")
	}
	x, err := requireFloat(params, "x")
	if err != nil {
		return 0, 0, err
	}
	y, err := requireInt(params, "y")
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// clearNote removes the note(s) at position x, y. A miss is not an error.
func (h *clipHandler) clearNote(params map[string]any) (any, error) {
	clip, err := h.clip(params)
	if err != nil {
		return nil, err
	}
	x, y, err := requireNotePosition(params)
	if err != nil {
		return nil, err
	}
	kept := clip.Notes[:0]
	for _, n := range clip.Notes {
		if !noteAt(n, x, y) {
			kept = append(kept, n)
		}
	}
	clip.Notes = kept
	return success(), nil
}

// moveNote shifts the note at x, y by dx beats and dy semitones. The moved
// note is dropped if it leaves the MIDI range or starts before the clip.
func (h *clipHandler) moveNote(params map[string]any) (any, error) {
	clip, err := h.clip(params)
	if err != nil {
		return nil, err
	}
	x, y, err := requireNotePosition(params)
	if err != nil {
		return nil, err
	}
	dx := optFloat(params, "dx", 0)
	dy := optInt(params, "dy", 0)
	if dx == 0 && dy == 0 {
		return success(), nil
	}

	kept := make([]song.Note, 0, len(clip.Notes))
	moved := false
	for _, n := range clip.Notes {
		if noteAt(n, x, y) {
			moved = true
			n.Start += dx
			n.Pitch += dy
			if n.Pitch < 0 || n.Pitch > 127 || n.Start < 0 {
				continue
			}
		}
		kept = append(kept, n)
	}
	if !moved {
		h.s.logger.Warn("note not found", "x", x, "y", y)
		return success(), nil
	}
	clip.Notes = kept
	return success(), nil
}

// modifyNote applies change to the note(s) at x, y. value comes from the
// property's own key or the generic "value" key. A miss is not an error.
func (h *clipHandler) modifyNote(params map[string]any, key string, change func(*song.Note, any)) (any, error) {
	clip, err := h.clip(params)
	if err != nil {
		return nil, err
	}
	x, y, err := requireNotePosition(params)
	if err != nil {
		return nil, err
	}
	value, ok := params[key]
	if !ok || value == nil {
		value, ok = params["value"]
	}
	if !ok || value == nil {
		return nil, rpc.Paramf("%s or value is required", key)
	}
	for i := range clip.Notes {
		if noteAt(clip.Notes[i], x, y) {
			change(&clip.Notes[i], value)
		}
	}
	return success(), nil
}

func (h *clipHandler) setNoteVelocity(params map[string]any) (any, error) {
	return h.modifyNote(params, "velocity", func(n *song.Note, value any) {
		if v, ok := toFloat(value); ok {
			n.Velocity = v
		}
	})
}

func (h *clipHandler) setNoteDuration(params map[string]any) (any, error) {
	return h.modifyNote(params, "duration", func(n *song.Note, value any) {
		if v, ok := toFloat(value); ok {
			n.Duration = v
		}
	})
}

func (h *clipHandler) setNoteMuted(params map[string]any) (any, error) {
	return h.modifyNote(params, "muted", func(n *song.Note, value any) {
		if v, ok := value.(bool); ok {
			n.Muted = v
		}
	})
}

func (h *clipHandler) clearAllNotes(params map[string]any) (any, error) {
	clip, err := h.clip(params)
	if err != nil {
		return nil, err
	}
	clip.Notes = nil
	return success(), nil
}

// clearNotesAtPitch removes only the notes at one MIDI pitch; used for smart
// pattern replacement.
func (h *clipHandler) clearNotesAtPitch(params map[string]any) (any, error) {
	clip, err := h.clip(params)
	if err != nil {
		return nil, err
	}
	pitch, err := requireInt(params, "pitch")
	if err != nil {
		return nil, err
	}
	kept := clip.Notes[:0]
	for _, n := range clip.Notes {
		if n.Pitch != pitch {
			kept = append(kept, n)
		}
	}
	clip.Notes = kept
	return success(), nil
}

// transpose shifts every note by semitones; notes that would leave the MIDI
// range 0..127 are dropped.
func (h *clipHandler) transpose(params map[string]any) (any, error) {
	clip, err := h.clip(params)
	if err != nil {
		return nil, err
	}
	semitones := optInt(params, "semitones", 0)
	if semitones == 0 {
		return success(), nil
	}
	kept := make([]song.Note, 0, len(clip.Notes))
	for _, n := range clip.Notes {
		pitch := n.Pitch + semitones
		if pitch < 0 || pitch > 127 {
			continue
		}
		n.Pitch = pitch
		kept = append(kept, n)
	}
	clip.Notes = kept
	h.s.logger.Info("transposed clip", "semitones", semitones, "notes", len(kept))
	return success(), nil
}

// findEmptySlots scans a track's slot grid for up to count empty slots,
// starting at startSlot (startFrom accepted as an alias). Only slots backed
// by an existing scene are considered.
func (h *clipHandler) findEmptySlots(params map[string]any) (any, error) {
	t, trackIndex, err := h.track(params)
	if err != nil {
		return nil, err
	}
	count := optInt(params, "count", 1)
	start := optInt(params, "startSlot", optInt(params, "startFrom", 0))
	if start < 0 {
		start = 0
	}

	s := h.s.Song()
	limit := len(t.Slots)
	if s.SceneCount < limit {
		limit = s.SceneCount
	}
	empty := make([]int, 0, count)
	for i := start; i < limit; i++ {
		if !t.Slots[i].HasClip() {
			empty = append(empty, i)
			if len(empty) >= count {
				break
			}
		}
	}
	h.s.logger.Info("found empty slots", "track", trackIndex, "slots", empty)
	return map[string]any{
		"trackIndex": trackIndex,
		"emptySlots": empty,
		"found":      len(empty),
		"requested":  count,
		"sceneCount": s.SceneCount,
	}, nil
}

func (h *clipHandler) getSceneCount() (any, error) {
	return map[string]any{"sceneCount": h.s.Song().SceneCount}, nil
}

func (h *clipHandler) createScene(params map[string]any) (any, error) {
	count := optInt(params, "count", 1)
	if count < 0 {
		count = 0
	}
	s := h.s.Song()
	s.CreateScenes(count)
	h.s.logger.Info("created scenes", "count", count, "total", s.SceneCount)
	return map[string]any{
		"success":    true,
		"created":    count,
		"sceneCount": s.SceneCount,
	}, nil
}

func (h *clipHandler) getSelection() (any, error) {
	s := h.s.Song()
	hasClip := false
	if slot, err := s.HighlightedSlot(); err == nil {
		hasClip = slot.HasClip()
	}
	return map[string]any{
		"trackIndex": s.Selection.TrackIndex,
		"slotIndex":  s.Selection.SlotIndex,
		"hasClip":    hasClip,
	}, nil
}

func (h *clipHandler) selectClip(params map[string]any) (any, error) {
	if !hasParam(params, "trackIndex") || !hasParam(params, "slotIndex") {
		return nil, rpc.Paramf("trackIndex and slotIndex are required for select")
	}
	trackIndex, err := requireInt(params, "trackIndex")
	if err != nil {
		return nil, err
	}
	slotIndex, err := requireInt(params, "slotIndex")
	if err != nil {
		return nil, err
	}
	s := h.s.Song()
	t, err := s.Track(trackIndex)
	if err != nil {
		return nil, err
	}
	if _, err := t.Slot(slotIndex); err != nil {
		return nil, err
	}
	s.Selection = song.Selection{TrackIndex: trackIndex, SlotIndex: slotIndex}
	return success(), nil
}

func (h *clipHandler) hasContent(params map[string]any) (any, error) {
	if !hasParam(params, "trackIndex") || !hasParam(params, "slotIndex") {
		return nil, rpc.Paramf("trackIndex and slotIndex are required")
	}
	slot, err := h.slot(params)
	if err != nil {
		return nil, err
	}
	return map[string]any{"hasContent": slot.HasClip()}, nil
}
