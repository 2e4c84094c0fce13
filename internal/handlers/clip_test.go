package handlers

import (
	"testing"

	"daw-mcp/go-bridge/internal/rpc"
	"daw-mcp/go-bridge/internal/song"
)

// clipFixture builds a registry with one track and one clip at (0, 0).
func clipFixture(t *testing.T) (map[string]rpc.Handler, *song.Song) {
	t.Helper()
	registry, s := newTestRegistry(t)
	call(t, registry, "track", "create", nil)
	call(t, registry, "clip", "create", map[string]any{"trackIndex": 0, "slotIndex": 0})
	return registry, s
}

func addr(params map[string]any) map[string]any {
	merged := map[string]any{"trackIndex": 0, "slotIndex": 0}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

func TestClipCreateDefaults(t *testing.T) {
	_, s := clipFixture(t)

	clip := s.Tracks[0].Slots[0].Clip
	if clip == nil || clip.Length != 4.0 {
		t.Fatalf("expected 4-beat clip, got %+v", clip)
	}
}

func TestClipCreateRejectsOccupiedSlot(t *testing.T) {
	registry, _ := clipFixture(t)
	requireParamError(t, callErr(t, registry, "clip", "create", addr(nil)))
}

func TestClipCreateUsesSelectionWhenUnaddressed(t *testing.T) {
	registry, s := newTestRegistry(t)
	call(t, registry, "track", "create", nil)
	s.Selection = song.Selection{TrackIndex: 0, SlotIndex: 3}

	call(t, registry, "clip", "create", map[string]any{"lengthInBeats": 8.0})
	if clip := s.Tracks[0].Slots[3].Clip; clip == nil || clip.Length != 8.0 {
		t.Fatalf("expected clip in selected slot, got %+v", clip)
	}
}

func TestClipCreateWithoutTracksFailsAsParamError(t *testing.T) {
	registry, _ := newTestRegistry(t)
	requireParamError(t, callErr(t, registry, "clip", "create", nil))
}

func TestClipList(t *testing.T) {
	registry, s := clipFixture(t)
	s.Tracks[0].Slots[0].Clip.Name = "Groove"

	result := call(t, registry, "clip", "list", map[string]any{"trackIndex": 0})
	clips := result["clips"].([]map[string]any)
	if len(clips) != 1 {
		t.Fatalf("expected 1 clip, got %d", len(clips))
	}
	if clips[0]["slotIndex"] != 0 || clips[0]["name"] != "Groove" {
		t.Fatalf("unexpected clip entry: %v", clips[0])
	}
}

func TestClipDelete(t *testing.T) {
	registry, s := clipFixture(t)

	call(t, registry, "clip", "delete", addr(nil))
	if s.Tracks[0].Slots[0].HasClip() {
		t.Fatal("expected slot emptied")
	}
	requireParamError(t, callErr(t, registry, "clip", "delete", addr(nil)))
}

func TestClipSetNoteDefaults(t *testing.T) {
	registry, s := clipFixture(t)

	call(t, registry, "clip", "setNote", addr(nil))
	notes := s.Tracks[0].Slots[0].Clip.Notes
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	n := notes[0]
	if n.Pitch != 60 || n.Velocity != 100 || n.Duration != 0.25 || n.Start != 0 {
		t.Fatalf("unexpected defaults: %+v", n)
	}
}

func TestClipGetNotesNormalizesVelocity(t *testing.T) {
	registry, _ := clipFixture(t)
	call(t, registry, "clip", "setNote", addr(map[string]any{"y": 64, "velocity": 127.0}))

	result := call(t, registry, "clip", "getNotes", addr(nil))
	notes := result["notes"].([]map[string]any)
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	if notes[0]["velocity"] != 1.0 {
		t.Fatalf("expected normalized velocity 1.0, got %v", notes[0]["velocity"])
	}
	if result["count"] != 1 || result["clipLength"] != 4.0 {
		t.Fatalf("unexpected envelope: %v", result)
	}
}

func TestClipSetNotesLeanFormat(t *testing.T) {
	registry, s := clipFixture(t)

	call(t, registry, "clip", "setNotes", addr(map[string]any{
		"notes": []any{
			[]any{0.0, 36.0, 100.0, 0.5},
			[]any{1.0, 38.0, 90.0, 0.5},
		},
	}))
	notes := s.Tracks[0].Slots[0].Clip.Notes
	if len(notes) != 2 || notes[0].Pitch != 36 || notes[1].Pitch != 38 {
		t.Fatalf("unexpected notes: %+v", notes)
	}
}

func TestClipSetNotesObjectFormat(t *testing.T) {
	registry, s := clipFixture(t)

	call(t, registry, "clip", "setNotes", addr(map[string]any{
		"notes": []any{
			map[string]any{"x": 0.0, "y": 48.0, "muted": true},
		},
	}))
	notes := s.Tracks[0].Slots[0].Clip.Notes
	if len(notes) != 1 || notes[0].Pitch != 48 || !notes[0].Muted {
		t.Fatalf("unexpected notes: %+v", notes)
	}
	if notes[0].Velocity != 100 || notes[0].Duration != 0.25 {
		t.Fatalf("object-format defaults not applied: %+v", notes[0])
	}
}

func TestClipSetNotesRejectsMalformedLeanNote(t *testing.T) {
	registry, _ := clipFixture(t)

	err := callErr(t, registry, "clip", "setNotes", addr(map[string]any{
		"notes": []any{[]any{0.0, 36.0}},
	}))
	requireParamError(t, err)

	err = callErr(t, registry, "clip", "setNotes", addr(map[string]any{
		"notes": []any{"not a note"},
	}))
	requireParamError(t, err)
}

func TestClipClearAllNotes(t *testing.T) {
	registry, s := clipFixture(t)
	call(t, registry, "clip", "setNote", addr(nil))
	call(t, registry, "clip", "setNote", addr(nil))

	call(t, registry, "clip", "clearAllNotes", addr(nil))
	if got := len(s.Tracks[0].Slots[0].Clip.Notes); got != 0 {
		t.Fatalf("expected all notes cleared, got %d", got)
	}
}

func TestClipClearNotesAtPitch(t *testing.T) {
	registry, s := clipFixture(t)
	call(t, registry, "clip", "setNote", addr(map[string]any{"y": 36}))
	call(t, registry, "clip", "setNote", addr(map[string]any{"y": 38}))
	call(t, registry, "clip", "setNote", addr(map[string]any{"y": 36}))

	call(t, registry, "clip", "clearNotesAtPitch", addr(map[string]any{"pitch": 36}))
	notes := s.Tracks[0].Slots[0].Clip.Notes
	if len(notes) != 1 || notes[0].Pitch != 38 {
		t.Fatalf("expected only pitch 38 left, got %+v", notes)
	}
}

func TestClipTransposeDropsOutOfRange(t *testing.T) {
	registry, s := clipFixture(t)
	call(t, registry, "clip", "setNote", addr(map[string]any{"y": 60}))
	call(t, registry, "clip", "setNote", addr(map[string]any{"y": 126}))

	call(t, registry, "clip", "transpose", addr(map[string]any{"semitones": 5}))
	notes := s.Tracks[0].Slots[0].Clip.Notes
	if len(notes) != 1 || notes[0].Pitch != 65 {
		t.Fatalf("expected out-of-range note dropped, got %+v", notes)
	}
}

func TestClipSelectAndGetSelection(t *testing.T) {
	registry, s := clipFixture(t)

	call(t, registry, "clip", "select", map[string]any{"trackIndex": 0, "slotIndex": 2})
	if s.Selection.TrackIndex != 0 || s.Selection.SlotIndex != 2 {
		t.Fatalf("selection not applied: %+v", s.Selection)
	}

	sel := call(t, registry, "clip", "getSelection", nil)
	if sel["trackIndex"] != 0 || sel["slotIndex"] != 2 || sel["hasClip"] != false {
		t.Fatalf("unexpected selection: %v", sel)
	}
}

func TestClipSelectValidatesIndices(t *testing.T) {
	registry, _ := clipFixture(t)

	requireParamError(t, callErr(t, registry, "clip", "select", nil))
	requirePlainError(t, callErr(t, registry, "clip", "select", map[string]any{"trackIndex": 9, "slotIndex": 0}))
	requirePlainError(t, callErr(t, registry, "clip", "select", map[string]any{"trackIndex": 0, "slotIndex": 99}))
}

func TestClipHasContent(t *testing.T) {
	registry, _ := clipFixture(t)

	result := call(t, registry, "clip", "hasContent", map[string]any{"trackIndex": 0, "slotIndex": 0})
	if result["hasContent"] != true {
		t.Fatalf("expected content, got %v", result)
	}
	result = call(t, registry, "clip", "hasContent", map[string]any{"trackIndex": 0, "slotIndex": 1})
	if result["hasContent"] != false {
		t.Fatalf("expected empty slot, got %v", result)
	}
	requireParamError(t, callErr(t, registry, "clip", "hasContent", nil))
}

func TestClipStop(t *testing.T) {
	registry, s := clipFixture(t)
	s.Tracks[0].Slots[0].Clip.Playing = true

	call(t, registry, "clip", "stop", addr(nil))
	if s.Tracks[0].Slots[0].Clip.Playing {
		t.Fatal("expected clip stopped")
	}

	// Stopping an empty slot is a no-op, not an error.
	call(t, registry, "clip", "stop", map[string]any{"trackIndex": 0, "slotIndex": 1})
}

func TestClipSetNameAndLength(t *testing.T) {
	registry, s := clipFixture(t)

	call(t, registry, "clip", "setName", addr(map[string]any{"name": "Verse"}))
	call(t, registry, "clip", "setLength", addr(map[string]any{"lengthInBeats": 16.0}))
	clip := s.Tracks[0].Slots[0].Clip
	if clip.Name != "Verse" || clip.Length != 16.0 {
		t.Fatalf("unexpected clip: %+v", clip)
	}
}

func TestClipClearNote(t *testing.T) {
	registry, s := clipFixture(t)
	call(t, registry, "clip", "setNote", addr(map[string]any{"x": 0.0, "y": 36}))
	call(t, registry, "clip", "setNote", addr(map[string]any{"x": 1.0, "y": 36}))

	call(t, registry, "clip", "clearNote", addr(map[string]any{"x": 0.0, "y": 36}))
	notes := s.Tracks[0].Slots[0].Clip.Notes
	if len(notes) != 1 || notes[0].Start != 1.0 {
		t.Fatalf("expected only the note at x=1 left, got %+v", notes)
	}

	// A miss is a no-op, not an error.
	call(t, registry, "clip", "clearNote", addr(map[string]any{"x": 9.0, "y": 36}))
	if len(s.Tracks[0].Slots[0].Clip.Notes) != 1 {
		t.Fatal("miss must not remove anything")
	}

	requireParamError(t, callErr(t, registry, "clip", "clearNote", addr(nil)))
}

func TestClipMoveNote(t *testing.T) {
	registry, s := clipFixture(t)
	call(t, registry, "clip", "setNote", addr(map[string]any{"x": 1.0, "y": 60}))

	call(t, registry, "clip", "moveNote", addr(map[string]any{"x": 1.0, "y": 60, "dx": 0.5, "dy": 2}))
	notes := s.Tracks[0].Slots[0].Clip.Notes
	if len(notes) != 1 || notes[0].Start != 1.5 || notes[0].Pitch != 62 {
		t.Fatalf("note not moved: %+v", notes)
	}

	// Moving out of the MIDI range drops the note.
	call(t, registry, "clip", "moveNote", addr(map[string]any{"x": 1.5, "y": 62, "dy": 90}))
	if got := len(s.Tracks[0].Slots[0].Clip.Notes); got != 0 {
		t.Fatalf("expected out-of-range note dropped, got %d", got)
	}
}

func TestClipMoveNoteZeroDeltaAndMiss(t *testing.T) {
	registry, s := clipFixture(t)
	call(t, registry, "clip", "setNote", addr(map[string]any{"x": 0.0, "y": 60}))

	call(t, registry, "clip", "moveNote", addr(map[string]any{"x": 0.0, "y": 60}))
	call(t, registry, "clip", "moveNote", addr(map[string]any{"x": 5.0, "y": 40, "dx": 1.0}))
	notes := s.Tracks[0].Slots[0].Clip.Notes
	if len(notes) != 1 || notes[0].Start != 0.0 || notes[0].Pitch != 60 {
		t.Fatalf("note must be untouched: %+v", notes)
	}
}

func TestClipSetNoteProperties(t *testing.T) {
	registry, s := clipFixture(t)
	call(t, registry, "clip", "setNote", addr(map[string]any{"x": 0.0, "y": 60}))

	call(t, registry, "clip", "setNoteVelocity", addr(map[string]any{"x": 0.0, "y": 60, "velocity": 64.0}))
	call(t, registry, "clip", "setNoteDuration", addr(map[string]any{"x": 0.0, "y": 60, "value": 1.5}))
	call(t, registry, "clip", "setNoteMuted", addr(map[string]any{"x": 0.0, "y": 60, "muted": true}))

	n := s.Tracks[0].Slots[0].Clip.Notes[0]
	if n.Velocity != 64 || n.Duration != 1.5 || !n.Muted {
		t.Fatalf("properties not applied: %+v", n)
	}

	requireParamError(t, callErr(t, registry, "clip", "setNoteVelocity", addr(map[string]any{"x": 0.0, "y": 60})))
	requireParamError(t, callErr(t, registry, "clip", "setNoteVelocity", addr(map[string]any{"velocity": 64.0})))
}

func TestClipFindEmptySlots(t *testing.T) {
	registry, _ := clipFixture(t)

	result := call(t, registry, "clip", "findEmptySlots", map[string]any{"trackIndex": 0, "count": 2})
	empty := result["emptySlots"].([]int)
	if len(empty) != 2 || empty[0] != 1 || empty[1] != 2 {
		t.Fatalf("expected slots 1 and 2, got %v", empty)
	}
	if result["found"] != 2 || result["requested"] != 2 || result["sceneCount"] != 8 {
		t.Fatalf("unexpected envelope: %v", result)
	}
}

func TestClipFindEmptySlotsStartOffset(t *testing.T) {
	registry, _ := clipFixture(t)

	result := call(t, registry, "clip", "findEmptySlots", map[string]any{"trackIndex": 0, "startSlot": 4, "count": 10})
	empty := result["emptySlots"].([]int)
	if len(empty) != 4 || empty[0] != 4 {
		t.Fatalf("expected slots 4..7, got %v", empty)
	}

	// startFrom is accepted as an alias.
	result = call(t, registry, "clip", "findEmptySlots", map[string]any{"trackIndex": 0, "startFrom": 6, "count": 10})
	if empty := result["emptySlots"].([]int); len(empty) != 2 || empty[0] != 6 {
		t.Fatalf("startFrom alias not honored: %v", empty)
	}
}

func TestClipSceneOperations(t *testing.T) {
	registry, s := clipFixture(t)

	result := call(t, registry, "clip", "getSceneCount", nil)
	if result["sceneCount"] != 8 {
		t.Fatalf("scene count: %v", result["sceneCount"])
	}

	result = call(t, registry, "clip", "createScene", map[string]any{"count": 2})
	if result["created"] != 2 || result["sceneCount"] != 10 {
		t.Fatalf("unexpected create result: %v", result)
	}
	if len(s.Tracks[0].Slots) != 10 {
		t.Fatalf("track grid not grown: %d", len(s.Tracks[0].Slots))
	}
}

func TestClipGetNotesWithoutClipIsParamError(t *testing.T) {
	registry, _ := newTestRegistry(t)
	call(t, registry, "track", "create", nil)
	requireParamError(t, callErr(t, registry, "clip", "getNotes", addr(nil)))
}
