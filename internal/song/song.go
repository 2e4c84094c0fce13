// Package song holds an in-memory model of the set the bridge controls:
// transport state, tracks, clip slots, and MIDI notes. It is the domain
// object handlers mutate; inside a real host it would be a thin facade over
// the application's live set API.
package song

import "fmt"

const defaultSceneCount = 8

type TrackKind string

const (
	TrackMIDI  TrackKind = "midi"
	TrackAudio TrackKind = "audio"
)

type Song struct {
	Tempo          float64
	SigNumerator   int
	SigDenominator int
	Playing        bool
	Recording      bool
	Position       float64 // beats
	SceneCount     int
	Tracks         []*Track
	Selection      Selection
}

// Selection mirrors the host's view state: which track and clip slot the
// user (or the automation client) last selected.
type Selection struct {
	TrackIndex int
	SlotIndex  int
}

type Track struct {
	Name   string
	Kind   TrackKind
	Mute   bool
	Solo   bool
	Arm    bool
	Volume float64
	Pan    float64
	Slots  []*ClipSlot
}

type ClipSlot struct {
	Clip *Clip
}

func (s *ClipSlot) HasClip() bool { return s != nil && s.Clip != nil }

type Clip struct {
	Name      string
	Length    float64 // beats
	Playing   bool
	Recording bool
	Notes     []Note
}

type Note struct {
	Pitch    int
	Start    float64 // beats
	Duration float64 // beats
	Velocity float64 // 0..127
	Muted    bool
}

func New() *Song {
	return &Song{
		Tempo:          120,
		SigNumerator:   4,
		SigDenominator: 4,
		SceneCount:     defaultSceneCount,
	}
}

func newTrack(kind TrackKind, name string, slots int) *Track {
	t := &Track{
		Name:   name,
		Kind:   kind,
		Volume: 0.85,
		Slots:  make([]*ClipSlot, slots),
	}
	for i := range t.Slots {
		t.Slots[i] = &ClipSlot{}
	}
	return t
}

func (s *Song) Track(index int) (*Track, error) {
	if index < 0 || index >= len(s.Tracks) {
		return nil, fmt.Errorf("track index out of range: %d", index)
	}
	return s.Tracks[index], nil
}

// CreateTrack inserts a track of the given kind at position; -1 appends.
// Returns the index the track ended up at.
func (s *Song) CreateTrack(kind TrackKind, position int) int {
	if position < 0 || position > len(s.Tracks) {
		position = len(s.Tracks)
	}
	name := fmt.Sprintf("%d %s", position+1, kind)
	s.Tracks = append(s.Tracks, nil)
	copy(s.Tracks[position+1:], s.Tracks[position:])
	s.Tracks[position] = newTrack(kind, name, s.SceneCount)
	return position
}

// CreateScenes appends count scenes at the end of the set, growing every
// track's slot grid to match.
func (s *Song) CreateScenes(count int) {
	if count < 1 {
		return
	}
	s.SceneCount += count
	for _, t := range s.Tracks {
		for len(t.Slots) < s.SceneCount {
			t.Slots = append(t.Slots, &ClipSlot{})
		}
	}
}

func (s *Song) DeleteTrack(index int) error {
	if _, err := s.Track(index); err != nil {
		return err
	}
	s.Tracks = append(s.Tracks[:index], s.Tracks[index+1:]...)
	if s.Selection.TrackIndex >= len(s.Tracks) && len(s.Tracks) > 0 {
		s.Selection.TrackIndex = len(s.Tracks) - 1
	}
	return nil
}

func (t *Track) Slot(index int) (*ClipSlot, error) {
	if index < 0 || index >= len(t.Slots) {
		return nil, fmt.Errorf("slot index out of range: %d", index)
	}
	return t.Slots[index], nil
}

// SelectedTrack resolves the current selection; used when a request omits an
// explicit trackIndex.
func (s *Song) SelectedTrack() (*Track, int, error) {
	t, err := s.Track(s.Selection.TrackIndex)
	if err != nil {
		return nil, 0, err
	}
	return t, s.Selection.TrackIndex, nil
}

// HighlightedSlot resolves the selected track's selected clip slot.
func (s *Song) HighlightedSlot() (*ClipSlot, error) {
	t, _, err := s.SelectedTrack()
	if err != nil {
		return nil, err
	}
	return t.Slot(s.Selection.SlotIndex)
}
