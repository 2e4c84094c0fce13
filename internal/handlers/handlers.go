// Package handlers implements the RPC categories the bridge exposes:
// project, transport, track, clip, and the bridge's own stats. Each handler
// is a static action → method mapping; there is no runtime reflection.
package handlers

import (
	"log/slog"
	"time"

	"daw-mcp/go-bridge/internal/metrics"
	"daw-mcp/go-bridge/internal/rpc"
	"daw-mcp/go-bridge/internal/song"
)

// New builds the immutable category registry the dispatcher routes into.
// songFn is resolved lazily: the host may not expose the set until after the
// registry is constructed.
func New(songFn func() *song.Song, m *metrics.Metrics, logger *slog.Logger) map[string]rpc.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &session{songFn: songFn, logger: logger}
	return map[string]rpc.Handler{
		"project":   &projectHandler{s: s},
		"transport": &transportHandler{s: s},
		"track":     &trackHandler{s: s},
		"clip":      &clipHandler{s: s},
		"bridge":    &bridgeHandler{metrics: m, startedAt: time.Now()},
	}
}

// session carries what every handler needs: the lazily-resolved song and the
// logging sink. The song is resolved once and cached.
type session struct {
	songFn func() *song.Song
	song   *song.Song
	logger *slog.Logger
}

func (s *session) Song() *song.Song {
	if s.song == nil {
		s.song = s.songFn()
	}
	return s.song
}

func success() map[string]any {
	return map[string]any{"success": true}
}
