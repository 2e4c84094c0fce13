package handlers

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"daw-mcp/go-bridge/internal/rpc"
	"daw-mcp/go-bridge/internal/song"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRegistry builds the handler registry around a fresh song and returns
// both so tests can call actions and inspect the model directly.
func newTestRegistry(t *testing.T) (map[string]rpc.Handler, *song.Song) {
	t.Helper()
	s := song.New()
	registry := New(func() *song.Song { return s }, nil, discardLogger())
	return registry, s
}

func call(t *testing.T, registry map[string]rpc.Handler, category, action string, params map[string]any) map[string]any {
	t.Helper()
	result, err := registry[category].Handle(action, params)
	if err != nil {
		t.Fatalf("%s.%s failed: %v", category, action, err)
	}
	m, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("%s.%s returned %T, want map", category, action, result)
	}
	return m
}

func callErr(t *testing.T, registry map[string]rpc.Handler, category, action string, params map[string]any) error {
	t.Helper()
	_, err := registry[category].Handle(action, params)
	if err == nil {
		t.Fatalf("%s.%s expected to fail", category, action)
	}
	return err
}

func requireParamError(t *testing.T, err error) {
	t.Helper()
	var pe *rpc.ParamError
	if !errors.As(err, &pe) {
		t.Fatalf("expected bad-parameter error, got %T: %v", err, err)
	}
}

func requirePlainError(t *testing.T, err error) {
	t.Helper()
	var pe *rpc.ParamError
	if errors.As(err, &pe) {
		t.Fatalf("expected plain error, got bad-parameter error: %v", err)
	}
}

func TestProjectGetInfo(t *testing.T) {
	registry, s := newTestRegistry(t)
	s.Tempo = 128
	s.Playing = true

	info := call(t, registry, "project", "getInfo", nil)
	if info["bpm"] != 128.0 {
		t.Fatalf("expected bpm 128, got %v", info["bpm"])
	}
	if info["timeSignatureNumerator"] != 4 || info["timeSignatureDenominator"] != 4 {
		t.Fatalf("unexpected signature: %v/%v", info["timeSignatureNumerator"], info["timeSignatureDenominator"])
	}
	if info["isPlaying"] != true || info["isRecording"] != false {
		t.Fatalf("unexpected transport flags: %v", info)
	}
}

func TestProjectUnknownAction(t *testing.T) {
	registry, _ := newTestRegistry(t)
	requireParamError(t, callErr(t, registry, "project", "explode", nil))
}

func TestTransportSetPosition(t *testing.T) {
	registry, s := newTestRegistry(t)

	call(t, registry, "transport", "setPosition", map[string]any{"beats": 16.5})
	if s.Position != 16.5 {
		t.Fatalf("expected position 16.5, got %v", s.Position)
	}
}

func TestTransportSetPositionRequiresBeats(t *testing.T) {
	registry, _ := newTestRegistry(t)
	requireParamError(t, callErr(t, registry, "transport", "setPosition", map[string]any{}))
	requireParamError(t, callErr(t, registry, "transport", "setPosition", map[string]any{"beats": "loud"}))
}

func TestTransportToggles(t *testing.T) {
	registry, s := newTestRegistry(t)

	call(t, registry, "transport", "togglePlay", nil)
	if !s.Playing {
		t.Fatal("expected playing after toggle")
	}
	call(t, registry, "transport", "togglePlay", nil)
	if s.Playing {
		t.Fatal("expected stopped after second toggle")
	}

	call(t, registry, "transport", "toggleRecord", nil)
	if !s.Recording {
		t.Fatal("expected recording after toggle")
	}
}

func TestTransportGetStatus(t *testing.T) {
	registry, s := newTestRegistry(t)
	s.Playing = true
	s.Position = 8

	status := call(t, registry, "transport", "getStatus", nil)
	if status["isPlaying"] != true || status["position"] != 8.0 {
		t.Fatalf("unexpected status: %v", status)
	}
}
