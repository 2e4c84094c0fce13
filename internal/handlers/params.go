package handlers

import "daw-mcp/go-bridge/internal/rpc"

// JSON numbers arrive as float64; these helpers normalize access and turn
// missing or mistyped values into the dispatcher's bad-input signal.

func requireFloat(params map[string]any, key string) (float64, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return 0, rpc.Paramf("missing required parameter: %s", key)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, rpc.Paramf("parameter %s must be a number", key)
	}
	return f, nil
}

func requireInt(params map[string]any, key string) (int, error) {
	f, err := requireFloat(params, key)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func optFloat(params map[string]any, key string, def float64) float64 {
	v, ok := params[key]
	if !ok || v == nil {
		return def
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	return def
}

func optInt(params map[string]any, key string, def int) int {
	return int(optFloat(params, key, float64(def)))
}

func optString(params map[string]any, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}

func optBool(params map[string]any, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

// hasParam reports whether the key is present with a non-null value; several
// clip operations change behavior between explicit indices and the current
// selection based on this.
func hasParam(params map[string]any, key string) bool {
	v, ok := params[key]
	return ok && v != nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
