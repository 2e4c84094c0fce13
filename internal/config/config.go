// Package config loads the bridge configuration: defaults, overlaid by an
// optional YAML file, overlaid by DAWMCP_* environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPort is the well-known loopback port the external automation client
// connects to.
const DefaultPort = 8182

type Config struct {
	Port             int
	TickInterval     time.Duration
	MaxBufferedBytes int
	RateLimit        RateLimit
	Logging          Logging
}

type RateLimit struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type Logging struct {
	Level  string // debug | info | warn | error
	Format string // text | json
}

func Default() Config {
	return Config{
		Port:             DefaultPort,
		TickInterval:     100 * time.Millisecond,
		MaxBufferedBytes: 1 << 20,
		RateLimit:        RateLimit{Enabled: true, RPS: 30, Burst: 60},
		Logging:          Logging{Level: "info", Format: "text"},
	}
}

// File shape. Pointer fields distinguish "absent" from zero values so the
// file only overrides what it actually sets.
type fileConfig struct {
	Bridge fileBridgeConfig `yaml:"bridge"`
}

type fileBridgeConfig struct {
	Port             int               `yaml:"port"`
	TickInterval     string            `yaml:"tickInterval"`
	MaxBufferedBytes *int              `yaml:"maxBufferedBytes"`
	RateLimit        fileRateLimit     `yaml:"rateLimit"`
	Logging          fileLoggingConfig `yaml:"logging"`
}

type fileRateLimit struct {
	Enabled *bool   `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

type fileLoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadFromPath reads configPath, or the default candidate locations when it
// is empty. A missing or unparseable file falls through to defaults; env
// overrides always apply last.
func LoadFromPath(configPath string) Config {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"go-bridge/configs/config.yaml",
			"configs/config.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var parsed fileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}

		merged := cfg
		Merge(&merged, parsed.Bridge)
		ApplyEnvOverrides(&merged)
		return merged
	}

	ApplyEnvOverrides(&cfg)
	return cfg
}

func Merge(dst *Config, src fileBridgeConfig) {
	if src.Port != 0 {
		dst.Port = src.Port
	}
	if src.TickInterval != "" {
		if parsed, err := time.ParseDuration(src.TickInterval); err == nil && parsed > 0 {
			dst.TickInterval = parsed
		}
	}
	if src.MaxBufferedBytes != nil {
		dst.MaxBufferedBytes = *src.MaxBufferedBytes
	}
	if src.RateLimit.Enabled != nil {
		dst.RateLimit.Enabled = *src.RateLimit.Enabled
	}
	if src.RateLimit.RPS > 0 {
		dst.RateLimit.RPS = src.RateLimit.RPS
	}
	if src.RateLimit.Burst > 0 {
		dst.RateLimit.Burst = src.RateLimit.Burst
	}
	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
	if src.Logging.Format != "" {
		dst.Logging.Format = src.Logging.Format
	}
}

func ApplyEnvOverrides(cfg *Config) {
	if v, ok := envInt("DAWMCP_PORT"); ok {
		cfg.Port = v
	}
	if raw := strings.TrimSpace(os.Getenv("DAWMCP_TICK_INTERVAL")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			cfg.TickInterval = parsed
		}
	}
	if v, ok := envInt("DAWMCP_MAX_BUFFERED_BYTES"); ok {
		cfg.MaxBufferedBytes = v
	}
	if v, ok := envBool("DAWMCP_RATE_LIMIT_ENABLED"); ok {
		cfg.RateLimit.Enabled = v
	}
	if raw := strings.TrimSpace(os.Getenv("DAWMCP_RATE_LIMIT_RPS")); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			cfg.RateLimit.RPS = parsed
		}
	}
	if v, ok := envInt("DAWMCP_RATE_LIMIT_BURST"); ok && v > 0 {
		cfg.RateLimit.Burst = v
	}
	if raw := strings.TrimSpace(os.Getenv("DAWMCP_LOG_LEVEL")); raw != "" {
		cfg.Logging.Level = raw
	}
	if raw := strings.TrimSpace(os.Getenv("DAWMCP_LOG_FORMAT")); raw != "" {
		cfg.Logging.Format = raw
	}
}

func envInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func envBool(name string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}
