// Package config loads relay configuration from the environment, with an
// optional YAML file overlay for deployments that prefer files over env.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

type Config struct {
	// Addr is the listen address, e.g. ":5000".
	Addr string `yaml:"addr"`

	// DatabaseURL selects the Postgres store when set. SQLitePath selects
	// the embedded store. When both are empty the relay runs on the
	// in-memory store and warns (registrations do not survive restarts).
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`

	// Bridge connectivity: HTTP base URL for lookups/sends, Redis URL and
	// channel for event intake.
	BridgeURL    string `yaml:"bridge_url"`
	RedisURL     string `yaml:"redis_url"`
	EventChannel string `yaml:"event_channel"`

	// APIKey is the shared secret checked against X-Api-Key on every
	// /api request. It is also presented to the bridge.
	APIKey string `yaml:"api_key"`

	// Events is the catalog of subscribable event codes, used by the
	// event-options component.
	Events []string `yaml:"events"`

	// BreakChar prefixes relayed outbound messages; inbound sends that
	// already start with it are rejected to stop relay loops.
	BreakChar string `yaml:"break_char"`

	DeliveryTimeout time.Duration `yaml:"delivery_timeout"`

	// RateRPS/RateBurst optionally bound outbound delivery bursts.
	// Zero RPS means unlimited.
	RateRPS   float64 `yaml:"rate_rps"`
	RateBurst int     `yaml:"rate_burst"`
}

// DefaultEvents is the subscribable catalog when none is configured.
var DefaultEvents = []string{
	"message", "message_create", "message_ack", "message_edit",
	"message_revoke_everyone", "message_revoke_me", "media_uploaded",
	"group_join", "group_leave", "group_update", "disconnected",
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables on top.
func Load() (Config, error) {
	cfg := Config{
		Addr:            ":5000",
		EventChannel:    "wa:events",
		Events:          DefaultEvents,
		BreakChar:       "​",
		DeliveryTimeout: 10 * time.Second,
		RateBurst:       1,
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	cfg.DatabaseURL = envOr("DATABASE_URL", cfg.DatabaseURL)
	cfg.SQLitePath = envOr("SQLITE_PATH", cfg.SQLitePath)
	cfg.BridgeURL = envOr("BRIDGE_URL", cfg.BridgeURL)
	cfg.RedisURL = envOr("REDIS_URL", cfg.RedisURL)
	cfg.EventChannel = envOr("EVENT_CHANNEL", cfg.EventChannel)
	cfg.APIKey = envOr("WA_WEBHOOK_API_AUTH", cfg.APIKey)
	cfg.BreakChar = envOr("WA_WEBHOOK_BREAK_CHAR", cfg.BreakChar)
	if v := os.Getenv("WA_WEBHOOK_EVENTS"); v != "" {
		cfg.Events = splitList(v)
	}
	if v := os.Getenv("DELIVERY_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return Config{}, fmt.Errorf("invalid DELIVERY_TIMEOUT_MS: %q", v)
		}
		cfg.DeliveryTimeout = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("RATE_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return Config{}, fmt.Errorf("invalid RATE_RPS: %q", v)
		}
		cfg.RateRPS = rps
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid RATE_BURST: %q", v)
		}
		cfg.RateBurst = n
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return Config{}, errors.New("WA_WEBHOOK_API_AUTH (api_key) is required")
	}
	if cfg.DatabaseURL != "" && cfg.SQLitePath != "" {
		return Config{}, errors.New("DATABASE_URL and SQLITE_PATH are mutually exclusive")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
