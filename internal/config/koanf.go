// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when MELODEX_CONFIG_PATH is
// unset. The first existing file wins; none existing is not an error.
var DefaultConfigPaths = []string{
	"config.yaml",
	"melodex.yaml",
	"/etc/melodex/config.yaml",
}

// envPrefix namespaces all Melodex environment variables.
const envPrefix = "MELODEX_"

// envKeyMap routes flat environment variable names (minus the prefix)
// to their koanf paths. Variables not listed here fall back to the
// generic prefix-strip-and-lowercase transform, so nested keys remain
// reachable as e.g. MELODEX_RECOMMEND__QUALITY_FLOOR with a double
// underscore as the section separator.
var envKeyMap = map[string]string{
	"DB_PATH":                  "database.path",
	"DB_MAX_MEMORY":            "database.max_memory",
	"DB_THREADS":               "database.threads",
	"HTTP_HOST":                "server.host",
	"HTTP_PORT":                "server.port",
	"HTTP_TIMEOUT":             "server.timeout",
	"HTTP_RATE_LIMIT":          "server.rate_limit_requests",
	"HTTP_CORS_ORIGINS":        "server.cors_origins",
	"LOG_LEVEL":                "logging.level",
	"LOG_FORMAT":               "logging.format",
	"LOG_CALLER":               "logging.caller",
	"WINDOW_DAYS":              "recommend.window_days",
	"RECOMMENDATION_COUNT":     "recommend.recommendation_count",
	"QUALITY_FLOOR":            "recommend.quality_floor",
	"REPLAY_FLOOR":             "recommend.replay_floor",
	"TEMPORAL_TOLERANCE_HOURS": "recommend.temporal_tolerance_hours",
	"SESSION_MINUTES":          "recommend.session_minutes",
	"MIN_GENRE_PLAYS":          "recommend.min_genre_plays",
	"MIN_SHARED_SESSIONS":      "recommend.min_shared_sessions",
	"TRACKS_PER_GENRE":         "recommend.tracks_per_genre",
	"WEIGHT_COLLABORATIVE":     "recommend.strategy_weights.collaborative",
	"WEIGHT_CONTENT":           "recommend.strategy_weights.content",
	"WEIGHT_TEMPORAL":          "recommend.strategy_weights.temporal",
	"WEIGHT_DISCOVERY":         "recommend.strategy_weights.discovery",
	"RUN_INTERVAL":             "scheduler.run_interval",
	"RUN_ON_STARTUP":           "scheduler.run_on_startup",
	"RUN_TIMEOUT":              "scheduler.run_timeout",
}

// sliceKeys lists koanf paths whose env values are comma separated
// strings that must be split into slices before unmarshaling.
var sliceKeys = []string{
	"server.cors_origins",
}

// defaultConfig returns the built-in defaults. Every field the loader
// can populate has a sensible value here.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "melodex.db",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			Timeout:           30 * time.Second,
			RateLimitRequests: 120,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Recommend: RecommendConfig{
			WindowDays: 90,
			Weights: StrategyWeights{
				Collaborative: 0.40,
				Content:       0.30,
				Temporal:      0.20,
				Discovery:     0.10,
			},
			RecommendationCount:    30,
			QualityFloor:           0.25,
			ReplayFloor:            1,
			TemporalToleranceHours: 2,
			SessionMinutes:         60,
			MinGenrePlays:          3,
			MinSharedSessions:      3,
			TracksPerGenre:         50,
			PopularityTiers:        []int{80, 60, 40, 20},
			EraBoundaries:          []int{2020, 2015, 2010, 2000, 1990},
			HiddenGemPeak:          50,
			HiddenGemLow:           20,
			HiddenGemHigh:          90,
		},
		Scheduler: SchedulerConfig{
			RunInterval:  30 * time.Minute,
			RunOnStartup: true,
			RunTimeout:   10 * time.Minute,
		},
	}
}

// Load builds the effective configuration: defaults, then the config
// file (if any), then environment variables. The result is validated
// before being returned.
func Load() (*Config, error) {
	return LoadWithKoanf(findConfigFile())
}

// LoadWithKoanf loads configuration from an explicit file path.
// An empty path skips the file layer.
func LoadWithKoanf(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	processSliceFields(k)

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envTransform maps an environment variable name to its koanf path.
func envTransform(s string) string {
	key := strings.TrimPrefix(s, envPrefix)
	if mapped, ok := envKeyMap[key]; ok {
		return mapped
	}
	// Generic fallback: MELODEX_SECTION__SOME_KEY -> section.some_key.
	return strings.ToLower(strings.ReplaceAll(key, "__", "."))
}

// processSliceFields splits comma separated env values into slices so
// unmarshaling into []string fields works for both file and env layers.
func processSliceFields(k *koanf.Koanf) {
	for _, key := range sliceKeys {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		_ = k.Set(key, out)
	}
}

// findConfigFile returns the explicit MELODEX_CONFIG_PATH if set,
// otherwise the first existing default path, otherwise "".
func findConfigFile() string {
	if p := os.Getenv("MELODEX_CONFIG_PATH"); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
