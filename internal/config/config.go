// Package config defines agent configuration structures and loading hooks.
//
// Conventions follow the rest of the project: defaults come from
// New(...), Load layers an optional YAML file and environment on top,
// and external errors are wrapped via this package's error kinds.
package config

import "context"

// Config contains process configuration. Every engine threshold lives
// here so tuning never requires a rebuild.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// OpsAddr configures the operational HTTP listen address
	// (/healthz, /metrics, /regions, /stats).
	OpsAddr string `koanf:"ops_addr"`

	// APIBase is the game API root, e.g. "https://www.moltyroyale.com/api".
	APIBase string `koanf:"api_base"`

	// APIKey is the bearer credential for the game API.
	APIKey string `koanf:"api_key"`

	// AgentName identifies the agent in joins and User-Agent headers.
	AgentName string `koanf:"agent_name"`

	// TickIntervalMS is the pause between decision cycles.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// TickDeadlineMS bounds one full fetch-decide-act cycle. A tick
	// exceeding it is abandoned as missed, not failed.
	TickDeadlineMS int `koanf:"tick_deadline_ms"`

	// APITimeoutMS bounds a single game API round trip.
	APITimeoutMS int `koanf:"api_timeout_ms"`

	// Engagement thresholds.
	WinProbEngage float64 `koanf:"win_prob_engage"`
	EscapeProbMax float64 `koanf:"escape_prob_max"`

	// Healing thresholds, as HP percentages.
	HealthCritical float64 `koanf:"health_critical"`
	HealthNormal   float64 `koanf:"health_normal"`

	// WeaponUpgradeMargin is the relative score improvement required
	// before hunting a replacement weapon.
	WeaponUpgradeMargin float64 `koanf:"weapon_upgrade_margin"`

	// RegionFloor is the minimum region value score worth exploring.
	RegionFloor float64 `koanf:"region_floor"`

	// Zone escape tuning.
	MaxCloseSpeed    float64 `koanf:"max_close_speed"`
	ZoneSafetyMargin float64 `koanf:"zone_safety_margin"`

	// LootRange is the pickup distance for ground loot.
	LootRange float64 `koanf:"loot_range"`

	// EventQueueSize bounds the outcome event queue.
	EventQueueSize int `koanf:"event_queue_size"`

	// DedupeSize bounds the outcome event seen-set.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the region value store.
	ShardCount int `koanf:"shard_count"`

	// RedisAddr enables region score persistence when non-empty.
	RedisAddr string `koanf:"redis_addr"`
}

// New creates a Config with defaults. Context is accepted first per the
// project-wide convention; reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		OpsAddr:             ":9090",
		APIBase:             "https://www.moltyroyale.com/api",
		APIKey:              "",
		AgentName:           "ShadowStrike",
		TickIntervalMS:      1000,
		TickDeadlineMS:      5000,
		APITimeoutMS:        8000,
		WinProbEngage:       0.60,
		EscapeProbMax:       0.40,
		HealthCritical:      35,
		HealthNormal:        60,
		WeaponUpgradeMargin: 0.15,
		RegionFloor:         0.5,
		MaxCloseSpeed:       10,
		ZoneSafetyMargin:    0.8,
		LootRange:           20,
		EventQueueSize:      1024,
		DedupeSize:          10_000,
		ShardCount:          8,
		RedisAddr:           "",
	}
}
