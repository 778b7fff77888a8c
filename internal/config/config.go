// Package config loads the collective's configuration from
// .claude-collective/config.toml, with ${VAR} / ${VAR:default} environment
// expansion and struct validation.
package config

import "time"

// Duration wraps time.Duration so TOML strings like "10s" decode cleanly.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the root configuration.
type Config struct {
	Routing    Routing    `toml:"routing"`
	Hooks      Hooks      `toml:"hooks"`
	Experiment Experiment `toml:"experiment"`
	Queue      Queue      `toml:"queue"`
	Server     Server     `toml:"server"`
	Redis      Redis      `toml:"redis"`
	Log        Log        `toml:"log"`
}

// Routing controls the hub-and-spoke enforcement.
type Routing struct {
	// Hub names the agent acting as the routing hub.
	Hub string `toml:"hub" validate:"required"`

	// HubMode gates write-path tool calls outside subagents.
	HubMode bool `toml:"hub_mode"`
}

// Hooks configures the hook runtime.
type Hooks struct {
	// EventLog is the NDJSON file hook events append to.
	EventLog string `toml:"event_log"`

	// HandoffGate enables the failing-tests block on handoff.
	HandoffGate bool `toml:"handoff_gate"`
}

// Experiment configures experiment persistence.
type Experiment struct {
	// Backend is "file" or "redis".
	Backend string `toml:"backend" validate:"oneof=file redis"`
}

// Queue configures the task queue.
type Queue struct {
	Backend string `toml:"backend" validate:"oneof=file redis"`
}

// Server configures the HTTP API.
type Server struct {
	Addr            string   `toml:"addr" validate:"required"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// Redis configures the optional redis backend.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db" validate:"gte=0"`
	Prefix   string `toml:"prefix"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when no config.toml exists.
func Default() *Config {
	return &Config{
		Routing: Routing{
			Hub:     "routing-agent",
			HubMode: true,
		},
		Hooks: Hooks{
			EventLog:    ".claude-collective/metrics/events.ndjson",
			HandoffGate: true,
		},
		Experiment: Experiment{Backend: "file"},
		Queue:      Queue{Backend: "file"},
		Server: Server{
			Addr:            ":8420",
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Redis: Redis{
			Addr:   "localhost:6379",
			Prefix: "collective:",
		},
		Log: Log{Level: "info"},
	}
}
