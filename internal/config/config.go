// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

// Package config loads and validates the server configuration.
//
// Values are layered with koanf: built-in defaults, then an optional YAML
// file (CONFIG_PATH, config.yaml), then environment variables. See
// envMappings in koanf.go for the supported variables.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Security      SecurityConfig      `koanf:"security"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Realtime      RealtimeConfig      `koanf:"realtime"`
	Relay         RelayConfig         `koanf:"relay"`
	Presence      PresenceConfig      `koanf:"presence"`
	Backup        BackupConfig        `koanf:"backup"`
	Audit         AuditConfig         `koanf:"audit"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// DatabaseConfig selects and tunes the relational store.
type DatabaseConfig struct {
	// Driver is "duckdb" or "sqlite".
	Driver    string `koanf:"driver"`
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"` // duckdb only
	Threads   int    `koanf:"threads"`    // duckdb only, 0 = runtime.NumCPU()

	// QueryTimeout bounds every repository call that arrives without a deadline.
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// SecurityConfig holds authentication and HTTP hardening settings.
type SecurityConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	SessionTimeout  time.Duration `koanf:"session_timeout"`
	AdminEmail      string        `koanf:"admin_email"`
	AdminPassword   string        `koanf:"admin_password"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	RateLimitOff    bool          `koanf:"rate_limit_disabled"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	CasbinModel     string        `koanf:"casbin_model_path"`
	CasbinPolicy    string        `koanf:"casbin_policy_path"`
}

// NotificationsConfig bounds notification listing.
type NotificationsConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// RealtimeConfig tunes the websocket delivery server.
type RealtimeConfig struct {
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	AuthTimeout       time.Duration `koanf:"auth_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	MaxMessageSize    int64         `koanf:"max_message_size"`
	SendBuffer        int           `koanf:"send_buffer"`
	InitBatchSize     int           `koanf:"init_batch_size"`
	MessagesPerSecond float64       `koanf:"messages_per_second"`
	MessageBurst      int           `koanf:"message_burst"`
	AllowedOrigins    []string      `koanf:"allowed_origins"`
}

// RelayConfig configures cross-instance fan-out.
type RelayConfig struct {
	Enabled bool `koanf:"enabled"`

	// Backend is "memory", "nats" or "redis".
	Backend string `koanf:"backend"`
	Topic   string `koanf:"topic"`

	NATS  NATSConfig  `koanf:"nats"`
	Redis RedisConfig `koanf:"redis"`

	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// NATSConfig configures the NATS relay backend.
type NATSConfig struct {
	URL           string        `koanf:"url"`
	Embedded      bool          `koanf:"embedded"`
	EmbeddedHost  string        `koanf:"embedded_host"`
	EmbeddedPort  int           `koanf:"embedded_port"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
	ReadyTimeout  time.Duration `koanf:"ready_timeout"`
}

// RedisConfig configures the Redis relay backend.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// PresenceConfig configures the last-seen store. An empty path keeps it in memory.
type PresenceConfig struct {
	Path string `koanf:"path"`
}

// BackupConfig configures where created backups are written and how often
// the scheduler takes one. A zero Interval disables scheduling.
type BackupConfig struct {
	Dir      string        `koanf:"dir"`
	Interval time.Duration `koanf:"interval"`
	Keep     int           `koanf:"keep"` // 0 keeps every file
}

// AuditConfig controls the admin and sign-in audit trail.
type AuditConfig struct {
	Enabled         bool          `koanf:"enabled"`
	BufferSize      int           `koanf:"buffer_size"`
	RetentionDays   int           `koanf:"retention_days"` // 0 keeps every event
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs with production checks.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
