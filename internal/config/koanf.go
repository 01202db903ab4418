// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

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

// DefaultConfigPaths lists config file locations, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/misdaqia/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Driver:       "duckdb",
			Path:         "/data/misdaqia.duckdb",
			MaxMemory:    "1GB",
			QueryTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			SessionTimeout:  24 * time.Hour,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Notifications: NotificationsConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Realtime: RealtimeConfig{
			HeartbeatInterval: 30 * time.Second,
			AuthTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			MaxMessageSize:    64 * 1024,
			SendBuffer:        256,
			InitBatchSize:     50,
			MessagesPerSecond: 20,
			MessageBurst:      40,
		},
		Relay: RelayConfig{
			Enabled: false,
			Backend: "memory",
			Topic:   "misdaqia.notifications",
			NATS: NATSConfig{
				URL:           "nats://127.0.0.1:4222",
				EmbeddedHost:  "127.0.0.1",
				EmbeddedPort:  4222,
				MaxReconnects: -1,
				ReconnectWait: 2 * time.Second,
				ReadyTimeout:  30 * time.Second,
			},
			Redis: RedisConfig{
				Addr: "127.0.0.1:6379",
			},
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Backup: BackupConfig{
			Keep: 14,
		},
		Audit: AuditConfig{
			Enabled:         true,
			BufferSize:      1000,
			RetentionDays:   90,
			CleanupInterval: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, config file and environment,
// then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths accept comma-separated strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"realtime.allowed_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_host":        "server.host",
	"http_port":        "server.port",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	"database_driver":        "database.driver",
	"database_path":          "database.path",
	"database_max_memory":    "database.max_memory",
	"database_threads":       "database.threads",
	"database_query_timeout": "database.query_timeout",

	"jwt_secret":          "security.jwt_secret",
	"session_timeout":     "security.session_timeout",
	"admin_email":         "security.admin_email",
	"admin_password":      "security.admin_password",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
	"casbin_model_path":   "security.casbin_model_path",
	"casbin_policy_path":  "security.casbin_policy_path",

	"notifications_default_page_size": "notifications.default_page_size",
	"notifications_max_page_size":     "notifications.max_page_size",

	"heartbeat_interval":     "realtime.heartbeat_interval",
	"ws_auth_timeout":        "realtime.auth_timeout",
	"ws_write_timeout":       "realtime.write_timeout",
	"ws_max_message_size":    "realtime.max_message_size",
	"ws_send_buffer":         "realtime.send_buffer",
	"ws_init_batch_size":     "realtime.init_batch_size",
	"ws_messages_per_second": "realtime.messages_per_second",
	"ws_message_burst":       "realtime.message_burst",
	"ws_allowed_origins":     "realtime.allowed_origins",

	"relay_enabled":          "relay.enabled",
	"relay_backend":          "relay.backend",
	"relay_topic":            "relay.topic",
	"relay_breaker_failures": "relay.breaker_failures",
	"relay_breaker_timeout":  "relay.breaker_timeout",
	"nats_url":               "relay.nats.url",
	"nats_embedded":          "relay.nats.embedded",
	"nats_embedded_host":     "relay.nats.embedded_host",
	"nats_embedded_port":     "relay.nats.embedded_port",
	"nats_max_reconnects":    "relay.nats.max_reconnects",
	"nats_reconnect_wait":    "relay.nats.reconnect_wait",
	"redis_addr":             "relay.redis.addr",
	"redis_password":         "relay.redis.password",
	"redis_db":               "relay.redis.db",

	"presence_path":   "presence.path",
	"backup_dir":      "backup.dir",
	"backup_interval": "backup.interval",
	"backup_keep":     "backup.keep",

	"audit_enabled":          "audit.enabled",
	"audit_buffer_size":      "audit.buffer_size",
	"audit_retention_days":   "audit.retention_days",
	"audit_cleanup_interval": "audit.cleanup_interval",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps known environment variables onto koanf paths and
// drops everything else.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
