// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ahmed2za/shaip-sub002/internal/logging"
)

const minJWTSecretLength = 32

// Validate checks the loaded configuration section by section.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateRealtime(); err != nil {
		return err
	}
	if err := c.validateRelay(); err != nil {
		return err
	}
	if err := c.validateBackup(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "duckdb", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be duckdb or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.Database.QueryTimeout < 0 {
		return fmt.Errorf("DATABASE_QUERY_TIMEOUT must not be negative")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Security.SessionTimeout < time.Minute {
		return fmt.Errorf("SESSION_TIMEOUT must be at least 1m")
	}
	if (c.Security.AdminEmail == "") != (c.Security.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if !c.Security.RateLimitOff && (c.Security.RateLimitReqs < 1 || c.Security.RateLimitWindow <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	if c.IsProduction() {
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain * in production")
			}
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	n := c.Notifications
	if n.DefaultPageSize < 1 || n.MaxPageSize < n.DefaultPageSize {
		return fmt.Errorf("notification page sizes invalid: default=%d max=%d", n.DefaultPageSize, n.MaxPageSize)
	}
	return nil
}

func (c *Config) validateRealtime() error {
	r := c.Realtime
	if r.HeartbeatInterval < time.Second {
		return fmt.Errorf("HEARTBEAT_INTERVAL must be at least 1s")
	}
	if r.AuthTimeout <= 0 || r.WriteTimeout <= 0 {
		return fmt.Errorf("WS_AUTH_TIMEOUT and WS_WRITE_TIMEOUT must be positive")
	}
	if r.MaxMessageSize < 512 {
		return fmt.Errorf("WS_MAX_MESSAGE_SIZE must be at least 512 bytes")
	}
	if r.SendBuffer < 1 || r.InitBatchSize < 1 {
		return fmt.Errorf("WS_SEND_BUFFER and WS_INIT_BATCH_SIZE must be positive")
	}
	if r.MessagesPerSecond <= 0 || r.MessageBurst < 1 {
		return fmt.Errorf("WS_MESSAGES_PER_SECOND and WS_MESSAGE_BURST must be positive")
	}
	return nil
}

func (c *Config) validateRelay() error {
	if !c.Relay.Enabled {
		return nil
	}
	if c.Relay.Topic == "" {
		return fmt.Errorf("RELAY_TOPIC is required when RELAY_ENABLED=true")
	}
	switch c.Relay.Backend {
	case "memory":
	case "nats":
		if c.Relay.NATS.Embedded {
			return nil
		}
		u, err := url.Parse(c.Relay.NATS.URL)
		if err != nil || (u.Scheme != "nats" && u.Scheme != "tls") || u.Host == "" {
			return fmt.Errorf("NATS_URL must be a nats:// or tls:// URL, got %q", c.Relay.NATS.URL)
		}
	case "redis":
		if !strings.Contains(c.Relay.Redis.Addr, ":") {
			return fmt.Errorf("REDIS_ADDR must be host:port, got %q", c.Relay.Redis.Addr)
		}
	default:
		return fmt.Errorf("RELAY_BACKEND must be memory, nats or redis, got %q", c.Relay.Backend)
	}
	return nil
}

func (c *Config) validateBackup() error {
	if c.Backup.Interval < 0 || c.Backup.Keep < 0 {
		return fmt.Errorf("BACKUP_INTERVAL and BACKUP_KEEP must not be negative")
	}
	if c.Backup.Interval > 0 && c.Backup.Dir == "" {
		return fmt.Errorf("BACKUP_DIR is required when BACKUP_INTERVAL is set")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	if c.Audit.BufferSize < 1 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be at least 1, got %d", c.Audit.BufferSize)
	}
	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must not be negative")
	}
	if c.Audit.RetentionDays > 0 && c.Audit.CleanupInterval < time.Minute {
		return fmt.Errorf("AUDIT_CLEANUP_INTERVAL must be at least 1m, got %s", c.Audit.CleanupInterval)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
