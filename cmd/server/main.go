// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahmed2za/shaip-sub002/internal/api"
	"github.com/ahmed2za/shaip-sub002/internal/audit"
	"github.com/ahmed2za/shaip-sub002/internal/auth"
	"github.com/ahmed2za/shaip-sub002/internal/authz"
	"github.com/ahmed2za/shaip-sub002/internal/backup"
	"github.com/ahmed2za/shaip-sub002/internal/config"
	"github.com/ahmed2za/shaip-sub002/internal/database"
	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/notification"
	"github.com/ahmed2za/shaip-sub002/internal/presence"
	"github.com/ahmed2za/shaip-sub002/internal/realtime"
	"github.com/ahmed2za/shaip-sub002/internal/review"
	"github.com/ahmed2za/shaip-sub002/internal/supervisor"
	"github.com/ahmed2za/shaip-sub002/internal/supervisor/services"
)

//nolint:gocyclo // sequential startup
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_driver", cfg.Database.Driver).
		Str("db_path", cfg.Database.Path).
		Bool("relay_enabled", cfg.Relay.Enabled).
		Msg("Starting Misdaqia notification server")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	store, err := presence.Open(cfg.Presence.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open presence store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing presence store")
		}
	}()

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	accounts := auth.NewAccounts(db, jwtManager)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := accounts.EnsureAdmin(ctx, cfg.Security.AdminEmail, cfg.Security.AdminPassword); err != nil {
		logging.Fatal().Err(err).Msg("Failed to create bootstrap admin")
	}

	enforcer, err := authz.NewEnforcer(authz.EnforcerConfig{
		ModelPath:  cfg.Security.CasbinModel,
		PolicyPath: cfg.Security.CasbinPolicy,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}

	notifications := notification.NewService(db, db, nil, notification.Config{
		DefaultPageSize: cfg.Notifications.DefaultPageSize,
		MaxPageSize:     cfg.Notifications.MaxPageSize,
		InitBatchSize:   cfg.Realtime.InitBatchSize,
	})
	hub := realtime.NewHub(hubConfig(&cfg.Realtime), jwtManager, notifications, store)

	backups, err := backup.NewManager(db, cfg.Backup.Dir)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize backup manager")
	}

	var auditLog *audit.Logger
	if cfg.Audit.Enabled {
		auditLog = audit.NewLogger(db, audit.Config{
			Enabled:         true,
			BufferSize:      cfg.Audit.BufferSize,
			RetentionDays:   cfg.Audit.RetentionDays,
			CleanupInterval: cfg.Audit.CleanupInterval,
		})
		// queued events are flushed before the database closes
		defer func() { _ = auditLog.Close() }()
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// without a relay the hub is the only deliverer
	notifications.SetDeliverer(hub)
	if cfg.Relay.Enabled {
		rel, closeRelay, err := startRelay(cfg, hub, tree)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to start notification relay")
		}
		defer closeRelay()
		notifications.SetDeliverer(rel)
	}

	router := api.NewRouter(api.Dependencies{
		Config:        cfg,
		DB:            db,
		JWT:           jwtManager,
		Accounts:      accounts,
		Enforcer:      enforcer,
		Notifications: notifications,
		Reviews:       review.NewService(db, notifications),
		Backups:       backups,
		Audit:         auditLog,
		Presence:      store,
		Online:        hub,
		Realtime:      hub,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	if cfg.Backup.Interval > 0 {
		tree.AddDataService(backup.NewScheduler(backups, cfg.Backup.Interval, cfg.Backup.Keep))
	}
	if auditLog != nil && cfg.Audit.RetentionDays > 0 {
		tree.AddDataService(auditLog)
	}
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped")
}

func hubConfig(cfg *config.RealtimeConfig) realtime.Config {
	return realtime.Config{
		HeartbeatInterval: cfg.HeartbeatInterval,
		AuthTimeout:       cfg.AuthTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		MaxMessageSize:    cfg.MaxMessageSize,
		SendBuffer:        cfg.SendBuffer,
		MessagesPerSecond: cfg.MessagesPerSecond,
		MessageBurst:      cfg.MessageBurst,
		AllowedOrigins:    cfg.AllowedOrigins,
	}
}
