// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package relay

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/ahmed2za/shaip-sub002/internal/config"
)

const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
	BackendRedis  = "redis"

	DefaultTopic = "misdaqia.notifications"
)

// New connects the configured backend and returns a Relay delivering to local.
func New(cfg *config.RelayConfig, local Local, logger watermill.LoggerAdapter) (*Relay, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	opts := Options{
		Backend:         cfg.Backend,
		Topic:           cfg.Topic,
		Local:           local,
		BreakerFailures: cfg.BreakerFailures,
		BreakerTimeout:  cfg.BreakerTimeout,
	}

	switch cfg.Backend {
	case BackendMemory, "":
		opts.Backend = BackendMemory
		gc := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
		opts.Publisher, opts.Subscriber = gc, gc
	case BackendNATS:
		pub, sub, err := newNATSPubSub(&cfg.NATS, logger)
		if err != nil {
			return nil, err
		}
		opts.Publisher, opts.Subscriber = pub, sub
	case BackendRedis:
		pub, sub, closeFn, err := newRedisPubSub(&cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		opts.Publisher, opts.Subscriber = pub, sub
		opts.Closers = append(opts.Closers, closeFn)
	default:
		return nil, fmt.Errorf("unsupported relay backend %q", cfg.Backend)
	}

	return NewWithPubSub(opts), nil
}
