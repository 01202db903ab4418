// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

// Package relay fans realtime deliveries out to every server instance.
//
// The notification service hands pushes to the Relay instead of the local
// hub. The Relay publishes a delivery envelope on a watermill topic; every
// instance, including the publisher, consumes it and delivers to the sockets
// it holds. Backends: in-process gochannel, core NATS, or Redis pub/sub.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/metrics"
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

const (
	KindUser      = "user"
	KindBroadcast = "broadcast"

	metadataKind      = "kind"
	metadataOrigin    = "origin"
	metadataRequestID = "request_id"

	deliverTimeout = 10 * time.Second
)

// ErrClosed is returned by publishes after Close.
var ErrClosed = errors.New("relay is closed")

// Local delivers to the sockets of this instance. Implemented by realtime.Hub.
type Local interface {
	SendNotification(ctx context.Context, userID string, n *models.Notification) error
	BroadcastNotification(ctx context.Context, batch []*models.Notification, excludeUserID string) error
}

// Envelope is the message published for one delivery.
type Envelope struct {
	Kind          string                 `json:"kind"`
	UserID        string                 `json:"userId,omitempty"`
	ExcludeUserID string                 `json:"excludeUserId,omitempty"`
	Origin        string                 `json:"origin"`
	Notifications []*models.Notification `json:"notifications"`
}

// Relay publishes deliveries and applies the ones it consumes to Local.
type Relay struct {
	backend    string
	topic      string
	instanceID string

	publisher  message.Publisher
	subscriber message.Subscriber
	closers    []func() error
	local      Local
	breaker    *gobreaker.CircuitBreaker[interface{}]

	ready     chan struct{}
	readyOnce sync.Once

	mu     sync.RWMutex
	closed bool
}

// Options assemble a Relay from an existing publisher/subscriber pair.
type Options struct {
	Backend         string
	Topic           string
	Publisher       message.Publisher
	Subscriber      message.Subscriber
	Closers         []func() error
	Local           Local
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// NewWithPubSub builds a Relay around opts.Publisher and opts.Subscriber.
func NewWithPubSub(opts Options) *Relay {
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}
	return &Relay{
		backend:    opts.Backend,
		topic:      opts.Topic,
		instanceID: watermill.NewShortUUID(),
		publisher:  opts.Publisher,
		subscriber: opts.Subscriber,
		closers:    opts.Closers,
		local:      opts.Local,
		breaker:    NewCircuitBreaker("relay-"+opts.Backend, opts.BreakerFailures, opts.BreakerTimeout),
		ready:      make(chan struct{}),
	}
}

// InstanceID identifies this process in published envelopes.
func (r *Relay) InstanceID() string {
	return r.instanceID
}

// Ready is closed once Run has subscribed to the topic.
func (r *Relay) Ready() <-chan struct{} {
	return r.ready
}

// SendNotification publishes a single-user delivery.
func (r *Relay) SendNotification(ctx context.Context, userID string, n *models.Notification) error {
	return r.publish(ctx, &Envelope{
		Kind:          KindUser,
		UserID:        userID,
		Notifications: []*models.Notification{n},
	})
}

// BroadcastNotification publishes one broadcast delivery.
func (r *Relay) BroadcastNotification(ctx context.Context, batch []*models.Notification, excludeUserID string) error {
	return r.publish(ctx, &Envelope{
		Kind:          KindBroadcast,
		ExcludeUserID: excludeUserID,
		Notifications: batch,
	})
}

func (r *Relay) publish(ctx context.Context, env *Envelope) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return ErrClosed
	}
	r.mu.RUnlock()

	env.Origin = r.instanceID
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode relay envelope: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(metadataKind, env.Kind)
	msg.Metadata.Set(metadataOrigin, r.instanceID)
	if requestID := logging.RequestIDFromContext(ctx); requestID != "" {
		msg.Metadata.Set(metadataRequestID, requestID)
	}
	msg.SetContext(ctx)

	_, err = r.breaker.Execute(func() (interface{}, error) {
		return nil, r.publisher.Publish(r.topic, msg)
	})
	metrics.RecordRelayPublish(r.backend, err)
	if err != nil {
		return fmt.Errorf("relay publish: %w", err)
	}
	return nil
}

// Run consumes the topic until ctx is canceled.
func (r *Relay) Run(ctx context.Context) error {
	messages, err := r.subscriber.Subscribe(ctx, r.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.topic, err)
	}
	r.readyOnce.Do(func() { close(r.ready) })

	logging.Info().
		Str("backend", r.backend).
		Str("topic", r.topic).
		Str("instance", r.instanceID).
		Msg("Relay subscribed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("relay subscription closed")
			}
			r.handle(msg)
			msg.Ack()
		}
	}
}

// handle applies one envelope locally. Failures are logged and dropped.
func (r *Relay) handle(msg *message.Message) {
	metrics.RelayConsumed.WithLabelValues(r.backend).Inc()

	var env Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable relay message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()
	if requestID := msg.Metadata.Get(metadataRequestID); requestID != "" {
		ctx = logging.ContextWithRequestID(ctx, requestID)
	}

	var err error
	switch env.Kind {
	case KindUser:
		if len(env.Notifications) == 0 {
			return
		}
		err = r.local.SendNotification(ctx, env.UserID, env.Notifications[0])
	case KindBroadcast:
		err = r.local.BroadcastNotification(ctx, env.Notifications, env.ExcludeUserID)
	default:
		logging.Warn().Str("kind", env.Kind).Msg("Dropping relay message of unknown kind")
		return
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("kind", env.Kind).
			Str("origin", env.Origin).
			Msg("Local delivery of relayed notification failed")
	}
}

// Close shuts the publisher, subscriber and backend connections.
func (r *Relay) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	var errs []error
	if err := r.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if err := r.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}
	for _, closeFn := range r.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
