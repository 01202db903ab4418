// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-redis/redis/v7"
	"github.com/goccy/go-json"

	"github.com/ahmed2za/shaip-sub002/internal/config"
)

// redisFrame carries a watermill message over a Redis channel.
type redisFrame struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

func newRedisPubSub(cfg *config.RedisConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, func() error, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping().Err(); err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisPublisher(client), NewRedisSubscriber(client, logger), client.Close, nil
}

// RedisPublisher publishes watermill messages with PUBLISH.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher wraps an existing client. The caller owns the client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish implements message.Publisher.
func (p *RedisPublisher) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		data, err := json.Marshal(redisFrame{
			UUID:     msg.UUID,
			Metadata: msg.Metadata,
			Payload:  msg.Payload,
		})
		if err != nil {
			return fmt.Errorf("encode redis frame: %w", err)
		}
		if err := p.client.Publish(topic, data).Err(); err != nil {
			return fmt.Errorf("redis publish to %s: %w", topic, err)
		}
	}
	return nil
}

// Close implements message.Publisher. The client is closed by its owner.
func (p *RedisPublisher) Close() error {
	return nil
}

// RedisSubscriber turns SUBSCRIBE channels into watermill message streams.
// Redis pub/sub has no redelivery, so a nacked message is only logged.
type RedisSubscriber struct {
	client *redis.Client
	logger watermill.LoggerAdapter

	closing   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRedisSubscriber wraps an existing client. The caller owns the client.
func NewRedisSubscriber(client *redis.Client, logger watermill.LoggerAdapter) *RedisSubscriber {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &RedisSubscriber{
		client:  client,
		logger:  logger,
		closing: make(chan struct{}),
	}
}

// Subscribe implements message.Subscriber. The subscription is confirmed
// before Subscribe returns.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	pubsub := s.client.Subscribe(topic)
	if _, err := pubsub.Receive(); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe to %s: %w", topic, err)
	}

	out := make(chan *message.Message)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(out)
		defer func() { _ = pubsub.Close() }()

		incoming := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.closing:
				return
			case raw, ok := <-incoming:
				if !ok {
					return
				}
				if !s.forward(ctx, topic, raw.Payload, out) {
					return
				}
			}
		}
	}()

	return out, nil
}

// forward decodes one frame, hands it to the consumer and waits for the ack.
// Returns false when the subscriber should stop.
func (s *RedisSubscriber) forward(ctx context.Context, topic, payload string, out chan<- *message.Message) bool {
	var frame redisFrame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		s.logger.Error("Dropping undecodable redis frame", err, watermill.LogFields{"topic": topic})
		return true
	}

	msg := message.NewMessage(frame.UUID, frame.Payload)
	for k, v := range frame.Metadata {
		msg.Metadata.Set(k, v)
	}
	msg.SetContext(ctx)

	select {
	case out <- msg:
	case <-ctx.Done():
		return false
	case <-s.closing:
		return false
	}

	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		s.logger.Info("Redis message nacked, not redelivered", watermill.LogFields{
			"topic": topic,
			"uuid":  msg.UUID,
		})
	case <-ctx.Done():
		return false
	case <-s.closing:
		return false
	}
	return true
}

// Close stops every subscription and waits for them to finish.
func (s *RedisSubscriber) Close() error {
	s.closeOnce.Do(func() { close(s.closing) })
	s.wg.Wait()
	return nil
}
