// Misdaqia - Company Reviews and Realtime Notifications
// Copyright 2026 Ahmed Z. (ahmed2za)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ahmed2za/shaip-sub002

package relay

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/ahmed2za/shaip-sub002/internal/config"
	"github.com/ahmed2za/shaip-sub002/internal/logging"
	"github.com/ahmed2za/shaip-sub002/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

type delivery struct {
	kind    string
	userID  string
	exclude string
	batch   []*models.Notification
}

type recordingLocal struct {
	mu         sync.Mutex
	deliveries []delivery
	got        chan struct{}
}

func newRecordingLocal() *recordingLocal {
	return &recordingLocal{got: make(chan struct{}, 16)}
}

func (l *recordingLocal) SendNotification(_ context.Context, userID string, n *models.Notification) error {
	l.record(delivery{kind: KindUser, userID: userID, batch: []*models.Notification{n}})
	return nil
}

func (l *recordingLocal) BroadcastNotification(_ context.Context, batch []*models.Notification, excludeUserID string) error {
	l.record(delivery{kind: KindBroadcast, exclude: excludeUserID, batch: batch})
	return nil
}

func (l *recordingLocal) record(d delivery) {
	l.mu.Lock()
	l.deliveries = append(l.deliveries, d)
	l.mu.Unlock()
	l.got <- struct{}{}
}

func (l *recordingLocal) wait(t *testing.T) delivery {
	t.Helper()
	select {
	case <-l.got:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for local delivery")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deliveries[len(l.deliveries)-1]
}

// startRelay runs r until the test ends and waits for its subscription.
func startRelay(t *testing.T, r *Relay) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = r.Close()
	})
	select {
	case <-r.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not subscribe")
	}
}

func testNotification(userID string) *models.Notification {
	return &models.Notification{
		ID:        watermill.NewUUID(),
		UserID:    userID,
		Type:      models.NotificationInfo,
		Message:   "new review",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestRelay_MemoryUserDelivery(t *testing.T) {
	local := newRecordingLocal()
	r, err := New(&config.RelayConfig{Backend: BackendMemory}, local, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	startRelay(t, r)

	n := testNotification("u1")
	ctx := logging.ContextWithRequestID(context.Background(), "req-1")
	if err := r.SendNotification(ctx, "u1", n); err != nil {
		t.Fatalf("SendNotification() error = %v", err)
	}

	d := local.wait(t)
	if d.kind != KindUser || d.userID != "u1" || len(d.batch) != 1 || d.batch[0].ID != n.ID {
		t.Errorf("delivery = %+v", d)
	}
	if d.batch[0].Message != n.Message || !d.batch[0].CreatedAt.Equal(n.CreatedAt) {
		t.Errorf("payload changed in transit: %+v", d.batch[0])
	}
}

func TestRelay_BroadcastKeepsExclusion(t *testing.T) {
	local := newRecordingLocal()
	r, err := New(&config.RelayConfig{Backend: BackendMemory}, local, nil)
	if err != nil {
		t.Fatal(err)
	}
	startRelay(t, r)

	batch := []*models.Notification{testNotification("a"), testNotification("b")}
	if err := r.BroadcastNotification(context.Background(), batch, "caller"); err != nil {
		t.Fatalf("BroadcastNotification() error = %v", err)
	}

	d := local.wait(t)
	if d.kind != KindBroadcast || d.exclude != "caller" || len(d.batch) != 2 {
		t.Errorf("delivery = %+v", d)
	}
}

func TestRelay_FanOutToEveryInstance(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})

	locals := []*recordingLocal{newRecordingLocal(), newRecordingLocal()}
	relays := make([]*Relay, len(locals))
	for i, local := range locals {
		relays[i] = NewWithPubSub(Options{
			Backend:    BackendMemory,
			Publisher:  pubSub,
			Subscriber: pubSub,
			Local:      local,
		})
		startRelay(t, relays[i])
	}

	if err := relays[0].SendNotification(context.Background(), "u1", testNotification("u1")); err != nil {
		t.Fatal(err)
	}
	for i, local := range locals {
		if d := local.wait(t); d.userID != "u1" {
			t.Errorf("instance %d delivery = %+v", i, d)
		}
	}
}

func TestRelay_DropsUndecodableMessages(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	local := newRecordingLocal()
	r := NewWithPubSub(Options{Backend: BackendMemory, Publisher: pubSub, Subscriber: pubSub, Local: local})
	startRelay(t, r)

	if err := pubSub.Publish(DefaultTopic, message.NewMessage(watermill.NewUUID(), []byte("{not json"))); err != nil {
		t.Fatal(err)
	}
	if err := r.SendNotification(context.Background(), "u2", testNotification("u2")); err != nil {
		t.Fatal(err)
	}
	if d := local.wait(t); d.userID != "u2" {
		t.Errorf("delivery = %+v, want the valid message only", d)
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return errors.New("broker down") }
func (failingPublisher) Close() error                               { return nil }

func TestRelay_BreakerOpensAfterFailures(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	r := NewWithPubSub(Options{
		Backend:         "test",
		Publisher:       failingPublisher{},
		Subscriber:      pubSub,
		Local:           newRecordingLocal(),
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	})
	defer r.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := r.SendNotification(ctx, "u", testNotification("u")); err == nil {
			t.Fatalf("publish %d should fail", i)
		}
	}
	if state := r.breaker.State().String(); state != "open" {
		t.Errorf("breaker state = %s, want open", state)
	}
}

func TestRelay_PublishAfterClose(t *testing.T) {
	r, err := New(&config.RelayConfig{Backend: BackendMemory}, newRecordingLocal(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if err := r.SendNotification(context.Background(), "u", testNotification("u")); !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(&config.RelayConfig{Backend: "kafka"}, newRecordingLocal(), nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestRelay_EmbeddedNATS(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}
	srv, err := NewEmbeddedServer(&config.NATSConfig{EmbeddedPort: -1})
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	if !srv.IsRunning() {
		t.Fatal("embedded server not running")
	}

	locals := []*recordingLocal{newRecordingLocal(), newRecordingLocal()}
	relays := make([]*Relay, len(locals))
	for i, local := range locals {
		r, err := New(&config.RelayConfig{
			Backend: BackendNATS,
			NATS:    config.NATSConfig{URL: srv.ClientURL(), MaxReconnects: 3},
		}, local, nil)
		if err != nil {
			t.Fatalf("New(nats) error = %v", err)
		}
		relays[i] = r
		startRelay(t, r)
	}

	// core NATS subscriptions are registered asynchronously on the server
	time.Sleep(100 * time.Millisecond)

	if err := relays[1].BroadcastNotification(context.Background(), []*models.Notification{testNotification("x")}, ""); err != nil {
		t.Fatal(err)
	}
	for i, local := range locals {
		if d := local.wait(t); d.kind != KindBroadcast {
			t.Errorf("instance %d delivery = %+v", i, d)
		}
	}
}
