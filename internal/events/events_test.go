package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/TiwariV18/FinTrack/internal/domain"
)

type recordingPublisher struct {
	events []domain.TransactionEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, evt domain.TransactionEvent) error {
	r.events = append(r.events, evt)
	return r.err
}

func sampleEvent() domain.TransactionEvent {
	return domain.TransactionEvent{
		Type:          domain.EventCreated,
		Kind:          domain.KindExpense,
		OwnerID:       "user-1",
		TransactionID: "txn-1",
		Transaction:   &domain.Transaction{ID: "txn-1", Title: "Coffee", Amount: domain.AmountFromInt(150), Date: domain.NewDate(2024, time.January, 5)},
		OccurredAt:    time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC),
	}
}

func TestFanoutDeliversToAllAndJoinsErrors(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("broker down")}
	fan := Fanout{failing, nil, ok}

	err := fan.Publish(context.Background(), sampleEvent())
	if err == nil || err.Error() != "broker down" {
		t.Fatalf("expected joined broker error, got %v", err)
	}
	if len(ok.events) != 1 || len(failing.events) != 1 {
		t.Fatalf("expected every publisher to be called, got %d and %d", len(ok.events), len(failing.events))
	}
}

type broadcastRecorder struct {
	key     string
	payload []byte
}

func (b *broadcastRecorder) Broadcast(key string, payload []byte) {
	b.key = key
	b.payload = payload
}

func TestHubPublisherTargetsOwner(t *testing.T) {
	hub := &broadcastRecorder{}
	if err := NewHubPublisher(hub).Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if hub.key != "user-1" {
		t.Fatalf("expected owner key, got %q", hub.key)
	}
	var decoded map[string]any
	if err := json.Unmarshal(hub.payload, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["type"] != "created" || decoded["kind"] != "expense" || decoded["transactionId"] != "txn-1" {
		t.Fatalf("unexpected payload %s", hub.payload)
	}
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisherRoutesByKindAndType(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{channel: ch, exchange: "fintrack.transactions", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	evt := sampleEvent()
	evt.Type = domain.EventUpdated
	if err := p.Publish(context.Background(), evt); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ch.exchange != "fintrack.transactions" || ch.key != "transaction.expense.updated" {
		t.Fatalf("unexpected routing %s / %s", ch.exchange, ch.key)
	}
	if ch.msg.DeliveryMode != amqp.Persistent || ch.msg.ContentType != "application/json" {
		t.Fatalf("unexpected publishing %+v", ch.msg)
	}
	var decoded domain.TransactionEvent
	if err := json.Unmarshal(ch.msg.Body, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.TransactionID != "txn-1" || decoded.Transaction.Title != "Coffee" || decoded.Transaction.Date.String() != "2024-01-05" {
		t.Fatalf("unexpected body %s", ch.msg.Body)
	}

	ch.err = errors.New("channel closed")
	if err := p.Publish(context.Background(), evt); err == nil {
		t.Fatalf("expected publish error")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !ch.closed {
		t.Fatalf("expected channel to be closed")
	}
}
