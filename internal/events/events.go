// Package events delivers transaction mutations to live subscribers and the message bus.
package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/TiwariV18/FinTrack/internal/domain"
)

// Publisher delivers a transaction event somewhere.
type Publisher interface {
	Publish(ctx context.Context, evt domain.TransactionEvent) error
}

// Fanout publishes to every member and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, evt domain.TransactionEvent) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Broadcaster is the subset of ws.Hub used for live delivery.
type Broadcaster interface {
	Broadcast(key string, payload []byte)
}

// HubPublisher pushes events to the owner's websocket and SSE subscribers.
type HubPublisher struct {
	hub Broadcaster
}

// NewHubPublisher wraps hub.
func NewHubPublisher(hub Broadcaster) HubPublisher {
	return HubPublisher{hub: hub}
}

// Publish sends the event to subscribers keyed by its owner only.
func (p HubPublisher) Publish(_ context.Context, evt domain.TransactionEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	p.hub.Broadcast(evt.OwnerID, payload)
	return nil
}
