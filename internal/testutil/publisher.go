package testutil

import (
	"context"
	"sync"

	"github.com/sangkips/investify-docs/internal/domain/event"
)

// RecordingPublisher keeps every published event
type RecordingPublisher struct {
	mu     sync.Mutex
	events []*event.DocumentEvent
	// Err, when set, is returned by Publish after recording the event.
	Err error
}

func (p *RecordingPublisher) Publish(ctx context.Context, evt *event.DocumentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.Err
}

// Events returns the recorded events in publish order.
func (p *RecordingPublisher) Events() []*event.DocumentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*event.DocumentEvent(nil), p.events...)
}

// Named returns the recorded events with the given name.
func (p *RecordingPublisher) Named(name string) []*event.DocumentEvent {
	var out []*event.DocumentEvent
	for _, e := range p.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
