// Package notify delivers marketplace events to Zapier and NATS.
package notify

import (
	"context" // Per-sink deadlines
	"sync"    // Tracking in-flight deliveries
	"time"    // Event timestamps

	"github.com/sirupsen/logrus" // Structured logging
)

// Event names
const (
	EventUserRegistered = "user.registered"
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// Event is the envelope every sink receives
type Event struct {
	Type       string    `json:"event"`     // One of the Event* names
	OccurredAt time.Time `json:"timestamp"` // UTC
	Data       any       `json:"data"`      // Event payload
}

// NewEvent stamps an event with the current time
func NewEvent(eventType string, data any) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Data: data}
}

// Sink delivers one event
type Sink interface {
	Name() string
	Send(ctx context.Context, ev Event) error
}

// Dispatcher fans events out to every sink without blocking the caller
type Dispatcher struct {
	sinks    []Sink
	timeout  time.Duration // Budget of each sink, not shared between sinks
	async    bool
	inflight sync.WaitGroup
}

// NewDispatcher sends asynchronously with a per-sink timeout
func NewDispatcher(timeout time.Duration, sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, timeout: timeout, async: true}
}

// NewSyncDispatcher delivers before Publish returns
func NewSyncDispatcher(timeout time.Duration, sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, timeout: timeout}
}

// Enabled reports whether any sink is configured
func (d *Dispatcher) Enabled() bool {
	return d != nil && len(d.sinks) > 0
}

// Publish delivers ev to all sinks; failures are logged, never returned
func (d *Dispatcher) Publish(eventType string, data any) {
	if !d.Enabled() {
		return
	}
	ev := NewEvent(eventType, data)
	d.inflight.Add(1)
	if d.async {
		go d.deliver(ev)
		return
	}
	d.deliver(ev)
}

// Wait blocks until in-flight deliveries finish or ctx is done
func (d *Dispatcher) Wait(ctx context.Context) error {
	if d == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deliver sends to every sink concurrently so a slow sink cannot starve the others
func (d *Dispatcher) deliver(ev Event) {
	defer d.inflight.Done()
	var wg sync.WaitGroup
	for _, s := range d.sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			d.send(s, ev)
		}(s)
	}
	wg.Wait()
}

func (d *Dispatcher) send(s Sink, ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout) // Each sink gets the full budget
	defer cancel()
	if err := s.Send(ctx, ev); err != nil {
		logrus.WithFields(logrus.Fields{
			"sink":  s.Name(),    // Failing sink
			"event": ev.Type,     // Event name
			"error": err.Error(), // Error message
		}).Error("Event delivery failed")
		return
	}
	logrus.WithFields(logrus.Fields{"sink": s.Name(), "event": ev.Type}).Debug("Event delivered")
}
