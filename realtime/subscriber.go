// Package realtime bridges the store's change-notification feed into the
// task cache. The transport hands events to a callback; the subscriber moves
// them onto a bounded ordered channel drained by a single loop, so merge
// order is exactly delivery order no matter what the transport's callback
// discipline looks like.
package realtime

import (
	"sync"

	"github.com/opsboard/opsboard/cache"
	"github.com/opsboard/opsboard/gateway"
	"github.com/opsboard/opsboard/types"
)

const defaultBuffer = 256

// Subscriber owns at most one active feed. Delivery is at-most-once and
// fire-and-forget: a full buffer drops the event, and reconnecting a dropped
// transport is not this layer's job.
type Subscriber struct {
	gw    gateway.Gateway
	cache *cache.Cache

	// OnApply, when set, is called after each event has been merged into
	// the cache. The board view uses it to trigger redraws.
	OnApply func(gateway.ChangeEvent)
	// Logf, when set, receives diagnostics (dropped events).
	Logf func(format string, args ...any)
	// Buffer overrides the event channel capacity when set before Start.
	Buffer int

	mu     sync.Mutex
	handle gateway.Handle
	events chan gateway.ChangeEvent
	done   chan struct{}
}

// New builds a subscriber feeding c from gw's feed.
func New(gw gateway.Gateway, c *cache.Cache) *Subscriber {
	return &Subscriber{gw: gw, cache: c}
}

// Start registers the feed and starts the reconciliation loop. A second
// Start without an intervening Stop fails with ErrFeedActive.
func (s *Subscriber) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		return types.ErrFeedActive
	}

	buffer := s.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	events := make(chan gateway.ChangeEvent, buffer)
	done := make(chan struct{})

	handle, err := s.gw.Subscribe(func(ev gateway.ChangeEvent) {
		select {
		case events <- ev:
		default:
			s.logf("realtime buffer full, dropping %s event", ev.Kind)
		}
	})
	if err != nil {
		return err
	}

	go func() {
		defer close(done)
		for ev := range events {
			s.cache.ApplyRemoteEvent(ev)
			if s.OnApply != nil {
				s.OnApply(ev)
			}
		}
	}()

	s.handle = handle
	s.events = events
	s.done = done
	return nil
}

// Stop tears the feed down: unsubscribes, drains what was already buffered,
// and waits for the loop to exit. After Stop returns no further events reach
// the cache. Stopping with no active feed fails with ErrNoFeed.
func (s *Subscriber) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return types.ErrNoFeed
	}

	err := s.gw.Unsubscribe(s.handle)
	// The gateway guarantees no callbacks after Unsubscribe returns, so the
	// channel can be closed safely; the loop drains the remainder and exits.
	close(s.events)
	<-s.done

	s.handle = nil
	s.events = nil
	s.done = nil
	return err
}

// Active reports whether a feed is currently registered.
func (s *Subscriber) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

func (s *Subscriber) logf(format string, args ...any) {
	if s.Logf != nil {
		s.Logf(format, args...)
	}
}
