package ws

import (
	"sort"
	"sync"
	"time"
)

const (
	defaultBufferMaxLen = 1000
	defaultBufferMaxAge = 1 * time.Hour
)

// EventBuffer keeps the recent targeted events of each user so a client
// that reconnects mid-negotiation can replay what it missed instead of
// refetching everything.
type EventBuffer struct {
	mu     sync.RWMutex
	byUser map[string][]Event
	ttl    time.Duration
	limit  int
	quit   chan struct{}
}

// NewEventBuffer creates a buffer bounded by limit events and ttl age per
// user, with a janitor goroutine sweeping idle users every 10 minutes.
func NewEventBuffer(limit int, ttl time.Duration) *EventBuffer {
	eb := &EventBuffer{
		byUser: make(map[string][]Event),
		ttl:    ttl,
		limit:  limit,
		quit:   make(chan struct{}),
	}
	go eb.janitor()
	return eb
}

// Stop halts the janitor goroutine.
func (eb *EventBuffer) Stop() {
	close(eb.quit)
}

func (eb *EventBuffer) janitor() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-eb.quit:
			return
		case <-ticker.C:
			eb.sweep()
		}
	}
}

// sweep drops users whose newest event already aged out. Per-event
// trimming happens on Append; this only reclaims fully idle users.
func (eb *EventBuffer) sweep() {
	cutoff := time.Now().Add(-eb.ttl)

	eb.mu.Lock()
	defer eb.mu.Unlock()

	for email, buf := range eb.byUser {
		if len(buf) == 0 || buf[len(buf)-1].Time.Before(cutoff) {
			delete(eb.byUser, email)
		}
	}
}

// Append records an event for replay, dropping entries past the age or
// length bound.
func (eb *EventBuffer) Append(email string, event *Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	buf := trimExpired(eb.byUser[email], time.Now().Add(-eb.ttl))

	buf = append(buf, *event)
	if excess := len(buf) - eb.limit; excess > 0 {
		buf = buf[excess:]
	}

	eb.byUser[email] = buf
}

// trimExpired cuts events older than cutoff off the front of buf.
// Events are appended in time order, so one scan from the front suffices.
func trimExpired(buf []Event, cutoff time.Time) []Event {
	i := 0
	for i < len(buf) && buf[i].Time.Before(cutoff) {
		i++
	}
	return buf[i:]
}

// Since returns a copy of the user's events with ID > lastEventID, or nil
// when nothing newer is buffered.
func (eb *EventBuffer) Since(email string, lastEventID uint64) []Event {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	buf := eb.byUser[email]

	// IDs are per-user monotonic, so the buffer is sorted by ID.
	first := sort.Search(len(buf), func(i int) bool {
		return buf[i].ID > lastEventID
	})
	if first == len(buf) {
		return nil
	}

	out := make([]Event, len(buf)-first)
	copy(out, buf[first:])
	return out
}

// OldestID returns the oldest buffered event ID for a user, or 0 if empty.
func (eb *EventBuffer) OldestID(email string) uint64 {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if buf := eb.byUser[email]; len(buf) > 0 {
		return buf[0].ID
	}
	return 0
}
