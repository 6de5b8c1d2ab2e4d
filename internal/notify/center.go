// Package notify keeps the short list of transient notifications shown to the
// user and expires each one on its own timer.
package notify

import (
	"sync"
	"time"

	"minihub/internal/domain"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTTL   = 3 * time.Second
	DefaultLimit = 5
)

type EventKind string

const (
	EventAdded     EventKind = "added"
	EventExpired   EventKind = "expired"
	EventDismissed EventKind = "dismissed"
)

// Event describes one change to the active set. Active is a snapshot taken
// right after the change, newest first.
type Event struct {
	Kind         EventKind             `json:"kind"`
	Notification domain.Notification   `json:"notification"`
	Active       []domain.Notification `json:"active"`
}

// Center holds at most limit notifications, newest first. Every notification
// has an expiry task keyed by its id; the task is cancelled when the
// notification leaves the set early.
type Center struct {
	mu          sync.Mutex
	clock       clockwork.Clock
	ttl         time.Duration
	limit       int
	active      []domain.Notification
	timers      map[string]clockwork.Timer
	subscribers []func(Event)
	closed      bool
	log         *logrus.Logger
}

func NewCenter(clock clockwork.Clock, ttl time.Duration, limit int, logger *logrus.Logger) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Center{
		clock:  clock,
		ttl:    ttl,
		limit:  limit,
		timers: make(map[string]clockwork.Timer),
		log:    logger,
	}
}

// Subscribe registers fn for every later change. fn runs without the
// center's lock held and may be called from timer goroutines.
func (c *Center) Subscribe(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

func (c *Center) Notify(message string, typ domain.NotificationType) domain.Notification {
	n := domain.Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Type:      typ,
		Timestamp: c.clock.Now(),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return n
	}
	c.active = append([]domain.Notification{n}, c.active...)
	for len(c.active) > c.limit {
		dropped := c.active[len(c.active)-1]
		c.active = c.active[:len(c.active)-1]
		c.cancelLocked(dropped.ID)
	}
	c.scheduleLocked(n.ID, c.ttl)
	ev := Event{Kind: EventAdded, Notification: n, Active: c.snapshotLocked()}
	subs := c.subscribers
	c.mu.Unlock()

	c.log.Debugf("Notification %s (%s): %s", n.ID, n.Type, n.Message)
	publish(subs, ev)
	return n
}

// Dismiss removes a notification before it expires. It reports false when the
// id is not active.
func (c *Center) Dismiss(id string) bool {
	return c.remove(id, EventDismissed)
}

func (c *Center) Active() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Restore reinstates previously saved notifications. Each keeps its original
// deadline; those already past it are discarded.
func (c *Center) Restore(saved []domain.Notification) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range saved {
		if len(c.active) >= c.limit {
			break
		}
		if _, dup := c.timers[n.ID]; dup {
			continue
		}
		left := n.Timestamp.Add(c.ttl).Sub(now)
		if left <= 0 {
			continue
		}
		c.active = append(c.active, n)
		c.scheduleLocked(n.ID, left)
	}
}

// Close cancels every pending expiry. Later notifications are ignored.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.timers {
		c.cancelLocked(id)
	}
	c.closed = true
}

func (c *Center) remove(id string, kind EventKind) bool {
	c.mu.Lock()
	idx := -1
	for i, n := range c.active {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	n := c.active[idx]
	c.active = append(c.active[:idx:idx], c.active[idx+1:]...)
	c.cancelLocked(id)
	ev := Event{Kind: kind, Notification: n, Active: c.snapshotLocked()}
	subs := c.subscribers
	c.mu.Unlock()

	publish(subs, ev)
	return true
}

func (c *Center) scheduleLocked(id string, after time.Duration) {
	c.timers[id] = c.clock.AfterFunc(after, func() {
		c.remove(id, EventExpired)
	})
}

func (c *Center) cancelLocked(id string) {
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
}

func (c *Center) snapshotLocked() []domain.Notification {
	return append([]domain.Notification{}, c.active...)
}

func publish(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
