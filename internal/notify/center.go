// Package notify keeps the transient notifications shown to the user.
// Every notification expires a fixed time after it was raised.
package notify

import (
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 5 * time.Second

// Level is the severity of a notification.
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

// Notification is one message with its expiry.
type Notification struct {
	ID        uint64    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier raises notifications.
type Notifier interface {
	Notify(level Level, message string) Notification
}

// Center is an in-memory Notifier. Expired entries are dropped lazily on
// every read and write.
type Center struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	nextID uint64
	items  []Notification
	log    *zap.Logger
}

// NewCenter returns a Center whose notifications live for ttl. A
// non-positive ttl selects DefaultTTL.
func NewCenter(ttl time.Duration, log *zap.Logger) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{ttl: ttl, now: time.Now, log: log}
}

// Notify records a new notification and returns it.
func (c *Center) Notify(level Level, message string) Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.expire(now)
	c.nextID++
	n := Notification{
		ID:        c.nextID,
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.items = append(c.items, n)
	c.log.Debug("notification raised",
		zap.Uint64("id", n.ID),
		zap.String("level", string(level)),
		zap.String("message", message),
	)
	return n
}

// Active returns the notifications that have not expired, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expire(c.now())
	return slices.Clone(c.items)
}

// Dismiss removes the notification with id before it expires.
func (c *Center) Dismiss(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = slices.Delete(c.items, i, i+1)
			return true
		}
	}
	return false
}

func (c *Center) expire(now time.Time) {
	c.items = slices.DeleteFunc(c.items, func(n Notification) bool {
		return !now.Before(n.ExpiresAt)
	})
}
