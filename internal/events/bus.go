// Package events carries cross-component notifications inside the process.
package events

import (
	"fmt"
	"sync"

	"github.com/atinyakov/hacklearn/internal/models"
	"go.uber.org/zap"
)

// Kind identifies an event type.
type Kind string

const (
	// AuthReady fires once, after the session manager has resolved the
	// identity restored at start-up (which may be nil).
	AuthReady Kind = "auth_ready"
	// AuthChanged fires on every sign-in and sign-out.
	AuthChanged Kind = "auth_changed"
	// DataChanged fires after a successful write through the catalog store.
	DataChanged Kind = "data_changed"
	// TrophyUnlocked fires once per newly crossed trophy.
	TrophyUnlocked Kind = "trophy_unlocked"
	// RoadmapCompleted fires when a roadmap reaches 100%.
	RoadmapCompleted Kind = "roadmap_completed"
)

// Entity names the kind of record a DataChanged event refers to.
type Entity string

const (
	EntityStatus   Entity = "status"
	EntityNote     Entity = "note"
	EntitySchedule Entity = "schedule"
	EntityRoadmap  Entity = "roadmap"
)

// Event is the payload delivered to subscribers. Only the fields relevant
// to Kind are set.
type Event struct {
	Kind Kind
	// User is the identity after the change; nil after sign-out.
	User *models.Identity
	// Entity and MachineID describe a DataChanged write.
	Entity    Entity
	MachineID int64
	// Status is the new status for EntityStatus writes.
	Status models.Status
	Trophy *models.Trophy
	// Certification names the completed roadmap.
	Certification string
}

// Handler receives events.
type Handler func(Event)

// Bus dispatches events synchronously to the handlers subscribed to their
// kind, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Kind][]subscription
	log    *zap.Logger
}

type subscription struct {
	id int
	h  Handler
}

// NewBus returns an empty Bus.
func NewBus(log *zap.Logger) *Bus {
	return &Bus{subs: make(map[Kind][]subscription), log: log}
}

// Subscribe registers h for events of kind k and returns a function that
// removes it.
func (b *Bus) Subscribe(k Kind, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[k] = append(b.subs[k], subscription{id: id, h: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[k]
		for i, s := range list {
			if s.id == id {
				b.subs[k] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers e to every subscriber of e.Kind. A panicking handler is
// logged and does not stop delivery to the others.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.Kind]))
	for _, s := range b.subs[e.Kind] {
		handlers = append(handlers, s.h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(h, e)
	}
}

func (b *Bus) deliver(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("kind", string(e.Kind)),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	h(e)
}
