package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/atinyakov/hacklearn/internal/models"
)

// Backend is the hosted table service. Every call is scoped to the owning
// user where the entity has one.
type Backend interface {
	ListMachines(ctx context.Context, f models.MachineFilter, offset, limit int) ([]models.Machine, int, error)
	GetMachine(ctx context.Context, id int64) (*models.Machine, error)
	FindMachineByName(ctx context.Context, name string) (*models.Machine, error)
	GetMachinesByIDs(ctx context.Context, ids []int64) ([]models.Machine, error)
	AllMachines(ctx context.Context) ([]models.Machine, error)

	GetUserMachineStatus(ctx context.Context, userID string, machineID int64) (*models.UserMachineStatus, error)
	InsertUserMachineStatus(ctx context.Context, s models.UserMachineStatus) (*models.UserMachineStatus, error)
	UpdateUserMachineStatus(ctx context.Context, id int64, status models.Status) error
	ListMachineIDsByStatus(ctx context.Context, userID string, status models.Status) ([]int64, error)

	ListNotes(ctx context.Context, userID string, machineID int64) ([]models.Note, error)
	InsertNote(ctx context.Context, n models.Note) (*models.Note, error)
	DeleteNote(ctx context.Context, userID, noteID string) error

	InsertCalendarEntry(ctx context.Context, e models.ScheduledEntry) (*models.ScheduledEntry, error)
	ListCalendarEntries(ctx context.Context, userID, start, end string) ([]models.ScheduledEntry, error)
	DeleteCalendarEntry(ctx context.Context, userID, entryID string) error

	ListRoadmapProgress(ctx context.Context, userID string, certID int) (map[int64]bool, error)
	SetRoadmapProgress(ctx context.Context, userID string, certID int, machineID int64, completed bool) error
}

// ClientProvider hands out the backend once it has been initialised. The
// backend is usually connected in the background after start-up.
type ClientProvider struct {
	wait  time.Duration
	ready chan struct{}
	once  sync.Once

	mu      sync.RWMutex
	backend Backend
}

// NewClientProvider returns a provider that makes callers wait at most
// wait for the backend to become ready.
func NewClientProvider(wait time.Duration) *ClientProvider {
	return &ClientProvider{wait: wait, ready: make(chan struct{})}
}

// Set publishes b and releases every waiting caller. A nil b records that
// initialisation failed, so callers stop waiting and use the fallback.
func (p *ClientProvider) Set(b Backend) {
	p.mu.Lock()
	p.backend = b
	p.mu.Unlock()
	p.once.Do(func() { close(p.ready) })
}

// Client returns the backend, waiting up to the configured window for it
// to be set. It returns nil when none is available.
func (p *ClientProvider) Client(ctx context.Context) Backend {
	select {
	case <-p.ready:
		return p.current()
	default:
	}

	t := time.NewTimer(p.wait)
	defer t.Stop()
	select {
	case <-p.ready:
	case <-t.C:
	case <-ctx.Done():
	}
	return p.current()
}

func (p *ClientProvider) current() Backend {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.backend
}
