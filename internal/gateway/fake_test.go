package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/atinyakov/hacklearn/internal/models"
)

// fakeBackend is an in-memory Backend. When err is set every call fails
// with it.
type fakeBackend struct {
	mu       sync.Mutex
	err      error
	calls    int
	machines []models.Machine
	statuses map[int64]*models.UserMachineStatus
	notes    []models.Note
	entries  []models.ScheduledEntry
	roadmap  map[int64]bool
	nextID   int64
}

func newFakeBackend(machines ...models.Machine) *fakeBackend {
	return &fakeBackend{
		machines: machines,
		statuses: make(map[int64]*models.UserMachineStatus),
		roadmap:  make(map[int64]bool),
	}
}

func (f *fakeBackend) enter() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeBackend) ListMachines(_ context.Context, _ models.MachineFilter, offset, limit int) ([]models.Machine, int, error) {
	if err := f.enter(); err != nil {
		return nil, 0, err
	}
	if offset >= len(f.machines) {
		return []models.Machine{}, len(f.machines), nil
	}
	end := min(offset+limit, len(f.machines))
	return f.machines[offset:end], len(f.machines), nil
}

func (f *fakeBackend) GetMachine(_ context.Context, id int64) (*models.Machine, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	for _, m := range f.machines {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("GetMachine: %w", models.ErrNotFound)
}

func (f *fakeBackend) FindMachineByName(_ context.Context, name string) (*models.Machine, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	for _, m := range f.machines {
		if m.Name == name {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("FindMachineByName: %w", models.ErrNotFound)
}

func (f *fakeBackend) GetMachinesByIDs(_ context.Context, ids []int64) ([]models.Machine, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	out := make([]models.Machine, 0)
	for _, m := range f.machines {
		for _, id := range ids {
			if m.ID == id {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (f *fakeBackend) AllMachines(context.Context) ([]models.Machine, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	return f.machines, nil
}

func (f *fakeBackend) GetUserMachineStatus(_ context.Context, _ string, machineID int64) (*models.UserMachineStatus, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	if s, ok := f.statuses[machineID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, fmt.Errorf("GetUserMachineStatus: %w", models.ErrNotFound)
}

func (f *fakeBackend) InsertUserMachineStatus(_ context.Context, s models.UserMachineStatus) (*models.UserMachineStatus, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	f.nextID++
	s.ID = f.nextID
	f.statuses[s.MachineID] = &s
	return &s, nil
}

func (f *fakeBackend) UpdateUserMachineStatus(_ context.Context, id int64, status models.Status) error {
	if err := f.enter(); err != nil {
		return err
	}
	for _, s := range f.statuses {
		if s.ID == id {
			s.Status = status
			return nil
		}
	}
	return fmt.Errorf("UpdateUserMachineStatus: %w", models.ErrNotFound)
}

func (f *fakeBackend) ListMachineIDsByStatus(_ context.Context, _ string, status models.Status) ([]int64, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	ids := make([]int64, 0)
	for id, s := range f.statuses {
		if s.Status == status {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeBackend) ListNotes(_ context.Context, _ string, machineID int64) ([]models.Note, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	out := make([]models.Note, 0)
	for _, n := range f.notes {
		if n.MachineID == machineID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeBackend) InsertNote(_ context.Context, n models.Note) (*models.Note, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	f.nextID++
	n.ID = fmt.Sprint(f.nextID)
	f.notes = append(f.notes, n)
	return &n, nil
}

func (f *fakeBackend) DeleteNote(_ context.Context, _, noteID string) error {
	if err := f.enter(); err != nil {
		return err
	}
	for i, n := range f.notes {
		if n.ID == noteID {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeBackend) InsertCalendarEntry(_ context.Context, e models.ScheduledEntry) (*models.ScheduledEntry, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	f.nextID++
	e.ID = fmt.Sprint(f.nextID)
	f.entries = append(f.entries, e)
	return &e, nil
}

func (f *fakeBackend) ListCalendarEntries(_ context.Context, _ string, start, end string) ([]models.ScheduledEntry, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	out := make([]models.ScheduledEntry, 0)
	for _, e := range f.entries {
		if e.Date >= start && e.Date <= end {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeBackend) DeleteCalendarEntry(_ context.Context, _, entryID string) error {
	if err := f.enter(); err != nil {
		return err
	}
	for i, e := range f.entries {
		if e.ID == entryID {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeBackend) ListRoadmapProgress(context.Context, string, int) (map[int64]bool, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	return f.roadmap, nil
}

func (f *fakeBackend) SetRoadmapProgress(_ context.Context, _ string, _ int, machineID int64, completed bool) error {
	if err := f.enter(); err != nil {
		return err
	}
	f.roadmap[machineID] = completed
	return nil
}
