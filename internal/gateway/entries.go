package gateway

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/atinyakov/hacklearn/internal/fallback"
	"github.com/atinyakov/hacklearn/internal/models"
)

var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Done is the payload of operations that return no data.
type Done struct{}

// GetMachineNotes lists the notes of userID for machineID.
func (g *Gateway) GetMachineNotes(ctx context.Context, userID string, machineID int64) (res Result[[]models.Note]) {
	start := time.Now()
	defer func() { observe("getMachineNotes", start, res.Source, res.Success) }()

	notes, err := call(ctx, g, func(b Backend) ([]models.Note, error) {
		return b.ListNotes(ctx, userID, machineID)
	})
	if err == nil {
		return ok(notes, SourceBackend)
	}

	g.fallingBack("getMachineNotes", err)
	list := make([]models.Note, 0)
	if _, err := g.store.Get(fallback.NotesKey(userID, machineID), &list); err != nil {
		return fail[[]models.Note](err, SourceFallback)
	}
	return ok(list, SourceFallback)
}

// AddNote stores n for userID and machineID.
func (g *Gateway) AddNote(ctx context.Context, userID string, machineID int64, n models.Note) (res Result[*models.Note]) {
	start := time.Now()
	defer func() { observe("addNote", start, res.Source, res.Success) }()

	n.UserID = userID
	n.MachineID = machineID
	saved, err := call(ctx, g, func(b Backend) (*models.Note, error) {
		return b.InsertNote(ctx, n)
	})
	if err == nil {
		return ok(saved, SourceBackend)
	}

	g.fallingBack("addNote", err)
	key := fallback.NotesKey(userID, machineID)
	list := make([]models.Note, 0)
	if _, err := g.store.Get(key, &list); err != nil {
		return fail[*models.Note](err, SourceFallback)
	}
	n.ID = fallback.NewID()
	n.CreatedAt = time.Now()
	list = append(list, n)
	if err := g.store.Put(key, list); err != nil {
		return fail[*models.Note](err, SourceFallback)
	}
	return ok(&n, SourceFallback)
}

// DeleteNote removes noteID from the notes of userID.
func (g *Gateway) DeleteNote(ctx context.Context, userID, noteID string) (res Result[Done]) {
	start := time.Now()
	defer func() { observe("deleteNote", start, res.Source, res.Success) }()

	_, err := call(ctx, g, func(b Backend) (Done, error) {
		return Done{}, b.DeleteNote(ctx, userID, noteID)
	})
	if err == nil {
		return ok(Done{}, SourceBackend)
	}

	g.fallingBack("deleteNote", err)
	keys, err := g.store.Keys(fallback.NotesPrefix(userID))
	if err != nil {
		return fail[Done](err, SourceFallback)
	}
	for _, key := range keys {
		var list []models.Note
		if _, err := g.store.Get(key, &list); err != nil {
			return fail[Done](err, SourceFallback)
		}
		for i := range list {
			if list[i].ID != noteID {
				continue
			}
			list = append(list[:i], list[i+1:]...)
			if err := g.store.Put(key, list); err != nil {
				return fail[Done](err, SourceFallback)
			}
			return ok(Done{}, SourceFallback)
		}
	}
	return ok(Done{}, SourceFallback)
}

// ScheduleMachine puts machineID on the calendar of userID at date, a
// YYYY-MM-DD key. Malformed dates are rejected before any I/O.
func (g *Gateway) ScheduleMachine(ctx context.Context, userID string, machineID int64, date string) (res Result[*models.ScheduledEntry]) {
	start := time.Now()
	defer func() { observe("scheduleMachine", start, res.Source, res.Success) }()

	if !dateKeyPattern.MatchString(date) {
		return fail[*models.ScheduledEntry](fmt.Errorf("%w: %q", models.ErrInvalidDateKey, date), "")
	}

	entry := models.ScheduledEntry{UserID: userID, MachineID: machineID, Date: date}
	saved, err := call(ctx, g, func(b Backend) (*models.ScheduledEntry, error) {
		return b.InsertCalendarEntry(ctx, entry)
	})
	if err == nil {
		return ok(saved, SourceBackend)
	}

	g.fallingBack("scheduleMachine", err)
	key := fallback.CalendarKey(userID)
	list := make([]models.ScheduledEntry, 0)
	if _, err := g.store.Get(key, &list); err != nil {
		return fail[*models.ScheduledEntry](err, SourceFallback)
	}
	entry.ID = fallback.NewID()
	entry.CreatedAt = time.Now()
	list = append(list, entry)
	if err := g.store.Put(key, list); err != nil {
		return fail[*models.ScheduledEntry](err, SourceFallback)
	}
	entry.Machine = demoByID(machineID)
	return ok(&entry, SourceFallback)
}

// GetScheduledMachines returns the entries of userID dated within
// [startDate, endDate] inclusive, with their machine records attached.
func (g *Gateway) GetScheduledMachines(ctx context.Context, userID, startDate, endDate string) (res Result[[]models.ScheduledEntry]) {
	start := time.Now()
	defer func() { observe("getScheduledMachines", start, res.Source, res.Success) }()

	entries, err := call(ctx, g, func(b Backend) ([]models.ScheduledEntry, error) {
		return b.ListCalendarEntries(ctx, userID, startDate, endDate)
	})
	if err == nil {
		return ok(entries, SourceBackend)
	}

	g.fallingBack("getScheduledMachines", err)
	var list []models.ScheduledEntry
	if _, err := g.store.Get(fallback.CalendarKey(userID), &list); err != nil {
		return fail[[]models.ScheduledEntry](err, SourceFallback)
	}
	filtered := make([]models.ScheduledEntry, 0, len(list))
	for _, e := range list {
		if e.Date >= startDate && e.Date <= endDate {
			e.Machine = demoByID(e.MachineID)
			filtered = append(filtered, e)
		}
	}
	return ok(filtered, SourceFallback)
}

// DeleteScheduledEntry removes entryID from the calendar of userID.
func (g *Gateway) DeleteScheduledEntry(ctx context.Context, userID, entryID string) (res Result[Done]) {
	start := time.Now()
	defer func() { observe("deleteScheduledEntry", start, res.Source, res.Success) }()

	_, err := call(ctx, g, func(b Backend) (Done, error) {
		return Done{}, b.DeleteCalendarEntry(ctx, userID, entryID)
	})
	if err == nil {
		return ok(Done{}, SourceBackend)
	}

	g.fallingBack("deleteScheduledEntry", err)
	key := fallback.CalendarKey(userID)
	var list []models.ScheduledEntry
	if _, err := g.store.Get(key, &list); err != nil {
		return fail[Done](err, SourceFallback)
	}
	for i := range list {
		if list[i].ID == entryID {
			list = append(list[:i], list[i+1:]...)
			if err := g.store.Put(key, list); err != nil {
				return fail[Done](err, SourceFallback)
			}
			break
		}
	}
	return ok(Done{}, SourceFallback)
}

// GetRoadmapProgress returns the checkboxes userID ticked on roadmap certID.
func (g *Gateway) GetRoadmapProgress(ctx context.Context, userID string, certID int) (res Result[map[int64]bool]) {
	start := time.Now()
	defer func() { observe("getRoadmapProgress", start, res.Source, res.Success) }()

	progress, err := call(ctx, g, func(b Backend) (map[int64]bool, error) {
		return b.ListRoadmapProgress(ctx, userID, certID)
	})
	if err == nil {
		return ok(progress, SourceBackend)
	}

	g.fallingBack("getRoadmapProgress", err)
	raw := make(map[string]bool)
	if _, err := g.store.Get(fallback.RoadmapKey(userID, certID), &raw); err != nil {
		return fail[map[int64]bool](err, SourceFallback)
	}
	progress = make(map[int64]bool, len(raw))
	for k, v := range raw {
		if id, err := strconv.ParseInt(k, 10, 64); err == nil {
			progress[id] = v
		}
	}
	return ok(progress, SourceFallback)
}

// SetRoadmapProgress ticks or clears one roadmap checkbox.
func (g *Gateway) SetRoadmapProgress(ctx context.Context, userID string, certID int, machineID int64, completed bool) (res Result[Done]) {
	start := time.Now()
	defer func() { observe("setRoadmapProgress", start, res.Source, res.Success) }()

	_, err := call(ctx, g, func(b Backend) (Done, error) {
		return Done{}, b.SetRoadmapProgress(ctx, userID, certID, machineID, completed)
	})
	if err == nil {
		return ok(Done{}, SourceBackend)
	}

	g.fallingBack("setRoadmapProgress", err)
	key := fallback.RoadmapKey(userID, certID)
	raw := make(map[string]bool)
	if _, err := g.store.Get(key, &raw); err != nil {
		return fail[Done](err, SourceFallback)
	}
	raw[strconv.FormatInt(machineID, 10)] = completed
	if err := g.store.Put(key, raw); err != nil {
		return fail[Done](err, SourceFallback)
	}
	return ok(Done{}, SourceFallback)
}
