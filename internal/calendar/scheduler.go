package calendar

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/atinyakov/hacklearn/internal/events"
	"github.com/atinyakov/hacklearn/internal/gateway"
	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/atinyakov/hacklearn/internal/notify"
	"go.uber.org/zap"
)

// UpcomingLimit bounds the upcoming sessions list.
const UpcomingLimit = 10

var (
	// ErrNoDateSelected is returned when scheduling without a target date.
	ErrNoDateSelected = errors.New("select a date first")
	// ErrNotAuthenticated is returned when no user is signed in.
	ErrNotAuthenticated = models.ErrNotAuthenticated
)

// Gateway is the persistence used by the scheduler.
type Gateway interface {
	GetScheduledMachines(ctx context.Context, userID, startDate, endDate string) gateway.Result[[]models.ScheduledEntry]
	ScheduleMachine(ctx context.Context, userID string, machineID int64, date string) gateway.Result[*models.ScheduledEntry]
	DeleteScheduledEntry(ctx context.Context, userID, entryID string) gateway.Result[gateway.Done]
}

// IdentityProvider exposes the signed-in user.
type IdentityProvider interface {
	CurrentUser() *models.Identity
}

// Scheduler owns the in-memory date index of the visible month. All
// mutation goes through its methods.
type Scheduler struct {
	gw       Gateway
	identity IdentityProvider
	notifier notify.Notifier
	bus      *events.Bus
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	month    time.Time // first day of the visible month
	dayView  time.Time
	selected *time.Time
	entries  map[string][]models.ScheduledEntry
	// seq numbers loads; a response is applied only if no later load started.
	seq uint64
}

// NewScheduler returns a Scheduler showing the current month.
func NewScheduler(gw Gateway, identity IdentityProvider, notifier notify.Notifier, bus *events.Bus, log *zap.Logger) *Scheduler {
	s := &Scheduler{
		gw:       gw,
		identity: identity,
		notifier: notifier,
		bus:      bus,
		log:      log,
		now:      time.Now,
		entries:  make(map[string][]models.ScheduledEntry),
	}
	s.resetView()
	return s
}

func (s *Scheduler) resetView() {
	today := startOfDay(s.now())
	s.month, _ = monthBounds(today)
	s.dayView = today
	s.selected = nil
}

func (s *Scheduler) loc() *time.Location {
	return s.now().Location()
}

// Reset clears the index and returns the view to today. Loads that are
// still in flight are discarded.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.entries = make(map[string][]models.ScheduledEntry)
	s.resetView()
}

// Load replaces the index with the entries of the visible month. On
// failure the previous index is kept. A response that arrives after a
// newer Load has started is dropped.
func (s *Scheduler) Load(ctx context.Context) error {
	u := s.identity.CurrentUser()
	if u == nil {
		return ErrNotAuthenticated
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	first, last := monthBounds(s.month)
	s.mu.Unlock()

	res := s.gw.GetScheduledMachines(ctx, u.ID, FormatDateKey(first), FormatDateKey(last))
	if !res.Success {
		s.log.Error("failed to load scheduled machines", zap.String("error", res.Error))
		return fmt.Errorf("load schedule: %w", res.Err())
	}

	next := make(map[string][]models.ScheduledEntry)
	for _, e := range res.Data {
		key := e.Date
		if !dateKeyPattern.MatchString(key) {
			s.log.Warn("skipping entry with malformed date", zap.String("id", e.ID), zap.String("date", e.Date))
			continue
		}
		next[key] = append(next[key], e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.log.Debug("discarding stale schedule load", zap.Uint64("seq", seq), zap.Uint64("latest", s.seq))
		return nil
	}
	s.entries = next
	return nil
}

// ShiftMonth moves the visible month by delta months and reloads.
func (s *Scheduler) ShiftMonth(ctx context.Context, delta int) error {
	s.mu.Lock()
	s.month = time.Date(s.month.Year(), s.month.Month()+time.Month(delta), 1, 0, 0, 0, 0, s.month.Location())
	s.mu.Unlock()
	return s.Load(ctx)
}

// Month returns the first day of the visible month.
func (s *Scheduler) Month() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.month
}

// ShiftDay moves the day view by delta days and returns its new date key.
// The index is not reloaded.
func (s *Scheduler) ShiftDay(delta int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dayView = s.dayView.AddDate(0, 0, delta)
	return FormatDateKey(s.dayView)
}

// Select marks dateKey as the selected day and points the day view at it.
func (s *Scheduler) Select(dateKey string) error {
	d, err := ParseDateKey(dateKey, s.loc())
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &d
	s.dayView = d
	return nil
}

// Selected returns the selected date key, or "" when none.
func (s *Scheduler) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return ""
	}
	return FormatDateKey(*s.selected)
}

// Schedule puts machineID on dateKey, or on the selected day when dateKey
// is empty, then reloads the month and selects that day.
func (s *Scheduler) Schedule(ctx context.Context, machineID int64, dateKey string) (*models.ScheduledEntry, error) {
	u := s.identity.CurrentUser()
	if u == nil {
		return nil, ErrNotAuthenticated
	}
	if dateKey == "" {
		if dateKey = s.Selected(); dateKey == "" {
			s.notifier.Notify(notify.Warning, "Selecciona una fecha primero")
			return nil, ErrNoDateSelected
		}
	}
	day, err := ParseDateKey(dateKey, s.loc())
	if err != nil {
		return nil, err
	}

	res := s.gw.ScheduleMachine(ctx, u.ID, machineID, dateKey)
	if !res.Success {
		s.notifier.Notify(notify.Error, "Error programando máquina")
		return nil, fmt.Errorf("schedule machine %d: %w", machineID, res.Err())
	}
	s.notifier.Notify(notify.Success, "Máquina programada para "+dateKey)
	s.bus.Publish(events.Event{Kind: events.DataChanged, User: u, Entity: events.EntitySchedule, MachineID: machineID})

	s.mu.Lock()
	s.month, _ = monthBounds(day)
	s.mu.Unlock()
	if err := s.Load(ctx); err != nil {
		s.log.Warn("reload after scheduling failed", zap.Error(err))
	}

	s.mu.Lock()
	s.selected = &day
	s.dayView = day
	s.mu.Unlock()
	return res.Data, nil
}

// Unschedule removes one entry. A date left without entries disappears
// from the index.
func (s *Scheduler) Unschedule(ctx context.Context, entryID string) error {
	u := s.identity.CurrentUser()
	if u == nil {
		return ErrNotAuthenticated
	}
	if entryID == "" {
		return fmt.Errorf("%w: entry id is required", models.ErrValidation)
	}

	res := s.gw.DeleteScheduledEntry(ctx, u.ID, entryID)
	if !res.Success {
		s.notifier.Notify(notify.Error, "No se pudo desprogramar")
		return fmt.Errorf("unschedule %s: %w", entryID, res.Err())
	}

	s.mu.Lock()
	s.removeLocked(entryID)
	s.mu.Unlock()

	s.notifier.Notify(notify.Success, "Sesión desprogramada")
	s.bus.Publish(events.Event{Kind: events.DataChanged, User: u, Entity: events.EntitySchedule})
	return nil
}

func (s *Scheduler) removeLocked(entryID string) {
	for key, list := range s.entries {
		i := slices.IndexFunc(list, func(e models.ScheduledEntry) bool { return e.ID == entryID })
		if i < 0 {
			continue
		}
		list = slices.Delete(list, i, i+1)
		if len(list) == 0 {
			delete(s.entries, key)
		} else {
			s.entries[key] = list
		}
	}
}

// Has reports whether dateKey has at least one entry.
func (s *Scheduler) Has(dateKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[dateKey]
	return ok
}

// Entries returns a copy of the entries on dateKey.
func (s *Scheduler) Entries(dateKey string) []models.ScheduledEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries[dateKey])
}

// DayView is the list of sessions of the day view date.
type DayView struct {
	Date    string                  `json:"date"`
	Entries []models.ScheduledEntry `json:"entries"`
}

// Day returns the day view.
func (s *Scheduler) Day() DayView {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := FormatDateKey(s.dayView)
	entries := slices.Clone(s.entries[key])
	if entries == nil {
		entries = []models.ScheduledEntry{}
	}
	return DayView{Date: key, Entries: entries}
}

// Session is one entry of the upcoming list.
type Session struct {
	Date  string                `json:"date"`
	Entry models.ScheduledEntry `json:"entry"`
}

// Upcoming returns up to limit sessions dated today or later, earliest
// first. A non-positive limit selects UpcomingLimit.
func (s *Scheduler) Upcoming(limit int) []Session {
	if limit <= 0 {
		limit = UpcomingLimit
	}
	today := FormatDateKey(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Session, 0)
	for _, key := range slices.Sorted(maps.Keys(s.entries)) {
		if key < today {
			continue
		}
		for _, e := range s.entries[key] {
			out = append(out, Session{Date: key, Entry: e})
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MonthStats summarises the visible month.
type MonthStats struct {
	Month     string `json:"month"`
	Scheduled int    `json:"scheduled"`
}

// Stats counts the entries dated inside the visible month.
func (s *Scheduler) Stats() MonthStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	first, last := monthBounds(s.month)
	start, end := FormatDateKey(first), FormatDateKey(last)
	stats := MonthStats{Month: start[:7]}
	for key, list := range s.entries {
		if key >= start && key <= end {
			stats.Scheduled += len(list)
		}
	}
	return stats
}

// snapshot returns every entry ordered by date key, keeping the load order
// within a day.
func (s *Scheduler) snapshot() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Session, 0)
	for _, key := range slices.Sorted(maps.Keys(s.entries)) {
		for _, e := range s.entries[key] {
			out = append(out, Session{Date: key, Entry: e})
		}
	}
	return out
}
