package progress

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/atinyakov/hacklearn/internal/events"
	"github.com/atinyakov/hacklearn/internal/gateway"
	"github.com/atinyakov/hacklearn/internal/metrics"
	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/atinyakov/hacklearn/internal/notify"
	"go.uber.org/zap"
)

// refreshTimeout bounds reloads triggered by bus events.
const refreshTimeout = 5 * time.Second

// StatsGateway is the persistence used by the engine.
type StatsGateway interface {
	GetUserStats(ctx context.Context, userID string) gateway.Result[models.UserStats]
}

// IdentityProvider exposes the signed-in user.
type IdentityProvider interface {
	CurrentUser() *models.Identity
}

// Summary is the achievement state of the current user.
type Summary struct {
	Stats         models.UserStats `json:"stats"`
	Level         string           `json:"level"`
	LevelProgress float64          `json:"levelProgress"`
	Unlocked      int              `json:"unlocked"`
	Trophies      []TrophyStatus   `json:"trophies"`
}

// Engine recomputes the unlocked trophies from the solved count on every
// stats reload and reports the ones crossed since the previous reload.
type Engine struct {
	gw       StatsGateway
	identity IdentityProvider
	notifier notify.Notifier
	bus      *events.Bus
	log      *zap.Logger
	trophies []models.Trophy

	mu       sync.Mutex
	stats    models.UserStats
	unlocked map[string]bool
	// loaded is false until a load for the current user has succeeded.
	loaded bool
}

// NewEngine returns an Engine over the default trophy catalog.
func NewEngine(gw StatsGateway, identity IdentityProvider, notifier notify.Notifier, bus *events.Bus, log *zap.Logger) *Engine {
	return &Engine{
		gw:       gw,
		identity: identity,
		notifier: notifier,
		bus:      bus,
		log:      log,
		trophies: DefaultTrophies(),
		unlocked: make(map[string]bool),
	}
}

// Attach subscribes the engine to session and data changes.
func (e *Engine) Attach(bus *events.Bus) {
	reload := func(ev events.Event) {
		if ev.User == nil {
			e.Reset()
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := e.Load(ctx); err != nil {
			e.log.Error("failed to load user progress", zap.Error(err))
		}
	}
	bus.Subscribe(events.AuthReady, reload)
	bus.Subscribe(events.AuthChanged, reload)
	bus.Subscribe(events.DataChanged, func(ev events.Event) {
		if ev.Entity != events.EntityStatus || ev.Status != models.StatusSolved {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if _, err := e.CheckForNewTrophies(ctx); err != nil {
			e.log.Error("failed to check trophies", zap.Error(err))
		}
	})
}

// Reset forgets the loaded stats.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats = models.UserStats{}
	e.unlocked = make(map[string]bool)
	e.loaded = false
}

func (e *Engine) fetch(ctx context.Context) (models.UserStats, error) {
	u := e.identity.CurrentUser()
	if u == nil {
		return models.UserStats{}, nil
	}
	res := e.gw.GetUserStats(ctx, u.ID)
	if !res.Success {
		return models.UserStats{}, fmt.Errorf("load user stats: %w", res.Err())
	}
	return res.Data, nil
}

// Load reloads the stats and recomputes the unlocked set without raising
// notifications. Signed-out users get zero stats.
func (e *Engine) Load(ctx context.Context) error {
	stats, err := e.fetch(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats = stats
	e.unlocked = Unlocked(e.trophies, stats.Solved)
	e.loaded = true
	return nil
}

// CheckForNewTrophies reloads the stats and returns the trophies unlocked
// since the previous load. Each one is notified and published once. Without
// a previous successful load there is nothing to compare against, so the
// reload only sets the baseline.
func (e *Engine) CheckForNewTrophies(ctx context.Context) ([]models.Trophy, error) {
	stats, err := e.fetch(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	current := Unlocked(e.trophies, stats.Solved)
	var fresh []models.Trophy
	if e.loaded {
		fresh = NewlyUnlocked(e.trophies, e.unlocked, current)
	} else {
		e.log.Debug("trophy baseline set without a prior load", zap.Int("solved", stats.Solved))
	}
	e.stats = stats
	e.unlocked = current
	e.loaded = true
	e.mu.Unlock()

	user := e.identity.CurrentUser()
	for _, t := range fresh {
		e.log.Info("trophy unlocked", zap.String("trophy", t.ID), zap.Int("solved", stats.Solved))
		metrics.TrophiesUnlocked.WithLabelValues(t.ID).Inc()
		e.notifier.Notify(notify.Success, fmt.Sprintf("¡Trofeo Desbloqueado! %s %s", t.Icon, t.Name))
		e.bus.Publish(events.Event{Kind: events.TrophyUnlocked, User: user, Trophy: &t})
	}
	return fresh, nil
}

// Summary returns the level and trophy state of the last load.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	stats := e.stats
	unlocked := maps.Clone(e.unlocked)
	e.mu.Unlock()

	s := Summary{
		Stats:         stats,
		Level:         LevelFor(stats.Solved).Name,
		LevelProgress: LevelProgress(stats.Solved),
		Trophies:      make([]TrophyStatus, 0, len(e.trophies)),
	}
	for _, t := range e.trophies {
		st := TrophyStatus{
			Trophy:     t,
			RarityName: t.Rarity.DisplayName(),
			Unlocked:   unlocked[t.ID],
			Progress:   ProgressTowards(t, stats.Solved),
		}
		if st.Unlocked {
			s.Unlocked++
		}
		s.Trophies = append(s.Trophies, st)
	}
	return s
}
