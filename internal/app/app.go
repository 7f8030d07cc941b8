// Package app wires the persistence gateway, the session and every
// feature component together and exposes the HTTP handler serving them.
package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/atinyakov/hacklearn/internal/calendar"
	"github.com/atinyakov/hacklearn/internal/config"
	"github.com/atinyakov/hacklearn/internal/db"
	"github.com/atinyakov/hacklearn/internal/events"
	"github.com/atinyakov/hacklearn/internal/fallback"
	"github.com/atinyakov/hacklearn/internal/gateway"
	"github.com/atinyakov/hacklearn/internal/notify"
	"github.com/atinyakov/hacklearn/internal/progress"
	"github.com/atinyakov/hacklearn/internal/repository"
	handler "github.com/atinyakov/hacklearn/internal/server/handler/http"
	"github.com/atinyakov/hacklearn/internal/service"
	"github.com/atinyakov/hacklearn/internal/session"
	"go.uber.org/zap"
)

// connectTimeout bounds the background backend connection attempt.
const connectTimeout = 30 * time.Second

// reloadTimeout bounds calendar reloads triggered by session changes.
const reloadTimeout = 5 * time.Second

// App holds the running components.
type App struct {
	Router   http.Handler
	Sessions *session.Manager
	Gateway  *gateway.Gateway
	Calendar *calendar.Scheduler
	Progress *progress.Engine

	log      *zap.Logger
	store    fallback.Store
	clients  *gateway.ClientProvider
	accounts *accounts
	cancel   context.CancelFunc

	mu sync.Mutex
	db *sql.DB
	wg sync.WaitGroup
}

// New builds the application described by opts. The backend connection is
// established in the background; until it is ready every operation is
// served from the fallback store.
func New(ctx context.Context, opts *config.Options, log *zap.Logger) (*App, error) {
	store, err := fallback.Open(opts.Fallback.Driver, opts.Fallback.Path)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	a := &App{
		log:      log,
		store:    store,
		clients:  gateway.NewClientProvider(opts.ClientWait),
		accounts: &accounts{local: fallback.NewUserRepository(store)},
		cancel:   cancel,
	}

	fallback.StartPruner(runCtx, store, opts.Fallback.PruneInterval, log.Named("fallback"))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.connect(runCtx, opts.DatabaseDSN)
	}()

	a.Gateway = gateway.New(a.clients, store, gateway.BreakerConfig{
		MaxRequests:         opts.Breaker.MaxRequests,
		Interval:            opts.Breaker.Interval,
		Timeout:             opts.Breaker.Timeout,
		ConsecutiveFailures: opts.Breaker.ConsecutiveFailures,
	}, log.Named("gateway"))

	bus := events.NewBus(log.Named("events"))
	center := notify.NewCenter(notify.DefaultTTL, log.Named("notify"))

	a.Sessions = session.NewManager(service.NewAuthService(a.accounts), store, center, bus, log.Named("session"))
	catalog := service.NewCatalog(a.Gateway, a.Sessions, center, bus)

	a.Calendar = calendar.NewScheduler(a.Gateway, a.Sessions, center, bus, log.Named("calendar"))
	attachCalendar(bus, a.Calendar, log)

	a.Progress = progress.NewEngine(a.Gateway, a.Sessions, center, bus, log.Named("progress"))
	a.Progress.Attach(bus)
	tracker := progress.NewTracker(a.Gateway, a.Sessions, center, bus, log.Named("roadmap"))

	a.Sessions.Restore()

	a.Router = handler.NewRouter(handler.Handlers{
		Auth:          &handler.AuthHandler{Sessions: a.Sessions},
		Catalog:       &handler.CatalogHandler{Catalog: catalog},
		Calendar:      &handler.CalendarHandler{Calendar: a.Calendar},
		Progress:      &handler.ProgressHandler{Trophies: a.Progress, Roadmaps: tracker},
		Notifications: &handler.NotificationHandler{Notifications: center},
		Health:        &handler.HealthHandler{Gateway: a.Gateway},
	}, opts.AllowedOrigins, log.Named("http"))

	return a, nil
}

// connect opens the backend and publishes it to the gateway. Any failure
// publishes nil so waiting operations fall back immediately.
func (a *App) connect(ctx context.Context, dsn string) {
	if dsn == "" {
		a.log.Info("no database configured, using the fallback store")
		a.clients.Set(nil)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	conn, err := db.InitPostgres(ctx, dsn)
	if err != nil {
		a.log.Error("cannot init database, using the fallback store", zap.Error(err))
		a.clients.Set(nil)
		return
	}

	a.mu.Lock()
	a.db = conn
	a.mu.Unlock()

	a.accounts.remote.Store(repository.NewPostgresAuthRepository(conn))
	a.clients.Set(repository.NewPostgresRepository(conn))
	a.log.Info("database connected")
}

// attachCalendar reloads the calendar for every new identity and clears
// it on sign-out.
func attachCalendar(bus *events.Bus, s *calendar.Scheduler, log *zap.Logger) {
	reload := func(e events.Event) {
		if e.User == nil {
			s.Reset()
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		if err := s.Load(ctx); err != nil {
			log.Error("failed to load calendar", zap.Error(err))
		}
	}
	bus.Subscribe(events.AuthReady, reload)
	bus.Subscribe(events.AuthChanged, reload)
}

// Close stops the background work and releases the stores.
func (a *App) Close() error {
	a.cancel()
	a.wg.Wait()

	var errs []error
	a.mu.Lock()
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	a.mu.Unlock()
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}
