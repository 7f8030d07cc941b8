// Package session owns the identity of the signed-in user. It is the only
// writer of that state and announces every transition on the event bus.
package session

import (
	"context"
	"sync"

	"github.com/atinyakov/hacklearn/internal/events"
	"github.com/atinyakov/hacklearn/internal/fallback"
	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/atinyakov/hacklearn/internal/notify"
	"go.uber.org/zap"
)

// Authenticator checks credentials and creates accounts.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.Identity, error)
	Register(ctx context.Context, email, password string) (*models.Identity, error)
}

// Manager tracks the current identity.
type Manager struct {
	auth     Authenticator
	store    fallback.Store
	notifier notify.Notifier
	bus      *events.Bus
	log      *zap.Logger

	mu      sync.RWMutex
	current *models.Identity

	ready     chan struct{}
	readyOnce sync.Once
}

// NewManager returns a Manager with no identity. Call Restore to load the
// identity of the previous run.
func NewManager(auth Authenticator, store fallback.Store, notifier notify.Notifier, bus *events.Bus, log *zap.Logger) *Manager {
	return &Manager{
		auth:     auth,
		store:    store,
		notifier: notifier,
		bus:      bus,
		log:      log,
		ready:    make(chan struct{}),
	}
}

// Restore loads the identity persisted by the last sign-in and then
// signals readiness. A read failure is logged and leaves the manager
// signed out.
func (m *Manager) Restore() {
	var id models.Identity
	found, err := m.store.Get(fallback.SessionKey, &id)
	switch {
	case err != nil:
		m.log.Error("failed to restore session", zap.Error(err))
	case found && id.ID != "":
		m.set(&id)
		m.log.Info("session restored", zap.String("email", id.Email))
	}
	m.markReady()
}

func (m *Manager) markReady() {
	m.readyOnce.Do(func() {
		close(m.ready)
		m.bus.Publish(events.Event{Kind: events.AuthReady, User: m.CurrentUser()})
	})
}

// Ready is closed once the initial identity has been resolved.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// CurrentUser returns a copy of the current identity, or nil.
func (m *Manager) CurrentUser() *models.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	cp := *m.current
	return &cp
}

// IsAuthenticated reports whether a user is signed in.
func (m *Manager) IsAuthenticated() bool {
	return m.CurrentUser() != nil
}

func (m *Manager) set(id *models.Identity) {
	m.mu.Lock()
	m.current = id
	m.mu.Unlock()
}

// SignIn verifies the credentials and makes the user current.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	id, err := m.auth.Login(ctx, email, password)
	if err != nil {
		m.notifier.Notify(notify.Error, "Error: "+err.Error())
		return nil, err
	}
	_ = m.switchTo(id)
	m.notifier.Notify(notify.Success, "Login exitoso!")
	return id, nil
}

// Register creates an account and signs it in.
func (m *Manager) Register(ctx context.Context, email, password string) (*models.Identity, error) {
	id, err := m.auth.Register(ctx, email, password)
	if err != nil {
		m.notifier.Notify(notify.Error, "Error: "+err.Error())
		return nil, err
	}
	_ = m.switchTo(id)
	m.notifier.Notify(notify.Success, "Registro exitoso!")
	return id, nil
}

// SignOut clears the current identity. The user is signed out even when
// the persisted session cannot be removed; that case raises an error
// notification.
func (m *Manager) SignOut() {
	if err := m.switchTo(nil); err != nil {
		m.notifier.Notify(notify.Error, "Error cerrando sesión")
		return
	}
	m.notifier.Notify(notify.Success, "Sesión cerrada correctamente")
}

func (m *Manager) switchTo(id *models.Identity) error {
	m.set(id)

	var err error
	if id == nil {
		err = m.store.Delete(fallback.SessionKey)
	} else {
		err = m.store.Put(fallback.SessionKey, id)
	}
	if err != nil {
		m.log.Warn("failed to persist session", zap.Error(err))
	}

	m.markReady()
	m.bus.Publish(events.Event{Kind: events.AuthChanged, User: m.CurrentUser()})
	return err
}
