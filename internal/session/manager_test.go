package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/atinyakov/hacklearn/internal/events"
	"github.com/atinyakov/hacklearn/internal/fallback"
	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/atinyakov/hacklearn/internal/notify"
	"github.com/atinyakov/hacklearn/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuth struct {
	users map[string]string
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*models.Identity, error) {
	if f.users[email] != password {
		return nil, service.ErrInvalidCredentials
	}
	return &models.Identity{ID: "id-" + email, Email: email}, nil
}

func (f *fakeAuth) Register(_ context.Context, email, password string) (*models.Identity, error) {
	f.users[email] = password
	return &models.Identity{ID: "id-" + email, Email: email}, nil
}

func newManager(t *testing.T, store fallback.Store) (*Manager, *[]events.Event) {
	m, seen, _ := newNotifyingManager(t, store)
	return m, seen
}

func newNotifyingManager(t *testing.T, store fallback.Store) (*Manager, *[]events.Event, *notify.Center) {
	t.Helper()
	bus := events.NewBus(zap.NewNop())
	var seen []events.Event
	record := func(e events.Event) { seen = append(seen, e) }
	bus.Subscribe(events.AuthReady, record)
	bus.Subscribe(events.AuthChanged, record)
	center := notify.NewCenter(notify.DefaultTTL, zap.NewNop())
	m := NewManager(&fakeAuth{users: map[string]string{"a@example.com": "secret1"}}, store, center, bus, zap.NewNop())
	return m, &seen, center
}

func messages(c *notify.Center) []string {
	var out []string
	for _, n := range c.Active() {
		out = append(out, string(n.Level)+": "+n.Message)
	}
	return out
}

func openStore(t *testing.T) fallback.Store {
	store, err := fallback.OpenFileStore(filepath.Join(t.TempDir(), "fallback.json"))
	require.NoError(t, err)
	return store
}

func TestRestore_NoSession(t *testing.T) {
	m, seen := newManager(t, openStore(t))

	select {
	case <-m.Ready():
		t.Fatal("ready before restore")
	default:
	}

	m.Restore()
	<-m.Ready()
	assert.False(t, m.IsAuthenticated())
	require.Len(t, *seen, 1)
	assert.Equal(t, events.AuthReady, (*seen)[0].Kind)
	assert.Nil(t, (*seen)[0].User)
}

func TestSignIn_PersistsAndRestores(t *testing.T) {
	store := openStore(t)
	m, seen := newManager(t, store)
	m.Restore()

	_, err := m.SignIn(context.Background(), "a@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.False(t, m.IsAuthenticated())

	id, err := m.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", m.CurrentUser().Email)
	require.Len(t, *seen, 2)
	assert.Equal(t, events.AuthChanged, (*seen)[1].Kind)
	assert.Equal(t, id.ID, (*seen)[1].User.ID)

	// A fresh manager over the same store picks the session up.
	next, nextSeen := newManager(t, store)
	next.Restore()
	require.True(t, next.IsAuthenticated())
	assert.Equal(t, id.ID, next.CurrentUser().ID)
	assert.Equal(t, id.ID, (*nextSeen)[0].User.ID)
}

func TestSignOut(t *testing.T) {
	store := openStore(t)
	m, seen := newManager(t, store)
	m.Restore()
	_, err := m.Register(context.Background(), "b@example.com", "secret2")
	require.NoError(t, err)

	m.SignOut()
	assert.False(t, m.IsAuthenticated())
	last := (*seen)[len(*seen)-1]
	assert.Equal(t, events.AuthChanged, last.Kind)
	assert.Nil(t, last.User)

	var id models.Identity
	found, err := store.Get(fallback.SessionKey, &id)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCurrentUser_ReturnsCopy(t *testing.T) {
	m, _ := newManager(t, openStore(t))
	_, err := m.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	u := m.CurrentUser()
	u.Email = "mutated@example.com"
	assert.Equal(t, "a@example.com", m.CurrentUser().Email)
}

func TestSignInBeforeRestore_SignalsReady(t *testing.T) {
	m, seen := newManager(t, openStore(t))
	_, err := m.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	<-m.Ready()
	require.Len(t, *seen, 2)
	assert.Equal(t, events.AuthReady, (*seen)[0].Kind)

	m.Restore()
	assert.Len(t, *seen, 2)
}

func TestSession_Notifications(t *testing.T) {
	m, _, center := newNotifyingManager(t, openStore(t))
	m.Restore()
	ctx := context.Background()

	_, err := m.SignIn(ctx, "a@example.com", "wrong")
	require.Error(t, err)
	_, err = m.SignIn(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	m.SignOut()
	_, err = m.Register(ctx, "c@example.com", "secret3")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"error: Error: " + service.ErrInvalidCredentials.Error(),
		"success: Login exitoso!",
		"success: Sesión cerrada correctamente",
		"success: Registro exitoso!",
	}, messages(center))
}

func TestSignOut_PersistFailureNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.json")
	store, err := fallback.OpenFileStore(path)
	require.NoError(t, err)
	m, _, center := newNotifyingManager(t, store)
	m.Restore()
	_, err = m.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocker"), 0o700))

	m.SignOut()
	assert.False(t, m.IsAuthenticated())
	active := center.Active()
	require.NotEmpty(t, active)
	last := active[len(active)-1]
	assert.Equal(t, notify.Error, last.Level)
	assert.Equal(t, "Error cerrando sesión", last.Message)
}
