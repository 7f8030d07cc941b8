package gateway

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atinyakov/hacklearn/internal/fallback"
	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errDown = errors.New("connection refused")

func newTestGateway(t *testing.T, b Backend) (*Gateway, fallback.Store) {
	t.Helper()
	store, err := fallback.OpenFileStore(filepath.Join(t.TempDir(), "fallback.json"))
	require.NoError(t, err)

	clients := NewClientProvider(20 * time.Millisecond)
	clients.Set(b)
	cfg := DefaultBreakerConfig()
	cfg.ConsecutiveFailures = 1000
	return New(clients, store, cfg, zap.NewNop()), store
}

// offlineGateway has no backend at all, so every call takes the fallback path.
func offlineGateway(t *testing.T) (*Gateway, fallback.Store) {
	return newTestGateway(t, nil)
}

func TestClientProvider_WaitsThenGivesUp(t *testing.T) {
	p := NewClientProvider(30 * time.Millisecond)

	start := time.Now()
	assert.Nil(t, p.Client(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestClientProvider_ReleasedBySet(t *testing.T) {
	p := NewClientProvider(5 * time.Second)
	b := newFakeBackend()

	go func() {
		time.Sleep(10 * time.Millisecond)
		p.Set(b)
	}()

	start := time.Now()
	got := p.Client(context.Background())
	assert.Same(t, b, got.(*fakeBackend))
	assert.Less(t, time.Since(start), time.Second)

	// Set may be called again without panicking on the closed channel.
	p.Set(nil)
	assert.Nil(t, p.Client(context.Background()))
}

func TestClientProvider_ContextCancel(t *testing.T) {
	p := NewClientProvider(5 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, p.Client(ctx))
}

func TestGetMachines_BackendErrorServesDemo(t *testing.T) {
	b := newFakeBackend()
	b.err = errDown
	g, _ := newTestGateway(t, b)

	res := g.GetMachines(context.Background(), models.MachineFilter{OS: "Windows"}, 1, 12)
	require.True(t, res.Success)
	assert.Equal(t, SourceDemo, res.Source)
	assert.Equal(t, DemoMachines(), res.Data)
	assert.Equal(t, len(DemoMachines()), res.TotalCount)
}

func TestGetMachines_MissingTableServesDemo(t *testing.T) {
	b := newFakeBackend()
	b.err = &pq.Error{Code: "42P01"}
	g, _ := newTestGateway(t, b)

	res := g.GetMachines(context.Background(), models.MachineFilter{}, 1, 12)
	require.True(t, res.Success)
	assert.Equal(t, SourceDemo, res.Source)
}

func TestGetMachines_EmptyServesDemo(t *testing.T) {
	g, _ := newTestGateway(t, newFakeBackend())

	res := g.GetMachines(context.Background(), models.MachineFilter{}, 1, 12)
	require.True(t, res.Success)
	assert.Equal(t, SourceDemo, res.Source)
	assert.Len(t, res.Data, 2)
}

func TestGetMachines_Paginates(t *testing.T) {
	var catalog []models.Machine
	for i := int64(1); i <= 30; i++ {
		catalog = append(catalog, models.Machine{ID: i, Name: "m", Difficulty: models.DifficultyMedium})
	}
	g, _ := newTestGateway(t, newFakeBackend(catalog...))

	res := g.GetMachines(context.Background(), models.MachineFilter{}, 3, 0)
	require.True(t, res.Success)
	assert.Equal(t, SourceBackend, res.Source)
	assert.Equal(t, 30, res.TotalCount)
	require.Len(t, res.Data, 6)
	assert.Equal(t, int64(25), res.Data[0].ID)
}

func TestGetMachineByID(t *testing.T) {
	g, _ := newTestGateway(t, newFakeBackend(models.Machine{ID: 7, Name: "Seven"}))

	res := g.GetMachineByID(context.Background(), 7)
	require.True(t, res.Success)
	assert.Equal(t, "Seven", res.Data.Name)

	res = g.GetMachineByID(context.Background(), 8)
	assert.True(t, res.Success)
	assert.Nil(t, res.Data)
	assert.Equal(t, SourceBackend, res.Source)

	off, _ := offlineGateway(t)
	res = off.GetMachineByID(context.Background(), 2)
	require.True(t, res.Success)
	assert.Equal(t, "ICA_1", res.Data.Name)
	assert.Equal(t, SourceDemo, res.Source)
}

func TestGetMachineByName_DemoSubstring(t *testing.T) {
	g, _ := offlineGateway(t)

	res := g.GetMachineByName(context.Background(), "inject")
	require.True(t, res.Success)
	require.NotNil(t, res.Data)
	assert.Equal(t, int64(1), res.Data.ID)

	res = g.GetMachineByName(context.Background(), "nope")
	assert.True(t, res.Success)
	assert.Nil(t, res.Data)
}

func TestUpdateUserMachineStatus_SolvedIsTerminal(t *testing.T) {
	cases := map[string]func(t *testing.T) *Gateway{
		"backend": func(t *testing.T) *Gateway {
			g, _ := newTestGateway(t, newFakeBackend(DemoMachines()...))
			return g
		},
		"fallback": func(t *testing.T) *Gateway {
			g, _ := offlineGateway(t)
			return g
		},
	}
	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			g := build(t)
			ctx := context.Background()

			res := g.UpdateUserMachineStatus(ctx, "u1", 1, models.StatusWanted)
			require.True(t, res.Success, res.Error)
			res = g.UpdateUserMachineStatus(ctx, "u1", 1, models.StatusNone)
			require.True(t, res.Success, res.Error)
			res = g.UpdateUserMachineStatus(ctx, "u1", 1, models.StatusSolved)
			require.True(t, res.Success, res.Error)

			res = g.UpdateUserMachineStatus(ctx, "u1", 1, models.StatusWanted)
			assert.False(t, res.Success)
			assert.Equal(t, models.ErrSolvedIsTerminal.Error(), res.Error)

			cur := g.GetUserMachineStatus(ctx, "u1", 1)
			require.True(t, cur.Success)
			assert.Equal(t, models.StatusSolved, cur.Data.Status)

			stats := g.GetUserStats(ctx, "u1")
			require.True(t, stats.Success)
			assert.Equal(t, models.UserStats{Solved: 1, Wanted: 0, Total: 1}, stats.Data)
		})
	}
}

func TestUpdateUserMachineStatus_TerminalDoesNotFallBack(t *testing.T) {
	g, store := newTestGateway(t, newFakeBackend())
	ctx := context.Background()

	require.True(t, g.UpdateUserMachineStatus(ctx, "u1", 1, models.StatusSolved).Success)
	res := g.UpdateUserMachineStatus(ctx, "u1", 1, models.StatusNone)
	assert.False(t, res.Success)
	assert.Equal(t, SourceBackend, res.Source)

	keys, err := store.Keys("user_machines:")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestUpdateUserMachineStatus_FailedSolveIsNotKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.json")
	store, err := fallback.OpenFileStore(path)
	require.NoError(t, err)
	clients := NewClientProvider(10 * time.Millisecond)
	clients.Set(nil)
	g := New(clients, store, DefaultBreakerConfig(), zap.NewNop())
	ctx := context.Background()

	require.True(t, g.UpdateUserMachineStatus(ctx, "u1", 1, models.StatusWanted).Success)

	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocker"), 0o700))

	res := g.UpdateUserMachineStatus(ctx, "u1", 1, models.StatusSolved)
	assert.False(t, res.Success)

	cur := g.GetUserMachineStatus(ctx, "u1", 1)
	require.True(t, cur.Success)
	require.NotNil(t, cur.Data)
	assert.Equal(t, models.StatusWanted, cur.Data.Status)

	require.NoError(t, os.RemoveAll(path))
	res = g.UpdateUserMachineStatus(ctx, "u1", 1, models.StatusNone)
	assert.True(t, res.Success, res.Error)
}

func TestGetUserMachineStatus_NotFlagged(t *testing.T) {
	g, _ := newTestGateway(t, newFakeBackend())
	res := g.GetUserMachineStatus(context.Background(), "u1", 1)
	assert.True(t, res.Success)
	assert.Nil(t, res.Data)
}

func TestNotes_FallbackPath(t *testing.T) {
	g, _ := offlineGateway(t)
	ctx := context.Background()

	first := g.AddNote(ctx, "u1", 1, models.Note{Name: "recon", Content: "nmap -sV", Timestamp: "02:10"})
	require.True(t, first.Success)
	assert.Equal(t, SourceFallback, first.Source)
	assert.NotEmpty(t, first.Data.ID)
	second := g.AddNote(ctx, "u1", 1, models.Note{Name: "shell", Content: "sqlmap", Timestamp: "05:00"})
	require.True(t, second.Success)

	list := g.GetMachineNotes(ctx, "u1", 1)
	require.True(t, list.Success)
	assert.Len(t, list.Data, 2)

	require.True(t, g.DeleteNote(ctx, "u1", first.Data.ID).Success)
	list = g.GetMachineNotes(ctx, "u1", 1)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "shell", list.Data[0].Name)

	// Other users' notes are untouched.
	assert.True(t, g.DeleteNote(ctx, "u2", second.Data.ID).Success)
	assert.Len(t, g.GetMachineNotes(ctx, "u1", 1).Data, 1)
}

func TestScheduleMachine_RejectsBadDateBeforeIO(t *testing.T) {
	b := newFakeBackend()
	g, _ := newTestGateway(t, b)

	res := g.ScheduleMachine(context.Background(), "u1", 1, "2025-3-1")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, models.ErrInvalidDateKey.Error())
	assert.Zero(t, b.calls)
}

func TestCalendar_FallbackPath(t *testing.T) {
	g, _ := offlineGateway(t)
	ctx := context.Background()

	a := g.ScheduleMachine(ctx, "u1", 1, "2025-03-01")
	require.True(t, a.Success)
	require.NotNil(t, a.Data.Machine)
	assert.Equal(t, "Injection", a.Data.Machine.Name)
	require.True(t, g.ScheduleMachine(ctx, "u1", 2, "2025-03-02").Success)
	require.True(t, g.ScheduleMachine(ctx, "u1", 2, "2025-04-02").Success)

	res := g.GetScheduledMachines(ctx, "u1", "2025-03-01", "2025-03-31")
	require.True(t, res.Success)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "ICA_1", res.Data[1].Machine.Name)

	require.True(t, g.DeleteScheduledEntry(ctx, "u1", a.Data.ID).Success)
	res = g.GetScheduledMachines(ctx, "u1", "2025-03-01", "2025-03-31")
	require.Len(t, res.Data, 1)
}

func TestCalendar_BackendPath(t *testing.T) {
	g, _ := newTestGateway(t, newFakeBackend())
	ctx := context.Background()

	res := g.ScheduleMachine(ctx, "u1", 1, "2025-03-01")
	require.True(t, res.Success)
	assert.Equal(t, SourceBackend, res.Source)

	list := g.GetScheduledMachines(ctx, "u1", "2025-03-01", "2025-03-01")
	require.Len(t, list.Data, 1)
	assert.Equal(t, SourceBackend, list.Source)
}

func TestSplitBrainIsVisibleInSource(t *testing.T) {
	b := newFakeBackend()
	g, _ := newTestGateway(t, b)
	ctx := context.Background()

	b.err = errDown
	require.Equal(t, SourceFallback, g.ScheduleMachine(ctx, "u1", 1, "2025-03-01").Source)

	b.err = nil
	res := g.GetScheduledMachines(ctx, "u1", "2025-03-01", "2025-03-31")
	assert.Equal(t, SourceBackend, res.Source)
	assert.Empty(t, res.Data)
}

func TestStatsByDifficultyAndCertification_Fallback(t *testing.T) {
	g, _ := offlineGateway(t)
	ctx := context.Background()

	require.True(t, g.UpdateUserMachineStatus(ctx, "u1", 1, models.StatusSolved).Success)
	require.True(t, g.UpdateUserMachineStatus(ctx, "u1", 2, models.StatusWanted).Success)

	diff := g.GetSolvedByDifficulty(ctx, "u1")
	require.True(t, diff.Success)
	assert.Equal(t, models.DifficultyStats{Facil: 1}, diff.Data)

	solved := g.GetUserSolvedMachines(ctx, "u1")
	require.Len(t, solved.Data, 1)
	assert.Equal(t, "Injection", solved.Data[0].Name)

	certs := g.GetCertificationProgress(ctx, "u1")
	require.True(t, certs.Success)
	assert.Equal(t, []models.CertificationProgress{{Name: "OSCP", Total: 2, Solved: 1, Pct: 50}}, certs.Data)
}

func TestCertificationProgress_Rounds(t *testing.T) {
	all := []models.Machine{
		{ID: 1, Certifications: []string{"eJPT", "OSCP"}},
		{ID: 2, Certifications: []string{"OSCP"}},
		{ID: 3, Certifications: []string{"OSCP"}},
	}
	got := certificationProgress(all, map[int64]bool{1: true, 2: true})
	assert.Equal(t, []models.CertificationProgress{
		{Name: "eJPT", Total: 1, Solved: 1, Pct: 100},
		{Name: "OSCP", Total: 3, Solved: 2, Pct: 67},
	}, got)
}

func TestRoadmapProgress(t *testing.T) {
	for name, b := range map[string]Backend{"backend": newFakeBackend(), "fallback": nil} {
		t.Run(name, func(t *testing.T) {
			g, _ := newTestGateway(t, b)
			ctx := context.Background()

			require.True(t, g.SetRoadmapProgress(ctx, "u1", 1, 1, true).Success)
			require.True(t, g.SetRoadmapProgress(ctx, "u1", 1, 2, false).Success)
			res := g.GetRoadmapProgress(ctx, "u1", 1)
			require.True(t, res.Success)
			assert.Equal(t, map[int64]bool{1: true, 2: false}, res.Data)
		})
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := newFakeBackend()
	b.err = errDown
	store, err := fallback.OpenFileStore(filepath.Join(t.TempDir(), "fallback.json"))
	require.NoError(t, err)
	clients := NewClientProvider(time.Millisecond)
	clients.Set(b)
	cfg := DefaultBreakerConfig()
	cfg.ConsecutiveFailures = 2
	g := New(clients, store, cfg, zap.NewNop())

	for range 5 {
		res := g.GetUserStats(context.Background(), "u1")
		assert.True(t, res.Success)
		assert.Equal(t, SourceFallback, res.Source)
	}
	assert.Equal(t, 2, b.calls)
	assert.Equal(t, "open", g.BreakerState())
	assert.Equal(t, Health{Backend: true, Breaker: "open"}, g.Health())
}

func TestHealth_Offline(t *testing.T) {
	g, _ := offlineGateway(t)
	assert.Equal(t, Health{Backend: false, Breaker: "closed"}, g.Health())
}

func TestBreakerIgnoresDomainErrors(t *testing.T) {
	store, err := fallback.OpenFileStore(filepath.Join(t.TempDir(), "fallback.json"))
	require.NoError(t, err)
	clients := NewClientProvider(time.Millisecond)
	clients.Set(newFakeBackend())
	cfg := DefaultBreakerConfig()
	cfg.ConsecutiveFailures = 1
	g := New(clients, store, cfg, zap.NewNop())

	for range 3 {
		assert.True(t, g.GetMachineByID(context.Background(), 99).Success)
	}
	assert.Equal(t, "closed", g.BreakerState())
}
