package gateway

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/atinyakov/hacklearn/internal/fallback"
	"github.com/atinyakov/hacklearn/internal/models"
)

// GetUserMachineStatus returns the status row of userID for machineID, or
// nil data when the user never flagged the machine.
func (g *Gateway) GetUserMachineStatus(ctx context.Context, userID string, machineID int64) (res Result[*models.UserMachineStatus]) {
	start := time.Now()
	defer func() { observe("getUserMachineStatus", start, res.Source, res.Success) }()

	s, err := call(ctx, g, func(b Backend) (*models.UserMachineStatus, error) {
		return b.GetUserMachineStatus(ctx, userID, machineID)
	})
	switch {
	case err == nil:
		return ok(s, SourceBackend)
	case errors.Is(err, models.ErrNotFound):
		return ok[*models.UserMachineStatus](nil, SourceBackend)
	}

	g.fallingBack("getUserMachineStatus", err)
	statuses, err := g.fallbackStatuses(userID)
	if err != nil {
		return fail[*models.UserMachineStatus](err, SourceFallback)
	}
	st, found := statuses[machineID]
	if !found {
		return ok[*models.UserMachineStatus](nil, SourceFallback)
	}
	return ok(&models.UserMachineStatus{UserID: userID, MachineID: machineID, Status: st}, SourceFallback)
}

// UpdateUserMachineStatus creates or updates the status of machineID for
// userID. Leaving the solved state is rejected on every path.
func (g *Gateway) UpdateUserMachineStatus(ctx context.Context, userID string, machineID int64, status models.Status) (res Result[*models.UserMachineStatus]) {
	start := time.Now()
	defer func() { observe("updateUserMachineStatus", start, res.Source, res.Success) }()

	s, err := call(ctx, g, func(b Backend) (*models.UserMachineStatus, error) {
		existing, err := b.GetUserMachineStatus(ctx, userID, machineID)
		if errors.Is(err, models.ErrNotFound) {
			return b.InsertUserMachineStatus(ctx, models.UserMachineStatus{
				UserID: userID, MachineID: machineID, Status: status,
			})
		}
		if err != nil {
			return nil, err
		}
		if !existing.Status.CanTransitionTo(status) {
			return nil, models.ErrSolvedIsTerminal
		}
		if err := b.UpdateUserMachineStatus(ctx, existing.ID, status); err != nil {
			return nil, err
		}
		existing.Status = status
		return existing, nil
	})
	switch {
	case err == nil:
		return ok(s, SourceBackend)
	case isDomainErr(err):
		return fail[*models.UserMachineStatus](err, SourceBackend)
	}

	g.fallingBack("updateUserMachineStatus", err)
	key := fallback.UserMachinesKey(userID)
	raw := make(map[string]string)
	if _, err := g.store.Get(key, &raw); err != nil {
		return fail[*models.UserMachineStatus](err, SourceFallback)
	}
	mid := strconv.FormatInt(machineID, 10)
	current, _ := models.ParseStatus(raw[mid])
	if !current.CanTransitionTo(status) {
		return fail[*models.UserMachineStatus](models.ErrSolvedIsTerminal, SourceFallback)
	}
	raw[mid] = status.String()
	if err := g.store.Put(key, raw); err != nil {
		return fail[*models.UserMachineStatus](err, SourceFallback)
	}
	return ok(&models.UserMachineStatus{UserID: userID, MachineID: machineID, Status: status}, SourceFallback)
}

// fallbackStatuses decodes the local status map of userID. Unreadable
// entries are skipped.
func (g *Gateway) fallbackStatuses(userID string) (map[int64]models.Status, error) {
	raw := make(map[string]string)
	if _, err := g.store.Get(fallback.UserMachinesKey(userID), &raw); err != nil {
		return nil, err
	}
	statuses := make(map[int64]models.Status, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		st, err := models.ParseStatus(v)
		if err != nil {
			continue
		}
		statuses[id] = st
	}
	return statuses, nil
}

func (g *Gateway) fallbackSolvedIDs(userID string) (map[int64]bool, error) {
	statuses, err := g.fallbackStatuses(userID)
	if err != nil {
		return nil, err
	}
	solved := make(map[int64]bool)
	for id, st := range statuses {
		if st == models.StatusSolved {
			solved[id] = true
		}
	}
	return solved, nil
}

// GetUserStats counts the wanted and solved machines of userID.
func (g *Gateway) GetUserStats(ctx context.Context, userID string) (res Result[models.UserStats]) {
	start := time.Now()
	defer func() { observe("getUserStats", start, res.Source, res.Success) }()

	stats, err := call(ctx, g, func(b Backend) (models.UserStats, error) {
		solved, err := b.ListMachineIDsByStatus(ctx, userID, models.StatusSolved)
		if err != nil {
			return models.UserStats{}, err
		}
		wanted, err := b.ListMachineIDsByStatus(ctx, userID, models.StatusWanted)
		if err != nil {
			return models.UserStats{}, err
		}
		return models.UserStats{Solved: len(solved), Wanted: len(wanted), Total: len(solved) + len(wanted)}, nil
	})
	if err == nil {
		return ok(stats, SourceBackend)
	}

	g.fallingBack("getUserStats", err)
	statuses, err := g.fallbackStatuses(userID)
	if err != nil {
		return fail[models.UserStats](err, SourceFallback)
	}
	for _, st := range statuses {
		switch st {
		case models.StatusSolved:
			stats.Solved++
		case models.StatusWanted:
			stats.Wanted++
		case models.StatusNone:
		}
	}
	stats.Total = stats.Solved + stats.Wanted
	return ok(stats, SourceFallback)
}

// GetUserSolvedMachines returns the catalog records userID has solved.
// The fallback path can only resolve machines of the demo catalog.
func (g *Gateway) GetUserSolvedMachines(ctx context.Context, userID string) (res Result[[]models.Machine]) {
	start := time.Now()
	defer func() { observe("getUserSolvedMachines", start, res.Source, res.Success) }()

	machines, err := call(ctx, g, func(b Backend) ([]models.Machine, error) {
		ids, err := b.ListMachineIDsByStatus(ctx, userID, models.StatusSolved)
		if err != nil || len(ids) == 0 {
			return []models.Machine{}, err
		}
		return b.GetMachinesByIDs(ctx, ids)
	})
	if err == nil {
		return ok(machines, SourceBackend)
	}

	g.fallingBack("getUserSolvedMachines", err)
	solved, err := g.fallbackSolvedIDs(userID)
	if err != nil {
		return fail[[]models.Machine](err, SourceFallback)
	}
	list := make([]models.Machine, 0)
	for _, m := range DemoMachines() {
		if solved[m.ID] {
			list = append(list, m)
		}
	}
	return ok(list, SourceFallback)
}

// GetSolvedByDifficulty buckets the solved machines of userID by difficulty.
func (g *Gateway) GetSolvedByDifficulty(ctx context.Context, userID string) (res Result[models.DifficultyStats]) {
	start := time.Now()
	defer func() { observe("getSolvedByDifficulty", start, res.Source, res.Success) }()

	solved := g.GetUserSolvedMachines(ctx, userID)
	if !solved.Success {
		return fail[models.DifficultyStats](solved.Err(), solved.Source)
	}
	var stats models.DifficultyStats
	for _, m := range solved.Data {
		stats.Count(m.Difficulty)
	}
	return ok(stats, solved.Source)
}

// GetCertificationProgress reports, for every certification tag in the
// catalog, how many tagged machines userID has solved.
func (g *Gateway) GetCertificationProgress(ctx context.Context, userID string) (res Result[[]models.CertificationProgress]) {
	start := time.Now()
	defer func() { observe("getCertificationProgress", start, res.Source, res.Success) }()

	type snapshot struct {
		all    []models.Machine
		solved map[int64]bool
	}
	snap, err := call(ctx, g, func(b Backend) (snapshot, error) {
		all, err := b.AllMachines(ctx)
		if err != nil {
			return snapshot{}, err
		}
		ids, err := b.ListMachineIDsByStatus(ctx, userID, models.StatusSolved)
		if err != nil {
			return snapshot{}, err
		}
		solved := make(map[int64]bool, len(ids))
		for _, id := range ids {
			solved[id] = true
		}
		return snapshot{all: all, solved: solved}, nil
	})
	if err == nil {
		return ok(certificationProgress(snap.all, snap.solved), SourceBackend)
	}

	g.fallingBack("getCertificationProgress", err)
	solved, err := g.fallbackSolvedIDs(userID)
	if err != nil {
		return fail[[]models.CertificationProgress](err, SourceFallback)
	}
	return ok(certificationProgress(DemoMachines(), solved), SourceFallback)
}

// certificationProgress aggregates per certification in order of first
// appearance in all.
func certificationProgress(all []models.Machine, solved map[int64]bool) []models.CertificationProgress {
	index := make(map[string]int)
	out := make([]models.CertificationProgress, 0)
	for _, m := range all {
		for _, c := range m.Certifications {
			i, seen := index[c]
			if !seen {
				i = len(out)
				index[c] = i
				out = append(out, models.CertificationProgress{Name: c})
			}
			out[i].Total++
			if solved[m.ID] {
				out[i].Solved++
			}
		}
	}
	for i := range out {
		if out[i].Total > 0 {
			out[i].Pct = int(math.Round(float64(out[i].Solved) / float64(out[i].Total) * 100))
		}
	}
	return out
}
