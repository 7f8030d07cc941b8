package fallback

import (
	"context"
	"time"

	"github.com/atinyakov/hacklearn/internal/metrics"
	"github.com/atinyakov/hacklearn/internal/models"
	"go.uber.org/zap"
)

// Prune drops status entries reset to "none" and removes note and
// calendar lists left empty. It returns the number of entries removed.
func Prune(store Store) (int, error) {
	removed := 0

	keys, err := store.Keys(userMachinesPrefix)
	if err != nil {
		return removed, err
	}
	for _, key := range keys {
		var statuses map[string]string
		if _, err := store.Get(key, &statuses); err != nil {
			return removed, err
		}
		before := len(statuses)
		for id, s := range statuses {
			if st, err := models.ParseStatus(s); err != nil || st == models.StatusNone {
				delete(statuses, id)
			}
		}
		removed += before - len(statuses)
		switch {
		case len(statuses) == 0:
			err = store.Delete(key)
		case len(statuses) != before:
			err = store.Put(key, statuses)
		}
		if err != nil {
			return removed, err
		}
	}

	keys, err = store.Keys(notesPrefix)
	if err != nil {
		return removed, err
	}
	for _, key := range keys {
		var notes []models.Note
		if _, err := store.Get(key, &notes); err != nil {
			return removed, err
		}
		if len(notes) == 0 {
			if err := store.Delete(key); err != nil {
				return removed, err
			}
			removed++
		}
	}

	keys, err = store.Keys(calendarPrefix)
	if err != nil {
		return removed, err
	}
	for _, key := range keys {
		var entries []models.ScheduledEntry
		if _, err := store.Get(key, &entries); err != nil {
			return removed, err
		}
		if len(entries) == 0 {
			if err := store.Delete(key); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// StartPruner runs Prune every interval until ctx is cancelled.
func StartPruner(
	ctx context.Context,
	store Store,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := Prune(store)
				if err != nil {
					log.Error("failed to prune fallback store", zap.Error(err))
					continue
				}
				if removed > 0 {
					metrics.FallbackPruned.Add(float64(removed))
					log.Info("pruned fallback store", zap.Int("removed", removed))
				}
			}
		}
	}()
}
