package repository

import (
	"context"

	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/lib/pq"
)

// InsertCalendarEntry schedules e and returns it with its generated id.
func (r *PostgresRepository) InsertCalendarEntry(ctx context.Context, e models.ScheduledEntry) (*models.ScheduledEntry, error) {
	e.CreatedAt = r.now()
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO calendar (user_id, machine_id, date, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text
	`, e.UserID, e.MachineID, e.Date, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		return nil, mapErr("InsertCalendarEntry", err)
	}
	return &e, nil
}

// ListCalendarEntries returns the entries of userID dated within
// [start, end] inclusive, each with its machine record joined inline.
func (r *PostgresRepository) ListCalendarEntries(ctx context.Context, userID, start, end string) ([]models.ScheduledEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id::text, c.user_id, c.machine_id, to_char(c.date, 'YYYY-MM-DD'), c.created_at,
		       m.id, m.name, m.difficulty, m.os, m.ip, m.techniques, m.certifications, m.tags,
		       m.video, m.download_ova, m.download_docker
		FROM calendar c
		JOIN machines m ON m.id = c.machine_id
		WHERE c.user_id = $1 AND c.date >= $2 AND c.date <= $3
		ORDER BY c.date, c.id
	`, userID, start, end)
	if err != nil {
		return nil, mapErr("ListCalendarEntries", err)
	}
	defer rows.Close()

	entries := make([]models.ScheduledEntry, 0)
	for rows.Next() {
		var (
			e          models.ScheduledEntry
			m          models.Machine
			difficulty string
		)
		err := rows.Scan(
			&e.ID, &e.UserID, &e.MachineID, &e.Date, &e.CreatedAt,
			&m.ID, &m.Name, &difficulty, &m.OS, &m.IP,
			pq.Array(&m.Techniques), pq.Array(&m.Certifications), pq.Array(&m.Tags),
			&m.Video, &m.DownloadOVA, &m.DownloadDocker,
		)
		if err != nil {
			return nil, mapErr("ListCalendarEntries", err)
		}
		m.Difficulty = models.Difficulty(difficulty)
		e.Machine = &m
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("ListCalendarEntries", err)
	}
	return entries, nil
}

// DeleteCalendarEntry removes entryID if it belongs to userID.
func (r *PostgresRepository) DeleteCalendarEntry(ctx context.Context, userID, entryID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM calendar WHERE id::text = $1 AND user_id = $2`, entryID, userID)
	if err != nil {
		return mapErr("DeleteCalendarEntry", err)
	}
	return nil
}
