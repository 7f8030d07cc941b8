package repository

import (
	"context"

	"github.com/atinyakov/hacklearn/internal/models"
)

// ListNotes returns the notes of userID for machineID ordered by the
// in-video timestamp.
func (r *PostgresRepository) ListNotes(ctx context.Context, userID string, machineID int64) ([]models.Note, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id::text, user_id, machine_id, name, content, timestamp, created_at
		FROM notes WHERE user_id = $1 AND machine_id = $2
		ORDER BY timestamp ASC
	`, userID, machineID)
	if err != nil {
		return nil, mapErr("ListNotes", err)
	}
	defer rows.Close()

	notes := make([]models.Note, 0)
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.MachineID, &n.Name, &n.Content, &n.Timestamp, &n.CreatedAt); err != nil {
			return nil, mapErr("ListNotes", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("ListNotes", err)
	}
	return notes, nil
}

// InsertNote stores n and returns it with its generated id.
func (r *PostgresRepository) InsertNote(ctx context.Context, n models.Note) (*models.Note, error) {
	n.CreatedAt = r.now()
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO notes (user_id, machine_id, name, content, timestamp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text
	`, n.UserID, n.MachineID, n.Name, n.Content, n.Timestamp, n.CreatedAt).Scan(&n.ID)
	if err != nil {
		return nil, mapErr("InsertNote", err)
	}
	return &n, nil
}

// DeleteNote removes noteID if it belongs to userID.
func (r *PostgresRepository) DeleteNote(ctx context.Context, userID, noteID string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM notes WHERE id::text = $1 AND user_id = $2`, noteID, userID); err != nil {
		return mapErr("DeleteNote", err)
	}
	return nil
}
