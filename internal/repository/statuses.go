package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/atinyakov/hacklearn/internal/models"
)

// GetUserMachineStatus returns the status row of userID for machineID, or
// models.ErrNotFound when the user never flagged the machine.
func (r *PostgresRepository) GetUserMachineStatus(ctx context.Context, userID string, machineID int64) (*models.UserMachineStatus, error) {
	var (
		s        models.UserMachineStatus
		status   string
		resolved sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, machine_id, status, date_added, date_resolved, updated_at
		FROM user_machines WHERE user_id = $1 AND machine_id = $2
	`, userID, machineID).Scan(&s.ID, &s.UserID, &s.MachineID, &status, &s.DateAdded, &resolved, &s.UpdatedAt)
	if err != nil {
		return nil, mapErr("GetUserMachineStatus", err)
	}

	if s.Status, err = models.ParseStatus(status); err != nil {
		return nil, mapErr("GetUserMachineStatus", err)
	}
	if resolved.Valid {
		t := resolved.Time
		s.DateResolved = &t
	}
	return &s, nil
}

// InsertUserMachineStatus creates the status row and returns it with its id.
func (r *PostgresRepository) InsertUserMachineStatus(ctx context.Context, s models.UserMachineStatus) (*models.UserMachineStatus, error) {
	now := r.now()
	s.DateAdded = now
	s.UpdatedAt = now
	if s.Status == models.StatusSolved {
		s.DateResolved = &now
	}

	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO user_machines (user_id, machine_id, status, date_added, date_resolved, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, s.UserID, s.MachineID, s.Status.String(), s.DateAdded, s.DateResolved, s.UpdatedAt).Scan(&s.ID)
	if err != nil {
		return nil, mapErr("InsertUserMachineStatus", err)
	}
	return &s, nil
}

// UpdateUserMachineStatus updates the status row identified by id in place.
// The resolution date is set when status is solved and cleared otherwise.
func (r *PostgresRepository) UpdateUserMachineStatus(ctx context.Context, id int64, status models.Status) error {
	now := r.now()
	var resolved *time.Time
	if status == models.StatusSolved {
		resolved = &now
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE user_machines SET status = $1, date_resolved = $2, updated_at = $3 WHERE id = $4
	`, status.String(), resolved, now, id)
	if err != nil {
		return mapErr("UpdateUserMachineStatus", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mapErr("UpdateUserMachineStatus", sql.ErrNoRows)
	}
	return nil
}

// ListMachineIDsByStatus returns the ids of the machines userID holds in status.
func (r *PostgresRepository) ListMachineIDsByStatus(ctx context.Context, userID string, status models.Status) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT machine_id FROM user_machines WHERE user_id = $1 AND status = $2 ORDER BY machine_id
	`, userID, status.String())
	if err != nil {
		return nil, mapErr("ListMachineIDsByStatus", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, mapErr("ListMachineIDsByStatus", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("ListMachineIDsByStatus", err)
	}
	return ids, nil
}
