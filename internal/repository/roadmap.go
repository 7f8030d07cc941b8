package repository

import (
	"context"
)

// ListRoadmapProgress returns the completion checkboxes userID set on the
// roadmap certID, keyed by machine id.
func (r *PostgresRepository) ListRoadmapProgress(ctx context.Context, userID string, certID int) (map[int64]bool, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT machine_id, completed FROM roadmap_progress
		WHERE user_id = $1 AND certification_id = $2
	`, userID, certID)
	if err != nil {
		return nil, mapErr("ListRoadmapProgress", err)
	}
	defer rows.Close()

	progress := make(map[int64]bool)
	for rows.Next() {
		var (
			machineID int64
			completed bool
		)
		if err := rows.Scan(&machineID, &completed); err != nil {
			return nil, mapErr("ListRoadmapProgress", err)
		}
		progress[machineID] = completed
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("ListRoadmapProgress", err)
	}
	return progress, nil
}

// SetRoadmapProgress upserts one roadmap checkbox.
func (r *PostgresRepository) SetRoadmapProgress(ctx context.Context, userID string, certID int, machineID int64, completed bool) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO roadmap_progress (user_id, certification_id, machine_id, completed, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, certification_id, machine_id) DO UPDATE SET
			completed = EXCLUDED.completed,
			updated_at = EXCLUDED.updated_at
	`, userID, certID, machineID, completed, r.now())
	if err != nil {
		return mapErr("SetRoadmapProgress", err)
	}
	return nil
}
