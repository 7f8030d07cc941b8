package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/lib/pq"
)

// machineWhere builds the AND-combined WHERE clause for f. It returns the
// clause (empty when no filter is set) and its positional arguments.
func machineWhere(f models.MachineFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Difficulty != "" {
		add("difficulty = $%d", f.Difficulty)
	}
	if f.OS != "" {
		add("os = $%d", f.OS)
	}
	if f.Technique != "" {
		add("$%d = ANY(techniques)", f.Technique)
	}
	if f.Tag != "" {
		add("$%d = ANY(tags)", f.Tag)
	}
	if f.Search != "" {
		add("name ILIKE '%%' || $%d || '%%'", f.Search)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListMachines returns one page of machines matching f together with the
// total number of matching rows.
func (r *PostgresRepository) ListMachines(ctx context.Context, f models.MachineFilter, offset, limit int) ([]models.Machine, int, error) {
	where, args := machineWhere(f)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM machines`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapErr("ListMachines count", err)
	}

	pageArgs := append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM machines%s ORDER BY id LIMIT $%d OFFSET $%d`,
		machineColumns, where, len(args)+1, len(args)+2)
	rows, err := r.DB.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, mapErr("ListMachines", err)
	}
	machines, err := scanMachines(rows)
	if err != nil {
		return nil, 0, mapErr("ListMachines", err)
	}
	return machines, total, nil
}

// GetMachine fetches a single machine by id.
func (r *PostgresRepository) GetMachine(ctx context.Context, id int64) (*models.Machine, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+machineColumns+` FROM machines WHERE id = $1`, id)
	m, err := scanMachine(row)
	if err != nil {
		return nil, mapErr("GetMachine", err)
	}
	return &m, nil
}

// FindMachineByName returns the first machine whose name matches name
// case-insensitively.
func (r *PostgresRepository) FindMachineByName(ctx context.Context, name string) (*models.Machine, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+machineColumns+` FROM machines WHERE name ILIKE $1 ORDER BY id LIMIT 1`, name)
	m, err := scanMachine(row)
	if err != nil {
		return nil, mapErr("FindMachineByName", err)
	}
	return &m, nil
}

// GetMachinesByIDs fetches the machines whose ids are listed.
func (r *PostgresRepository) GetMachinesByIDs(ctx context.Context, ids []int64) ([]models.Machine, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+machineColumns+` FROM machines WHERE id = ANY($1) ORDER BY id`, pq.Array(ids))
	if err != nil {
		return nil, mapErr("GetMachinesByIDs", err)
	}
	machines, err := scanMachines(rows)
	if err != nil {
		return nil, mapErr("GetMachinesByIDs", err)
	}
	return machines, nil
}

// AllMachines returns the whole catalog.
func (r *PostgresRepository) AllMachines(ctx context.Context) ([]models.Machine, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+machineColumns+` FROM machines ORDER BY id`)
	if err != nil {
		return nil, mapErr("AllMachines", err)
	}
	machines, err := scanMachines(rows)
	if err != nil {
		return nil, mapErr("AllMachines", err)
	}
	return machines, nil
}
