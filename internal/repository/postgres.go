// Package repository implements the hosted table service on top of a
// PostgreSQL database. Every row is scoped to its owning user.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/lib/pq"
)

// undefinedTable is the SQLSTATE Postgres reports for a missing relation.
const undefinedTable = "42P01"

// PostgresRepository implements the table operations used by the gateway.
type PostgresRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
	// now stamps created/updated columns; replaced in tests.
	now func() time.Time
}

// NewPostgresRepository creates a PostgresRepository using the provided *sql.DB.
// db must be a valid connection to a migrated PostgreSQL instance.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db, now: time.Now}
}

// mapErr annotates err with op and translates driver conditions into the
// sentinel errors the gateway understands.
func mapErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == undefinedTable {
		return fmt.Errorf("%s: %w: %s", op, models.ErrMissingTable, pqErr.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

const machineColumns = `id, name, difficulty, os, ip, techniques, certifications, tags, video, download_ova, download_docker`

func scanMachine(row rowScanner) (models.Machine, error) {
	var m models.Machine
	var difficulty string
	err := row.Scan(
		&m.ID, &m.Name, &difficulty, &m.OS, &m.IP,
		pq.Array(&m.Techniques), pq.Array(&m.Certifications), pq.Array(&m.Tags),
		&m.Video, &m.DownloadOVA, &m.DownloadDocker,
	)
	m.Difficulty = models.Difficulty(difficulty)
	return m, err
}

func scanMachines(rows *sql.Rows) ([]models.Machine, error) {
	defer rows.Close()

	machines := make([]models.Machine, 0)
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		machines = append(machines, m)
	}
	return machines, rows.Err()
}
