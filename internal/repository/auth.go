package repository

import (
	"context"
	"database/sql"

	"github.com/atinyakov/hacklearn/internal/models"
)

// PostgresAuthRepository implements account storage using a PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// UserExists checks whether an account with the specified email exists.
func (s *PostgresAuthRepository) UserExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, mapErr("UserExists", err)
	}
	return exists, nil
}

// CreateUser stores a new account. An existing email is left untouched by
// the ON CONFLICT DO NOTHING clause.
func (s *PostgresAuthRepository) CreateUser(ctx context.Context, u models.User) error {
	_, err := s.DB.ExecContext(
		ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		return mapErr("CreateUser", err)
	}
	return nil
}

// GetUserByEmail returns the account registered with email, or
// models.ErrNotFound.
func (s *PostgresAuthRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, mapErr("GetUserByEmail", err)
	}
	return &u, nil
}
