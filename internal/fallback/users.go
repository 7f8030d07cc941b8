package fallback

import (
	"context"
	"fmt"

	"github.com/atinyakov/hacklearn/internal/models"
)

// UserRepository keeps accounts in the fallback store. It serves sign-in
// when no database is configured.
type UserRepository struct {
	store Store
}

// NewUserRepository returns a UserRepository over store.
func NewUserRepository(store Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) UserExists(_ context.Context, email string) (bool, error) {
	var u models.User
	return r.store.Get(UserKey(email), &u)
}

// CreateUser stores u unless the email is already registered.
func (r *UserRepository) CreateUser(ctx context.Context, u models.User) error {
	exists, err := r.UserExists(ctx, u.Email)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return r.store.Put(UserKey(u.Email), u)
}

func (r *UserRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	var u models.User
	found, err := r.store.Get(UserKey(email), &u)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("GetUserByEmail: %w", models.ErrNotFound)
	}
	return &u, nil
}
