package app

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/atinyakov/hacklearn/internal/fallback"
	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/atinyakov/hacklearn/internal/repository"
	"github.com/atinyakov/hacklearn/internal/service"
)

// accounts stores users in Postgres once it is connected and in the
// fallback store until then. Lookups check both so accounts created while
// offline keep working after the backend comes up.
type accounts struct {
	remote atomic.Pointer[repository.PostgresAuthRepository]
	local  *fallback.UserRepository
}

var _ service.AuthRepository = (*accounts)(nil)

func (a *accounts) UserExists(ctx context.Context, email string) (bool, error) {
	if r := a.remote.Load(); r != nil {
		ok, err := r.UserExists(ctx, email)
		if err != nil || ok {
			return ok, err
		}
	}
	return a.local.UserExists(ctx, email)
}

func (a *accounts) CreateUser(ctx context.Context, u models.User) error {
	if r := a.remote.Load(); r != nil {
		return r.CreateUser(ctx, u)
	}
	return a.local.CreateUser(ctx, u)
}

func (a *accounts) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if r := a.remote.Load(); r != nil {
		u, err := r.GetUserByEmail(ctx, email)
		if !errors.Is(err, models.ErrNotFound) {
			return u, err
		}
	}
	return a.local.GetUserByEmail(ctx, email)
}
