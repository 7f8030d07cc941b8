package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/atinyakov/hacklearn/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type mockAuthRepo struct {
	UserExistsFunc     func(ctx context.Context, email string) (bool, error)
	CreateUserFunc     func(ctx context.Context, u models.User) error
	GetUserByEmailFunc func(ctx context.Context, email string) (*models.User, error)
}

func (m *mockAuthRepo) UserExists(ctx context.Context, email string) (bool, error) {
	return m.UserExistsFunc(ctx, email)
}
func (m *mockAuthRepo) CreateUser(ctx context.Context, u models.User) error {
	return m.CreateUserFunc(ctx, u)
}
func (m *mockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetUserByEmailFunc(ctx, email)
}

func TestUserExists_Success(t *testing.T) {
	repo := &mockAuthRepo{
		UserExistsFunc: func(ctx context.Context, email string) (bool, error) {
			if email != "bob@example.com" {
				t.Errorf("UserExists received email = %q; want %q", email, "bob@example.com")
			}
			return true, nil
		},
	}
	svc := NewAuthService(repo)

	got, err := svc.UserExists(context.Background(), "  Bob@Example.com ")
	if err != nil {
		t.Fatalf("UserExists returned error: %v", err)
	}
	if !got {
		t.Errorf("UserExists = false; want true")
	}
}

func TestRegister_Success(t *testing.T) {
	var stored models.User
	repo := &mockAuthRepo{
		UserExistsFunc: func(context.Context, string) (bool, error) { return false, nil },
		CreateUserFunc: func(_ context.Context, u models.User) error {
			stored = u
			return nil
		},
	}
	svc := NewAuthService(repo)

	id, err := svc.Register(context.Background(), "Carol@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if id.Email != "carol@example.com" || id.ID == "" || id.ID != stored.ID {
		t.Errorf("unexpected identity %+v (stored %+v)", id, stored)
	}
	if err := bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("hunter22")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{})

	for _, tc := range []struct{ email, password string }{
		{"", "hunter22"},
		{"a@example.com", "123"},
	} {
		_, err := svc.Register(context.Background(), tc.email, tc.password)
		if !errors.Is(err, models.ErrValidation) {
			t.Errorf("Register(%q, %q) error = %v; want ErrValidation", tc.email, tc.password, err)
		}
	}
}

func TestRegister_Duplicate(t *testing.T) {
	repo := &mockAuthRepo{
		UserExistsFunc: func(context.Context, string) (bool, error) { return true, nil },
	}
	svc := NewAuthService(repo)

	if _, err := svc.Register(context.Background(), "dup@example.com", "hunter22"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("Register error = %v; want ErrUserExists", err)
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	repo := &mockAuthRepo{
		GetUserByEmailFunc: func(_ context.Context, email string) (*models.User, error) {
			if email != "dave@example.com" {
				return nil, fmt.Errorf("GetUserByEmail: %w", models.ErrNotFound)
			}
			return &models.User{ID: "u-dave", Email: email, PasswordHash: hash}, nil
		},
	}
	svc := NewAuthService(repo)

	id, err := svc.Login(context.Background(), "Dave@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if id.ID != "u-dave" {
		t.Errorf("Login id = %q; want u-dave", id.ID)
	}

	if _, err := svc.Login(context.Background(), "dave@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v; want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "eve@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v; want ErrInvalidCredentials", err)
	}
}

func TestLogin_RepoError(t *testing.T) {
	wantErr := errors.New("db error")
	repo := &mockAuthRepo{
		GetUserByEmailFunc: func(context.Context, string) (*models.User, error) { return nil, wantErr },
	}
	svc := NewAuthService(repo)

	if _, err := svc.Login(context.Background(), "a@example.com", "hunter22"); err != wantErr {
		t.Fatalf("Login error = %v; want %v", err, wantErr)
	}
}
