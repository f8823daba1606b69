package service

import (
	"context"

	"github.com/noit/research-api/internal/domain"
	"github.com/noit/research-api/internal/repository"
)

// UserDirectory creates and looks up users. Lookups return
// domain.ErrUserNotFound when nothing matches.
type UserDirectory struct {
	users repository.UserRepository
}

func NewUserDirectory(users repository.UserRepository) *UserDirectory {
	return &UserDirectory{users: users}
}

// Create registers a user. Uniqueness is enforced by the store, so concurrent
// signups for one email yield exactly one user and domain.ErrEmailTaken.
func (d *UserDirectory) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	user := &domain.User{
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := d.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return d.users.GetByEmail(ctx, email)
}

func (d *UserDirectory) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	return d.users.GetByID(ctx, id)
}
