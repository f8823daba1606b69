package repository

import (
	"context"

	"github.com/noit/research-api/internal/domain"
)

type UserRepository interface {
	// Create inserts user and fills in its ID. It returns domain.ErrEmailTaken
	// when the email is already registered.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uint64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type QueryRepository interface {
	Create(ctx context.Context, query *domain.Query) error
	// ListByUserID returns at most limit queries owned by userID, newest first.
	ListByUserID(ctx context.Context, userID uint64, limit int) ([]*domain.Query, error)
}

type Repositories struct {
	User  UserRepository
	Query QueryRepository
}
