package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noit/research-api/internal/auth"
	"github.com/noit/research-api/internal/domain"
)

// ErrUnauthorized covers every failed proof of identity: bad, tampered or
// expired tokens and tokens for users that no longer exist. The wrapped cause
// is for logs only.
var ErrUnauthorized = errors.New("unauthorized")

type tokenVerifier interface {
	Verify(token string, now time.Time) (uint64, error)
}

// SessionResolver turns a bearer token into an Identity.
type SessionResolver struct {
	tokens    tokenVerifier
	directory *UserDirectory
}

func NewSessionResolver(tokens tokenVerifier, directory *UserDirectory) *SessionResolver {
	return &SessionResolver{tokens: tokens, directory: directory}
}

func (r *SessionResolver) Resolve(ctx context.Context, token string, now time.Time) (domain.Identity, error) {
	userID, err := r.tokens.Verify(token, now)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	user, err := r.directory.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Identity{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return domain.Identity{}, fmt.Errorf("resolve session: %w", err)
	}

	return domain.Identity{UserID: user.ID, Email: user.Email}, nil
}

var _ tokenVerifier = (*auth.TokenService)(nil)
