package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/noit/research-api/internal/auth"
	"github.com/noit/research-api/internal/domain"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenType is the token_type reported alongside every access token.
const TokenType = "bearer"

type AuthService struct {
	directory *UserDirectory
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenService
	now       func() time.Time

	// dummyHash is compared against when the email is unknown so that login
	// takes the same time whether or not the account exists.
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(directory *UserDirectory, hasher *auth.PasswordHasher, tokens *auth.TokenService) *AuthService {
	return &AuthService{
		directory: directory,
		hasher:    hasher,
		tokens:    tokens,
		now:       time.Now,
	}
}

type AuthResult struct {
	User        *domain.User
	AccessToken string
	TokenType   string
}

// Signup registers email and returns a fresh access token. It returns
// domain.ErrEmailTaken when the email already exists.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*AuthResult, error) {
	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.directory.Create(ctx, email, hashedPassword)
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

// Login checks the credentials and returns a fresh access token. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummy())
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	accessToken, err := s.tokens.Issue(user.ID, s.now(), s.tokens.TTL())
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:        user,
		AccessToken: accessToken,
		TokenType:   TokenType,
	}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("dummy-password-for-timing")
	})
	return s.dummyHash
}
