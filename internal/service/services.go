package service

import (
	"github.com/noit/research-api/internal/auth"
	"github.com/noit/research-api/internal/config"
	"github.com/noit/research-api/internal/logging"
	"github.com/noit/research-api/internal/orchestrator"
	"github.com/noit/research-api/internal/repository"
)

type Services struct {
	Auth     *AuthService
	Sessions *SessionResolver
	Query    *QueryService
	Tokens   *auth.TokenService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, orch orchestrator.Orchestrator, log logging.Logger) *Services {
	directory := NewUserDirectory(repos.User)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL())
	ledger := NewQueryLedger(repos.Query)

	return &Services{
		Auth:     NewAuthService(directory, hasher, tokens),
		Sessions: NewSessionResolver(tokens, directory),
		Query:    NewQueryService(ledger, orch, cfg.DefaultModel, cfg.AnswerTimeout, log),
		Tokens:   tokens,
	}
}
