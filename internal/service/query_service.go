package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noit/research-api/internal/domain"
	"github.com/noit/research-api/internal/logging"
	"github.com/noit/research-api/internal/orchestrator"
)

// ErrAnswerUnavailable is returned by Ask when the orchestrator failed. The
// question is still recorded, with a nil answer.
var ErrAnswerUnavailable = errors.New("answer unavailable")

type QueryService struct {
	ledger       *QueryLedger
	orchestrator orchestrator.Orchestrator
	defaultModel string
	timeout      time.Duration
	log          logging.Logger
}

func NewQueryService(ledger *QueryLedger, orch orchestrator.Orchestrator, defaultModel string, timeout time.Duration, log logging.Logger) *QueryService {
	return &QueryService{
		ledger:       ledger,
		orchestrator: orch,
		defaultModel: defaultModel,
		timeout:      timeout,
		log:          log,
	}
}

// Ask answers question for the caller and records the exchange.
func (s *QueryService) Ask(ctx context.Context, identity domain.Identity, question, model string) (*domain.Query, error) {
	if model == "" {
		model = s.defaultModel
	}

	answerCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		answerCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	answer, answerErr := s.orchestrator.Answer(answerCtx, question, model)
	meta := domain.QueryMeta{
		Model:        model,
		Orchestrator: s.orchestrator.Name(),
		LatencyMS:    time.Since(started).Milliseconds(),
	}

	var stored *string
	if answerErr == nil {
		stored = &answer
	} else {
		s.log.Warn(ctx, "orchestrator failed",
			"user_id", identity.UserID,
			"model", model,
			"orchestrator", meta.Orchestrator,
			"error", answerErr,
		)
	}

	record, err := s.ledger.Record(ctx, identity.UserID, question, stored, meta)
	if err != nil {
		return nil, fmt.Errorf("record query: %w", err)
	}

	if answerErr != nil {
		return record, fmt.Errorf("%w: %w", ErrAnswerUnavailable, answerErr)
	}
	return record, nil
}

// History returns the caller's most recent queries, newest first.
func (s *QueryService) History(ctx context.Context, identity domain.Identity) ([]*domain.Query, error) {
	return s.ledger.Recent(ctx, identity.UserID, DefaultHistoryLimit)
}
