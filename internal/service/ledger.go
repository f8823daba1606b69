package service

import (
	"context"

	"github.com/noit/research-api/internal/domain"
	"github.com/noit/research-api/internal/repository"
	"gorm.io/datatypes"
)

// DefaultHistoryLimit is the number of records Recent returns when asked for
// a non-positive limit, and the most it ever returns.
const DefaultHistoryLimit = 50

// QueryLedger stores question/answer pairs per user.
type QueryLedger struct {
	queries repository.QueryRepository
}

func NewQueryLedger(queries repository.QueryRepository) *QueryLedger {
	return &QueryLedger{queries: queries}
}

// Record persists a query for userID. answer is nil when no answer could be
// produced.
func (l *QueryLedger) Record(ctx context.Context, userID uint64, question string, answer *string, meta domain.QueryMeta) (*domain.Query, error) {
	query := &domain.Query{
		UserID:   userID,
		Question: question,
		Answer:   answer,
		Meta:     datatypes.NewJSONType(meta),
	}
	if err := l.queries.Create(ctx, query); err != nil {
		return nil, err
	}
	return query, nil
}

// Recent returns up to limit of userID's queries, newest first. limit is
// clamped to (0, DefaultHistoryLimit].
func (l *QueryLedger) Recent(ctx context.Context, userID uint64, limit int) ([]*domain.Query, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	return l.queries.ListByUserID(ctx, userID, limit)
}
