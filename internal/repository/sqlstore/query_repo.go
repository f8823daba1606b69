package sqlstore

import (
	"context"

	"github.com/noit/research-api/internal/domain"
	"gorm.io/gorm"
)

type queryRepository struct {
	db *gorm.DB
}

func NewQueryRepository(db *gorm.DB) *queryRepository {
	return &queryRepository{db: db}
}

func (r *queryRepository) Create(ctx context.Context, query *domain.Query) error {
	return r.db.WithContext(ctx).Create(query).Error
}

func (r *queryRepository) ListByUserID(ctx context.Context, userID uint64, limit int) ([]*domain.Query, error) {
	queries := []*domain.Query{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&queries).Error
	if err != nil {
		return nil, err
	}
	return queries, nil
}
