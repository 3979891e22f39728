package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/types"
)

type LogisticsParamRepo interface {
	// Find prefers a category-specific row over the origin's general one.
	Find(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, originCountry, category string) (*types.LogisticsParam, error)
}

type logisticsParamRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLogisticsParamRepo(db *gorm.DB, baseLog *logger.Logger) LogisticsParamRepo {
	repoLog := baseLog.With("repo", "LogisticsParamRepo")
	return &logisticsParamRepo{db: db, log: repoLog}
}

func (r *logisticsParamRepo) Find(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, originCountry, category string) (*types.LogisticsParam, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if originCountry == "" {
		return nil, nil
	}
	var param types.LogisticsParam
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND origin_country = ?", tenantID, originCountry).
		Where("category = ? OR category = ''", category).
		Order("CASE WHEN category = '' THEN 1 ELSE 0 END ASC").
		First(&param).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &param, nil
}
