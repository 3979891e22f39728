package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/types"
)

type PricingRunItemRepo interface {
	Create(ctx context.Context, tx *gorm.DB, items []*types.PricingRunItem) ([]*types.PricingRunItem, error)
	GetByRunID(ctx context.Context, tx *gorm.DB, tenantID, runID uuid.UUID) ([]*types.PricingRunItem, error)
}

type pricingRunItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPricingRunItemRepo(db *gorm.DB, baseLog *logger.Logger) PricingRunItemRepo {
	repoLog := baseLog.With("repo", "PricingRunItemRepo")
	return &pricingRunItemRepo{db: db, log: repoLog}
}

func (r *pricingRunItemRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.PricingRunItem) ([]*types.PricingRunItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(items) == 0 {
		return []*types.PricingRunItem{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *pricingRunItemRepo) GetByRunID(ctx context.Context, tx *gorm.DB, tenantID, runID uuid.UUID) ([]*types.PricingRunItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var items []*types.PricingRunItem
	if runID == uuid.Nil {
		return items, nil
	}
	if err := transaction.WithContext(ctx).
		Where("run_id = ? AND tenant_id = ?", runID, tenantID).
		Order("position ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
