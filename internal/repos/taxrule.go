package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/types"
)

type TaxRuleRepo interface {
	GetActive(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, jurisdiction string, asOf time.Time) (*types.TaxRule, error)
}

type taxRuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaxRuleRepo(db *gorm.DB, baseLog *logger.Logger) TaxRuleRepo {
	repoLog := baseLog.With("repo", "TaxRuleRepo")
	return &taxRuleRepo{db: db, log: repoLog}
}

func (r *taxRuleRepo) GetActive(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, jurisdiction string, asOf time.Time) (*types.TaxRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if jurisdiction == "" {
		return nil, nil
	}
	var rule types.TaxRule
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND jurisdiction = ?", tenantID, jurisdiction).
		Where("valid_from <= ?", asOf).
		Where("valid_to IS NULL OR valid_to > ?", asOf).
		Order("valid_from DESC").
		First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}
