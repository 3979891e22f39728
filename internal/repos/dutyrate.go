package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/types"
)

type DutyRateRepo interface {
	// FindByHSPrefix matches the longest stored HS-code prefix of the item's
	// HS code for the origin/destination pair.
	FindByHSPrefix(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, hsCode, origin, destination string) (*types.DutyRate, error)
	FindByCategory(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, category, origin, destination string) (*types.DutyRate, error)
}

type dutyRateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDutyRateRepo(db *gorm.DB, baseLog *logger.Logger) DutyRateRepo {
	repoLog := baseLog.With("repo", "DutyRateRepo")
	return &dutyRateRepo{db: db, log: repoLog}
}

func (r *dutyRateRepo) FindByHSPrefix(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, hsCode, origin, destination string) (*types.DutyRate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if hsCode == "" {
		return nil, nil
	}
	var rate types.DutyRate
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND origin = ? AND destination = ?", tenantID, origin, destination).
		Where("hs_code_prefix <> '' AND ? LIKE hs_code_prefix || '%'", hsCode).
		Order("LENGTH(hs_code_prefix) DESC").
		First(&rate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *dutyRateRepo) FindByCategory(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, category, origin, destination string) (*types.DutyRate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if category == "" {
		return nil, nil
	}
	var rate types.DutyRate
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND origin = ? AND destination = ? AND category = ?", tenantID, origin, destination, category).
		First(&rate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}
