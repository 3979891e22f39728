package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/types"
)

type MaterialRepo interface {
	GetByCode(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, code string) (*types.Material, error)
	GetByCodes(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, codes []string) (map[string]*types.Material, error)
}

type materialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialRepo(db *gorm.DB, baseLog *logger.Logger) MaterialRepo {
	repoLog := baseLog.With("repo", "MaterialRepo")
	return &materialRepo{db: db, log: repoLog}
}

func (r *materialRepo) GetByCode(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, code string) (*types.Material, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if code == "" {
		return nil, nil
	}
	var material types.Material
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		First(&material).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *materialRepo) GetByCodes(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, codes []string) (map[string]*types.Material, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	result := map[string]*types.Material{}
	if len(codes) == 0 {
		return result, nil
	}
	var materials []*types.Material
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND code IN ?", tenantID, codes).
		Find(&materials).Error; err != nil {
		return nil, err
	}
	for _, m := range materials {
		result[m.Code] = m
	}
	return result, nil
}
