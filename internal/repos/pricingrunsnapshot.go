package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/types"
)

// Snapshots are append-only; there is deliberately no update or delete here.
type PricingRunSnapshotRepo interface {
	Create(ctx context.Context, tx *gorm.DB, snapshots []*types.PricingRunSnapshot) ([]*types.PricingRunSnapshot, error)
	GetByLineage(ctx context.Context, tx *gorm.DB, tenantID, lineageID uuid.UUID) ([]*types.PricingRunSnapshot, error)
}

type pricingRunSnapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPricingRunSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) PricingRunSnapshotRepo {
	repoLog := baseLog.With("repo", "PricingRunSnapshotRepo")
	return &pricingRunSnapshotRepo{db: db, log: repoLog}
}

func (r *pricingRunSnapshotRepo) Create(ctx context.Context, tx *gorm.DB, snapshots []*types.PricingRunSnapshot) ([]*types.PricingRunSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(snapshots) == 0 {
		return []*types.PricingRunSnapshot{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *pricingRunSnapshotRepo) GetByLineage(ctx context.Context, tx *gorm.DB, tenantID, lineageID uuid.UUID) ([]*types.PricingRunSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var snapshots []*types.PricingRunSnapshot
	if lineageID == uuid.Nil {
		return snapshots, nil
	}
	if err := transaction.WithContext(ctx).
		Where("lineage_id = ? AND tenant_id = ?", lineageID, tenantID).
		Order("created_at ASC").
		Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}
