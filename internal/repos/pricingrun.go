package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/types"
)

type PricingRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, runs []*types.PricingRun) ([]*types.PricingRun, error)
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.PricingRun, error)
	// GetByIDForUpdate takes a row lock on the run; state transitions on a
	// single run (lock, outcome) serialize through it.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.PricingRun, error)
	GetByRequestID(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) ([]*types.PricingRun, error)
	GetByLineage(ctx context.Context, tx *gorm.DB, tenantID, lineageID uuid.UUID) ([]*types.PricingRun, error)
	GetByLineageAndVersion(ctx context.Context, tx *gorm.DB, tenantID, lineageID uuid.UUID, version int) (*types.PricingRun, error)

	// GetCurrentForUpdate returns every run currently flagged current for
	// the request, locked FOR UPDATE. More than one row signals a
	// data-integrity violation that the caller must refuse to paper over.
	GetCurrentForUpdate(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) ([]*types.PricingRun, error)
	GetCurrentByRequestID(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) (*types.PricingRun, error)

	MaxVersionForLineage(ctx context.Context, tx *gorm.DB, tenantID, lineageID uuid.UUID) (int, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type pricingRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPricingRunRepo(db *gorm.DB, baseLog *logger.Logger) PricingRunRepo {
	repoLog := baseLog.With("repo", "PricingRunRepo")
	return &pricingRunRepo{db: db, log: repoLog}
}

func (r *pricingRunRepo) Create(ctx context.Context, tx *gorm.DB, runs []*types.PricingRun) ([]*types.PricingRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(runs) == 0 {
		return []*types.PricingRun{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *pricingRunRepo) GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.PricingRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var run types.PricingRun
	err := transaction.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *pricingRunRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*types.PricingRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var run types.PricingRun
	err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *pricingRunRepo) GetByRequestID(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) ([]*types.PricingRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var runs []*types.PricingRun
	if requestID == uuid.Nil {
		return runs, nil
	}
	if err := transaction.WithContext(ctx).
		Where("request_id = ? AND tenant_id = ?", requestID, tenantID).
		Order("version_number DESC").
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *pricingRunRepo) GetByLineage(ctx context.Context, tx *gorm.DB, tenantID, lineageID uuid.UUID) ([]*types.PricingRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var runs []*types.PricingRun
	if lineageID == uuid.Nil {
		return runs, nil
	}
	if err := transaction.WithContext(ctx).
		Where("lineage_id = ? AND tenant_id = ?", lineageID, tenantID).
		Order("version_number ASC").
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *pricingRunRepo) GetByLineageAndVersion(ctx context.Context, tx *gorm.DB, tenantID, lineageID uuid.UUID, version int) (*types.PricingRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var run types.PricingRun
	err := transaction.WithContext(ctx).
		Where("lineage_id = ? AND tenant_id = ? AND version_number = ?", lineageID, tenantID, version).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *pricingRunRepo) GetCurrentForUpdate(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) ([]*types.PricingRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var runs []*types.PricingRun
	if requestID == uuid.Nil {
		return runs, nil
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("request_id = ? AND tenant_id = ? AND is_current = ?", requestID, tenantID, true).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *pricingRunRepo) GetCurrentByRequestID(ctx context.Context, tx *gorm.DB, tenantID, requestID uuid.UUID) (*types.PricingRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if requestID == uuid.Nil {
		return nil, nil
	}
	var run types.PricingRun
	err := transaction.WithContext(ctx).
		Where("request_id = ? AND tenant_id = ? AND is_current = ?", requestID, tenantID, true).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *pricingRunRepo) MaxVersionForLineage(ctx context.Context, tx *gorm.DB, tenantID, lineageID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if lineageID == uuid.Nil {
		return 0, nil
	}
	var maxVersion *int
	err := transaction.WithContext(ctx).
		Model(&types.PricingRun{}).
		Where("lineage_id = ? AND tenant_id = ?", lineageID, tenantID).
		Select("MAX(version_number)").
		Scan(&maxVersion).Error
	if err != nil {
		return 0, err
	}
	if maxVersion == nil {
		return 0, nil
	}
	return *maxVersion, nil
}

func (r *pricingRunRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(ctx).
		Model(&types.PricingRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}
