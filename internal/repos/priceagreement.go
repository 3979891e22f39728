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

type PriceAgreementRepo interface {
	// FindActive returns the agreement whose validity window covers asOf,
	// or nil when none applies. Absence is not an error.
	FindActive(ctx context.Context, tx *gorm.DB, tenantID, clientID uuid.UUID, materialCode string, asOf time.Time) (*types.PriceAgreement, error)
}

type priceAgreementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPriceAgreementRepo(db *gorm.DB, baseLog *logger.Logger) PriceAgreementRepo {
	repoLog := baseLog.With("repo", "PriceAgreementRepo")
	return &priceAgreementRepo{db: db, log: repoLog}
}

func (r *priceAgreementRepo) FindActive(ctx context.Context, tx *gorm.DB, tenantID, clientID uuid.UUID, materialCode string, asOf time.Time) (*types.PriceAgreement, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if clientID == uuid.Nil || materialCode == "" {
		return nil, nil
	}
	var agreement types.PriceAgreement
	err := transaction.WithContext(ctx).
		Where("tenant_id = ? AND client_id = ? AND material_code = ?", tenantID, clientID, materialCode).
		Where("valid_from <= ?", asOf).
		Where("valid_to IS NULL OR valid_to > ?", asOf).
		Order("valid_from DESC").
		First(&agreement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}
