package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/types"
)

type PricingRuleRepo interface {
	// FindCandidates returns every rule whose scope could match the given
	// dimensions and whose validity window covers asOf. The rates service
	// picks the most specific of them.
	FindCandidates(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, clientID *uuid.UUID, category, originType, projectType string, asOf time.Time) ([]*types.PricingRule, error)
}

type pricingRuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPricingRuleRepo(db *gorm.DB, baseLog *logger.Logger) PricingRuleRepo {
	repoLog := baseLog.With("repo", "PricingRuleRepo")
	return &pricingRuleRepo{db: db, log: repoLog}
}

func (r *pricingRuleRepo) FindCandidates(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, clientID *uuid.UUID, category, originType, projectType string, asOf time.Time) ([]*types.PricingRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where("valid_from <= ?", asOf).
		Where("valid_to IS NULL OR valid_to > ?", asOf).
		Where("category = ? OR category = ''", category).
		Where("origin_type = ? OR origin_type = ''", originType).
		Where("project_type = ? OR project_type = ''", projectType)
	if clientID != nil && *clientID != uuid.Nil {
		q = q.Where("client_id = ? OR client_id IS NULL", *clientID)
	} else {
		q = q.Where("client_id IS NULL")
	}

	var rules []*types.PricingRule
	if err := q.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}
