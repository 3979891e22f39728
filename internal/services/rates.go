package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/repos"
	"github.com/ironquote/ironquote-backend/internal/types"
)

const materialCacheTTL = 5 * time.Minute

// RateService is the read-only rule/rate repository of the pricing core:
// material catalog lookups, price agreements and best-match pricing-rule
// resolution. Absence of a rule or material is reported as a nil result,
// never as an error; callers fall back to tenant defaults.
type RateService interface {
	LookupMaterial(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, code string) (*types.Material, error)
	LookupMaterials(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, codes []string) (map[string]*types.Material, error)
	FindAgreement(ctx context.Context, tx *gorm.DB, tenantID, clientID uuid.UUID, materialCode string, asOf time.Time) (*types.PriceAgreement, error)
	ResolveRule(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, clientID *uuid.UUID, category, originType, projectType string, asOf time.Time) (*types.PricingRule, error)
}

type rateService struct {
	db            *gorm.DB
	log           *logger.Logger
	rdb           *redis.Client
	materialRepo  repos.MaterialRepo
	agreementRepo repos.PriceAgreementRepo
	ruleRepo      repos.PricingRuleRepo
}

// NewRateService wires the rule/rate lookups. rdb may be nil; without it
// every lookup goes straight to the database.
func NewRateService(
	db *gorm.DB,
	baseLog *logger.Logger,
	rdb *redis.Client,
	materialRepo repos.MaterialRepo,
	agreementRepo repos.PriceAgreementRepo,
	ruleRepo repos.PricingRuleRepo,
) RateService {
	serviceLog := baseLog.With("service", "RateService")
	return &rateService{
		db:            db,
		log:           serviceLog,
		rdb:           rdb,
		materialRepo:  materialRepo,
		agreementRepo: agreementRepo,
		ruleRepo:      ruleRepo,
	}
}

func materialCacheKey(tenantID uuid.UUID, code string) string {
	return fmt.Sprintf("material:%s:%s", tenantID, code)
}

func (s *rateService) LookupMaterial(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, code string) (*types.Material, error) {
	if code == "" {
		return nil, nil
	}
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, materialCacheKey(tenantID, code)).Bytes()
		if err == nil {
			var cached types.Material
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			s.log.Debug("Material cache read failed, falling through to db", "error", err, "code", code)
		}
	}

	material, err := s.materialRepo.GetByCode(ctx, tx, tenantID, code)
	if err != nil {
		return nil, fmt.Errorf("lookup material %s: %w", code, err)
	}
	if material != nil && s.rdb != nil {
		if raw, jsonErr := json.Marshal(material); jsonErr == nil {
			if setErr := s.rdb.Set(ctx, materialCacheKey(tenantID, code), raw, materialCacheTTL).Err(); setErr != nil {
				s.log.Debug("Material cache write failed", "error", setErr, "code", code)
			}
		}
	}
	return material, nil
}

func (s *rateService) LookupMaterials(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, codes []string) (map[string]*types.Material, error) {
	materials, err := s.materialRepo.GetByCodes(ctx, tx, tenantID, codes)
	if err != nil {
		return nil, fmt.Errorf("lookup materials: %w", err)
	}
	return materials, nil
}

func (s *rateService) FindAgreement(ctx context.Context, tx *gorm.DB, tenantID, clientID uuid.UUID, materialCode string, asOf time.Time) (*types.PriceAgreement, error) {
	agreement, err := s.agreementRepo.FindActive(ctx, tx, tenantID, clientID, materialCode, asOf)
	if err != nil {
		return nil, fmt.Errorf("find price agreement: %w", err)
	}
	return agreement, nil
}

// ResolveRule picks the single best-matching pricing rule: the candidate
// with the highest specificity, latest valid_from breaking ties.
func (s *rateService) ResolveRule(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, clientID *uuid.UUID, category, originType, projectType string, asOf time.Time) (*types.PricingRule, error) {
	candidates, err := s.ruleRepo.FindCandidates(ctx, tx, tenantID, clientID, category, originType, projectType, asOf)
	if err != nil {
		return nil, fmt.Errorf("find pricing rules: %w", err)
	}
	var best *types.PricingRule
	for _, rule := range candidates {
		if best == nil {
			best = rule
			continue
		}
		if rule.Specificity() > best.Specificity() {
			best = rule
			continue
		}
		if rule.Specificity() == best.Specificity() && rule.ValidFrom.After(best.ValidFrom) {
			best = rule
		}
	}
	return best, nil
}
