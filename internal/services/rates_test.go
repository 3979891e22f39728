package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ironquote/ironquote-backend/internal/types"
)

type ruleRepoStub struct {
	candidates []*types.PricingRule
}

func (s *ruleRepoStub) FindCandidates(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, clientID *uuid.UUID, category, originType, projectType string, asOf time.Time) ([]*types.PricingRule, error) {
	return s.candidates, nil
}

type materialRepoStub struct{}

func (s *materialRepoStub) GetByCode(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, code string) (*types.Material, error) {
	return nil, nil
}

func (s *materialRepoStub) GetByCodes(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, codes []string) (map[string]*types.Material, error) {
	return map[string]*types.Material{}, nil
}

type agreementRepoStub struct{}

func (s *agreementRepoStub) FindActive(ctx context.Context, tx *gorm.DB, tenantID, clientID uuid.UUID, materialCode string, asOf time.Time) (*types.PriceAgreement, error) {
	return nil, nil
}

func newTestRates(t *testing.T, rules *ruleRepoStub) RateService {
	t.Helper()
	return NewRateService(nil, testLogger(t), nil, &materialRepoStub{}, &agreementRepoStub{}, rules)
}

func ruleScoped(clientID *uuid.UUID, category, originType string, validFrom time.Time) *types.PricingRule {
	return &types.PricingRule{
		ID:         uuid.New(),
		ClientID:   clientID,
		Category:   category,
		OriginType: originType,
		ValidFrom:  validFrom,
	}
}

func TestResolveRulePicksMostSpecific(t *testing.T) {
	clientID := uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tenantWide := ruleScoped(nil, "", "", base)
	categoryOnly := ruleScoped(nil, "carbon_steel", "", base)
	categoryOrigin := ruleScoped(nil, "carbon_steel", "import", base)
	clientCategory := ruleScoped(&clientID, "carbon_steel", "", base)

	svc := newTestRates(t, &ruleRepoStub{candidates: []*types.PricingRule{
		tenantWide, categoryOnly, clientCategory, categoryOrigin,
	}})

	best, err := svc.ResolveRule(context.Background(), nil, uuid.New(), &clientID, "carbon_steel", "import", "", base)
	if err != nil {
		t.Fatalf("ResolveRule: %v", err)
	}
	if best == nil || best.ID != clientCategory.ID {
		t.Fatalf("expected client+category rule to win, got %+v", best)
	}
}

func TestResolveRuleLatestValidFromBreaksTies(t *testing.T) {
	older := ruleScoped(nil, "carbon_steel", "", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	newer := ruleScoped(nil, "carbon_steel", "", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	svc := newTestRates(t, &ruleRepoStub{candidates: []*types.PricingRule{older, newer}})

	best, err := svc.ResolveRule(context.Background(), nil, uuid.New(), nil, "carbon_steel", "", "", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveRule: %v", err)
	}
	if best == nil || best.ID != newer.ID {
		t.Fatalf("expected the later valid_from rule to win the tie, got %+v", best)
	}
}

func TestResolveRuleAbsenceIsNotAnError(t *testing.T) {
	svc := newTestRates(t, &ruleRepoStub{})

	best, err := svc.ResolveRule(context.Background(), nil, uuid.New(), nil, "alloy", "", "", time.Now())
	if err != nil {
		t.Fatalf("ResolveRule: %v", err)
	}
	if best != nil {
		t.Fatalf("expected nil rule when nothing matches, got %+v", best)
	}
}
