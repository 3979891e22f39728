package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/repos"
	"github.com/ironquote/ironquote-backend/internal/types"
)

var hundred = decimal.NewFromInt(100)

// TaxComputation is the aggregate tax result for one run. PerItem is
// aligned with the input slice; exempt items carry zero.
type TaxComputation struct {
	Subtotal     decimal.Decimal
	TaxAmount    decimal.Decimal
	TotalWithTax decimal.Decimal
	PerItem      []decimal.Decimal
}

type TaxService interface {
	GetActiveRule(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, jurisdiction string, asOf time.Time) (*types.TaxRule, error)
	ComputeForRun(items []*types.PricingRunItem, ratePct decimal.Decimal) TaxComputation
}

type taxService struct {
	db          *gorm.DB
	log         *logger.Logger
	taxRuleRepo repos.TaxRuleRepo
}

func NewTaxService(db *gorm.DB, baseLog *logger.Logger, taxRuleRepo repos.TaxRuleRepo) TaxService {
	serviceLog := baseLog.With("service", "TaxService")
	return &taxService{db: db, log: serviceLog, taxRuleRepo: taxRuleRepo}
}

func (s *taxService) GetActiveRule(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, jurisdiction string, asOf time.Time) (*types.TaxRule, error) {
	rule, err := s.taxRuleRepo.GetActive(ctx, tx, tenantID, jurisdiction, asOf)
	if err != nil {
		return nil, fmt.Errorf("get active tax rule: %w", err)
	}
	return rule, nil
}

// ComputeForRun applies the jurisdiction rate to each non-exempt item's
// extended price. The run total is the sum of per-item amounts, which
// equals subtotal × rate when nothing is exempt.
func (s *taxService) ComputeForRun(items []*types.PricingRunItem, ratePct decimal.Decimal) TaxComputation {
	result := TaxComputation{
		Subtotal:  decimal.Zero,
		TaxAmount: decimal.Zero,
		PerItem:   make([]decimal.Decimal, len(items)),
	}
	for i, item := range items {
		result.Subtotal = result.Subtotal.Add(item.ExtendedPrice)
		perItem := decimal.Zero
		if !item.TaxExempt {
			perItem = item.ExtendedPrice.Mul(ratePct).Div(hundred)
		}
		result.PerItem[i] = perItem
		result.TaxAmount = result.TaxAmount.Add(perItem)
	}
	result.TotalWithTax = result.Subtotal.Add(result.TaxAmount)
	return result
}
