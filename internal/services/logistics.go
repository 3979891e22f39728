package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/repos"
)

// Fallback parameters used when no LogisticsParam row covers the origin.
var (
	fallbackFreightValuePct = decimal.RequireFromString("3")
	fallbackInsurancePct    = decimal.RequireFromString("0.5")
	fallbackHandlingPerUnit = decimal.RequireFromString("1")
)

type LogisticsCostInput struct {
	OriginCountry string
	Category      string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	WeightKg      *decimal.Decimal
	VolumeM3      *decimal.Decimal
	// TotalItemCount prorates the origin's fixed local charges across the
	// run's items.
	TotalItemCount int
}

type LogisticsCostBreakdown struct {
	Freight   decimal.Decimal
	Insurance decimal.Decimal
	Handling  decimal.Decimal
	Local     decimal.Decimal
	Total     decimal.Decimal
}

type LogisticsService interface {
	ComputeItemCosts(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, in LogisticsCostInput) (LogisticsCostBreakdown, []string, error)
}

type logisticsService struct {
	db        *gorm.DB
	log       *logger.Logger
	paramRepo repos.LogisticsParamRepo
}

func NewLogisticsService(db *gorm.DB, baseLog *logger.Logger, paramRepo repos.LogisticsParamRepo) LogisticsService {
	serviceLog := baseLog.With("service", "LogisticsService")
	return &logisticsService{db: db, log: serviceLog, paramRepo: paramRepo}
}

// ComputeItemCosts derives freight/insurance/handling/local charges for one
// line. Freight is weight-based when a weight hint is available, otherwise
// a percentage of line value. Missing parameters degrade to documented
// fallbacks with a note; they never fail the pricing.
func (s *logisticsService) ComputeItemCosts(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, in LogisticsCostInput) (LogisticsCostBreakdown, []string, error) {
	var notes []string

	param, err := s.paramRepo.Find(ctx, tx, tenantID, in.OriginCountry, in.Category)
	if err != nil {
		return LogisticsCostBreakdown{}, nil, fmt.Errorf("find logistics params: %w", err)
	}

	freightPerKg := decimal.Zero
	freightValuePct := fallbackFreightValuePct
	insurancePct := fallbackInsurancePct
	handlingPerUnit := fallbackHandlingPerUnit
	fixedLocal := decimal.Zero
	if param != nil {
		freightPerKg = param.FreightPerKg
		freightValuePct = param.FreightValuePct
		insurancePct = param.InsurancePct
		handlingPerUnit = param.HandlingPerUnit
		fixedLocal = param.FixedLocalCharges
	} else {
		notes = append(notes, fmt.Sprintf("no logistics parameters for origin %q; using fallback rates", in.OriginCountry))
	}

	lineValue := in.UnitPrice.Mul(in.Quantity)

	var freight decimal.Decimal
	if in.WeightKg != nil && in.WeightKg.IsPositive() && freightPerKg.IsPositive() {
		freight = in.WeightKg.Mul(freightPerKg)
	} else {
		freight = lineValue.Mul(freightValuePct).Div(hundred)
		if in.WeightKg == nil {
			notes = append(notes, "no weight hint; freight computed as percentage of line value")
		}
	}

	insurance := lineValue.Mul(insurancePct).Div(hundred)
	handling := handlingPerUnit.Mul(in.Quantity)

	local := decimal.Zero
	if in.TotalItemCount > 0 && fixedLocal.IsPositive() {
		local = fixedLocal.Div(decimal.NewFromInt(int64(in.TotalItemCount)))
	}

	breakdown := LogisticsCostBreakdown{
		Freight:   freight,
		Insurance: insurance,
		Handling:  handling,
		Local:     local,
	}
	breakdown.Total = freight.Add(insurance).Add(handling).Add(local)
	return breakdown, notes, nil
}
