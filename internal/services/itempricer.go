package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ironquote/ironquote-backend/internal/logger"
	"github.com/ironquote/ironquote-backend/internal/policy"
	"github.com/ironquote/ironquote-backend/internal/types"
)

// PriceItemInput carries everything one line needs to be priced. The
// pricer never reaches back into the request store; the orchestrator
// resolves materials and client context up front.
type PriceItemInput struct {
	Item           *types.QuoteItem
	Material       *types.Material // nil when the code did not resolve
	Client         *types.Client
	Defaults       *types.TenantPricingDefaults
	Policy         policy.Config
	TotalItemCount int
	Destination    string
	AsOf           time.Time
}

// ItemPricerService prices one line item for one origin option, producing
// the full itemized breakdown plus audit metadata. It never mutates its
// inputs; the returned PricingRunItem is unbound (no run id) until the
// orchestrator persists it.
type ItemPricerService interface {
	PriceItem(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, in PriceItemInput) (*types.PricingRunItem, error)
}

type itemPricerService struct {
	db               *gorm.DB
	log              *logger.Logger
	rateService      RateService
	dutyService      DutyService
	logisticsService LogisticsService
}

func NewItemPricerService(
	db *gorm.DB,
	baseLog *logger.Logger,
	rateService RateService,
	dutyService DutyService,
	logisticsService LogisticsService,
) ItemPricerService {
	serviceLog := baseLog.With("service", "ItemPricerService")
	return &itemPricerService{
		db:               db,
		log:              serviceLog,
		rateService:      rateService,
		dutyService:      dutyService,
		logisticsService: logisticsService,
	}
}

func (s *itemPricerService) PriceItem(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, in PriceItemInput) (*types.PricingRunItem, error) {
	item := in.Item
	if item == nil {
		return nil, &ValidationError{Field: "item", Message: "line item is required"}
	}
	if !item.Quantity.IsPositive() {
		return nil, &ValidationError{Field: "quantity", Message: fmt.Sprintf("quantity must be positive, got %s", item.Quantity)}
	}

	var notes []string
	applied := map[string]interface{}{}

	category := ""
	originType := ""
	if in.Material != nil {
		category = in.Material.Category
		originType = in.Material.OriginType
	} else {
		notes = append(notes, fmt.Sprintf("material %q not found in catalog; base cost defaults to zero", item.MaterialCode))
	}

	// 1) Base cost: agreement price beats catalog.
	baseCost := decimal.Zero
	priceSource := types.PriceSourceCatalog
	var agreementID *uuid.UUID
	if in.Material != nil {
		baseCost = in.Material.BaseCost
	} else {
		priceSource = types.PriceSourceDefault
	}
	if in.Client != nil {
		agreement, err := s.rateService.FindAgreement(ctx, tx, tenantID, in.Client.ID, item.MaterialCode, in.AsOf)
		if err != nil {
			return nil, err
		}
		if agreement != nil {
			baseCost = agreement.AgreedPrice
			priceSource = types.PriceSourceAgreement
			agreementID = &agreement.ID
			applied["price_agreement"] = agreement.ID.String()
		}
	}

	// 2) Quantity break.
	qtyAdjPct := policy.QuantityBreakAdjustment(in.Policy, category, item.Quantity)
	qtyAdjCost := policy.ApplyQuantityBreak(baseCost, qtyAdjPct)
	if !qtyAdjPct.IsZero() {
		applied["quantity_break_pct"] = qtyAdjPct.String()
	}

	// 3) Markup/logistics/risk from the best-matching rule, else tenant defaults.
	var clientID *uuid.UUID
	projectType := ""
	clientName := ""
	segment := ""
	region := ""
	industry := ""
	if in.Client != nil {
		clientID = &in.Client.ID
		projectType = in.Client.ProjectType
		clientName = in.Client.Name
		segment = in.Client.Segment
		region = in.Client.Region
		industry = in.Client.Industry
	}
	rule, err := s.rateService.ResolveRule(ctx, tx, tenantID, clientID, category, originType, projectType, in.AsOf)
	if err != nil {
		return nil, err
	}
	markupPct := in.Defaults.DefaultMarkupPct
	logisticsPct := in.Defaults.DefaultLogisticsPct
	riskPct := in.Defaults.DefaultRiskPct
	var ruleID *uuid.UUID
	if rule != nil {
		markupPct = rule.MarkupPct
		logisticsPct = rule.LogisticsPct
		riskPct = rule.RiskPct
		ruleID = &rule.ID
		applied["pricing_rule"] = rule.ID.String()
	} else {
		notes = append(notes, "no pricing rule matched; tenant default percentages applied")
	}

	// 4) Fixed-margin override, then margin-floor clamp. Margin guardrails
	// key off the client segment; a client outside the segment tables gets
	// no floor, only the tenant default percentages.
	marginPolicy, segmentKnown := in.Policy.SegmentMargins[segment]
	var categoryOverride *policy.MarginPolicy
	if override, ok := in.Policy.CategoryMarginOverrides[category]; ok && segmentKnown {
		categoryOverride = &override
	}
	effective := policy.EffectiveMarginPolicy(marginPolicy, categoryOverride)
	markupPct, forced := policy.ApplyFixedMarginOverride(in.Policy, clientName, markupPct, effective.TargetMarginPct)
	if forced {
		applied["fixed_margin_override"] = true
	}
	markupPct, clamped := policy.ClampToMarginFloor(markupPct, effective.MinMarginPct)
	if clamped {
		applied["margin_floor_clamped"] = true
	}

	// 5) Unit price before adjustments.
	upliftPct := markupPct.Add(logisticsPct).Add(riskPct)
	price := qtyAdjCost.Mul(hundred.Add(upliftPct)).Div(hundred)

	// 6) Regional, then industry, each multiplicative on the running price.
	regionalPct := policy.RegionalAdjustmentPct(in.Policy, region)
	price = policy.ApplyAdjustment(price, regionalPct)
	industryPct := policy.IndustryAdjustmentPct(in.Policy, industry)
	price = policy.ApplyAdjustment(price, industryPct)

	// 7) Rounding, recorded for audit.
	class := policy.Classify(category, item.Description)
	preRounding := price
	unitPrice, roundingDelta := policy.RoundPrice(class, price)
	applied["rounding_class"] = class

	// 8) Actual margin and approval flags, base cost against final price.
	actualMargin := policy.ActualMarginPct(baseCost, unitPrice)
	discount := effective.TargetMarginPct.Sub(actualMargin)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	marginBelow, discountAbove := policy.ApprovalFlags(in.Policy, actualMargin, discount)

	extended := unitPrice.Mul(item.Quantity)

	// 9) Advisory duty and logistics-cost components.
	dutyRatePct := decimal.Zero
	dutyAmount := decimal.Zero
	dutySource := ""
	if finding := s.dutyService.FindRateForItem(ctx, tx, tenantID, item.HSCode, category, item.OriginCountry, in.Destination, extended); finding != nil {
		dutyRatePct = finding.DutyRatePct
		dutyAmount = finding.DutyAmount
		dutySource = finding.Source
	} else if item.OriginCountry != "" {
		notes = append(notes, fmt.Sprintf("no duty rate for origin %q; duty recorded as zero", item.OriginCountry))
	}

	var weight *decimal.Decimal
	if in.Material != nil && in.Material.UnitWeightKg.IsPositive() {
		w := in.Material.UnitWeightKg.Mul(item.Quantity)
		weight = &w
	}
	logistics, logisticsNotes, err := s.logisticsService.ComputeItemCosts(ctx, tx, tenantID, LogisticsCostInput{
		OriginCountry:  item.OriginCountry,
		Category:       category,
		Quantity:       item.Quantity,
		UnitPrice:      unitPrice,
		WeightKg:       weight,
		TotalItemCount: in.TotalItemCount,
	})
	if err != nil {
		return nil, err
	}
	notes = append(notes, logisticsNotes...)

	appliedJSON, err := json.Marshal(applied)
	if err != nil {
		return nil, fmt.Errorf("marshal applied conditions: %w", err)
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("marshal notes: %w", err)
	}

	return &types.PricingRunItem{
		ID:          uuid.New(),
		TenantID:    tenantID,
		QuoteItemID: item.ID,
		Position:    item.Position,

		MaterialCode: item.MaterialCode,
		Description:  item.Description,
		Quantity:     item.Quantity,
		Unit:         item.Unit,

		BaseCost:             baseCost,
		QuantityAdjPct:       qtyAdjPct,
		QuantityAdjustedCost: qtyAdjCost,
		MarkupPct:            markupPct,
		LogisticsPct:         logisticsPct,
		RiskPct:              riskPct,
		MarkupAmount:         qtyAdjCost.Mul(markupPct).Div(hundred),
		LogisticsAmount:      qtyAdjCost.Mul(logisticsPct).Div(hundred),
		RiskAmount:           qtyAdjCost.Mul(riskPct).Div(hundred),
		RegionalAdjPct:       regionalPct,
		IndustryAdjPct:       industryPct,
		PreRoundingPrice:     preRounding,
		RoundingDelta:        roundingDelta,
		UnitPrice:            unitPrice,
		ExtendedPrice:        extended,
		ActualMarginPct:      actualMargin,

		TaxExempt:     item.TaxExempt,
		DutyRatePct:   dutyRatePct,
		DutyAmount:    dutyAmount,
		DutySource:    dutySource,
		FreightCost:   logistics.Freight,
		InsuranceCost: logistics.Insurance,
		HandlingCost:  logistics.Handling,
		LocalCharges:  logistics.Local,
		LandedCost:    extended.Add(dutyAmount).Add(logistics.Total),

		PriceSource:            priceSource,
		AgreementID:            agreementID,
		RuleID:                 ruleID,
		MarginBelowThreshold:   marginBelow,
		DiscountAboveThreshold: discountAbove,
		AppliedConditions:      appliedJSON,
		Notes:                  notesJSON,
	}, nil
}
