package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	PriceSourceAgreement = "agreement"
	PriceSourceCatalog   = "catalog"
	PriceSourceDefault   = "default"
)

// PricingRunItem is one priced line of a run. It is written exactly once,
// inside the run-creation transaction, and never mutated afterwards.
type PricingRunItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	RunID       uuid.UUID `gorm:"type:uuid;not null;index" json:"run_id"`
	QuoteItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"quote_item_id"`
	Position    int       `gorm:"column:position;not null" json:"position"`

	MaterialCode string          `gorm:"column:material_code" json:"material_code"`
	Description  string          `gorm:"column:description" json:"description"`
	Quantity     decimal.Decimal `gorm:"type:numeric;not null" json:"quantity"`
	Unit         string          `gorm:"column:unit" json:"unit"`

	BaseCost             decimal.Decimal `gorm:"type:numeric;not null" json:"base_cost"`
	QuantityAdjPct       decimal.Decimal `gorm:"type:numeric;not null" json:"quantity_adj_pct"`
	QuantityAdjustedCost decimal.Decimal `gorm:"type:numeric;not null;column:quantity_adjusted_cost" json:"quantity_adjusted_cost"`
	MarkupPct            decimal.Decimal `gorm:"type:numeric;not null" json:"markup_pct"`
	LogisticsPct         decimal.Decimal `gorm:"type:numeric;not null" json:"logistics_pct"`
	RiskPct              decimal.Decimal `gorm:"type:numeric;not null" json:"risk_pct"`
	MarkupAmount         decimal.Decimal `gorm:"type:numeric;not null" json:"markup_amount"`
	LogisticsAmount      decimal.Decimal `gorm:"type:numeric;not null" json:"logistics_amount"`
	RiskAmount           decimal.Decimal `gorm:"type:numeric;not null" json:"risk_amount"`
	RegionalAdjPct       decimal.Decimal `gorm:"type:numeric;not null" json:"regional_adj_pct"`
	IndustryAdjPct       decimal.Decimal `gorm:"type:numeric;not null" json:"industry_adj_pct"`
	PreRoundingPrice     decimal.Decimal `gorm:"type:numeric;not null" json:"pre_rounding_price"`
	RoundingDelta        decimal.Decimal `gorm:"type:numeric;not null" json:"rounding_delta"`
	UnitPrice            decimal.Decimal `gorm:"type:numeric;not null" json:"unit_price"`
	ExtendedPrice        decimal.Decimal `gorm:"type:numeric;not null" json:"extended_price"`
	ActualMarginPct      decimal.Decimal `gorm:"type:numeric;not null" json:"actual_margin_pct"`

	TaxExempt     bool            `gorm:"column:tax_exempt;not null;default:false" json:"tax_exempt"`
	TaxAmount     decimal.Decimal `gorm:"type:numeric;not null" json:"tax_amount"`
	DutyRatePct   decimal.Decimal `gorm:"type:numeric;not null" json:"duty_rate_pct"`
	DutyAmount    decimal.Decimal `gorm:"type:numeric;not null" json:"duty_amount"`
	DutySource    string          `gorm:"column:duty_source" json:"duty_source,omitempty"`
	FreightCost   decimal.Decimal `gorm:"type:numeric;not null" json:"freight_cost"`
	InsuranceCost decimal.Decimal `gorm:"type:numeric;not null" json:"insurance_cost"`
	HandlingCost  decimal.Decimal `gorm:"type:numeric;not null" json:"handling_cost"`
	LocalCharges  decimal.Decimal `gorm:"type:numeric;not null" json:"local_charges"`
	LandedCost    decimal.Decimal `gorm:"type:numeric;not null" json:"landed_cost"`

	// Audit sub-record: which rule/agreement fired and what flags were raised.
	PriceSource            string         `gorm:"column:price_source;not null" json:"price_source"` // agreement|catalog|default
	AgreementID            *uuid.UUID     `gorm:"type:uuid" json:"agreement_id,omitempty"`
	RuleID                 *uuid.UUID     `gorm:"type:uuid" json:"rule_id,omitempty"`
	MarginBelowThreshold   bool           `gorm:"column:margin_below_threshold;not null;default:false" json:"margin_below_threshold"`
	DiscountAboveThreshold bool           `gorm:"column:discount_above_threshold;not null;default:false" json:"discount_above_threshold"`
	AppliedConditions      datatypes.JSON `gorm:"type:jsonb;column:applied_conditions" json:"applied_conditions,omitempty"`
	Notes                  datatypes.JSON `gorm:"type:jsonb;column:notes" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (PricingRunItem) TableName() string { return "pricing_run_item" }
