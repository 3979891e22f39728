package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Tenant struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Active    bool           `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Tenant) TableName() string { return "tenant" }

// TenantPricingDefaults is the per-tenant policy configuration the pricing
// core falls back to when no more specific rule matches. Loaded once per
// request and passed explicitly through the pricing call chain.
type TenantPricingDefaults struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID             uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"tenant_id"`
	DefaultMarkupPct     decimal.Decimal `gorm:"type:numeric;not null" json:"default_markup_pct"`
	DefaultLogisticsPct  decimal.Decimal `gorm:"type:numeric;not null" json:"default_logistics_pct"`
	DefaultRiskPct       decimal.Decimal `gorm:"type:numeric;not null" json:"default_risk_pct"`
	TaxJurisdiction      string          `gorm:"column:tax_jurisdiction;not null" json:"tax_jurisdiction"`
	Currency             string          `gorm:"column:currency;not null;default:USD" json:"currency"`
	MarginAlertPct       decimal.Decimal `gorm:"type:numeric;not null" json:"margin_alert_pct"`
	DiscountAlertPct     decimal.Decimal `gorm:"type:numeric;not null" json:"discount_alert_pct"`
	CreatedAt            time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"not null" json:"updated_at"`
}

func (TenantPricingDefaults) TableName() string { return "tenant_pricing_defaults" }
