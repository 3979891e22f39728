package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LogisticsParam parameterizes freight/insurance/handling/local-charge
// computation for one origin country (optionally narrowed by category).
type LogisticsParam struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OriginCountry     string          `gorm:"column:origin_country;not null;index" json:"origin_country"`
	Category          string          `gorm:"column:category;index" json:"category,omitempty"`
	FreightPerKg      decimal.Decimal `gorm:"type:numeric;not null" json:"freight_per_kg"`
	FreightValuePct   decimal.Decimal `gorm:"type:numeric;not null" json:"freight_value_pct"`
	InsurancePct      decimal.Decimal `gorm:"type:numeric;not null" json:"insurance_pct"`
	HandlingPerUnit   decimal.Decimal `gorm:"type:numeric;not null" json:"handling_per_unit"`
	FixedLocalCharges decimal.Decimal `gorm:"type:numeric;not null" json:"fixed_local_charges"`
	CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (LogisticsParam) TableName() string { return "logistics_param" }
