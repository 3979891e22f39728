package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Material struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Code         string          `gorm:"column:code;not null;index" json:"code"`
	Description  string          `gorm:"column:description" json:"description"`
	Category     string          `gorm:"column:category;not null;index" json:"category"` // carbon_steel|stainless_steel|alloy|fabrication|...
	OriginType   string          `gorm:"column:origin_type" json:"origin_type"`          // domestic|imported
	BaseCost     decimal.Decimal `gorm:"type:numeric;not null" json:"base_cost"`
	Currency     string          `gorm:"column:currency;not null;default:USD" json:"currency"`
	UnitWeightKg decimal.Decimal `gorm:"type:numeric" json:"unit_weight_kg"`
	UnitVolumeM3 decimal.Decimal `gorm:"type:numeric" json:"unit_volume_m3"`
	HSCode       string          `gorm:"column:hs_code" json:"hs_code"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (Material) TableName() string { return "material" }
