package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DutyRate is an advisory customs-duty rate keyed by HS-code prefix or
// material category plus origin/destination. Misses never block pricing.
type DutyRate struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	HSCodePrefix string          `gorm:"column:hs_code_prefix;index" json:"hs_code_prefix,omitempty"`
	Category     string          `gorm:"column:category;index" json:"category,omitempty"`
	Origin       string          `gorm:"column:origin;not null" json:"origin"`
	Destination  string          `gorm:"column:destination;not null" json:"destination"`
	DutyPct      decimal.Decimal `gorm:"type:numeric;not null" json:"duty_pct"`
	Source       string          `gorm:"column:source" json:"source,omitempty"` // tariff_schedule|trade_agreement|manual
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (DutyRate) TableName() string { return "duty_rate" }
