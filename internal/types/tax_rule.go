package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TaxRule struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Jurisdiction string          `gorm:"column:jurisdiction;not null;index" json:"jurisdiction"`
	RatePct      decimal.Decimal `gorm:"type:numeric;not null" json:"rate_pct"`
	TaxType      string          `gorm:"column:tax_type;not null;default:vat" json:"tax_type"` // vat|gst|sales
	ValidFrom    time.Time       `gorm:"column:valid_from;not null" json:"valid_from"`
	ValidTo      *time.Time      `gorm:"column:valid_to" json:"valid_to,omitempty"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (TaxRule) TableName() string { return "tax_rule" }
