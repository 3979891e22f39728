package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceAgreement is a negotiated per-client, per-material price that
// overrides the catalog base cost while its validity window is open.
type PriceAgreement struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ClientID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	MaterialCode string          `gorm:"column:material_code;not null;index" json:"material_code"`
	AgreedPrice  decimal.Decimal `gorm:"type:numeric;not null" json:"agreed_price"`
	Currency     string          `gorm:"column:currency;not null;default:USD" json:"currency"`
	ValidFrom    time.Time       `gorm:"column:valid_from;not null" json:"valid_from"`
	ValidTo      *time.Time      `gorm:"column:valid_to" json:"valid_to,omitempty"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (PriceAgreement) TableName() string { return "price_agreement" }
