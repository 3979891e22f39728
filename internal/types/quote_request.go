package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuoteRequest is an RFQ. It is created and mutated by the intake side of
// the system; the pricing core only reads it.
type QuoteRequest struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ClientID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"client_id"`
	Reference string         `gorm:"column:reference" json:"reference"`
	Status    string         `gorm:"column:status;not null;index" json:"status"` // draft|submitted|priced|closed
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuoteRequest) TableName() string { return "quote_request" }

type QuoteItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	RequestID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_id"`
	Position         int             `gorm:"column:position;not null" json:"position"`
	MaterialCode     string          `gorm:"column:material_code;index" json:"material_code"`
	MaterialID       *uuid.UUID      `gorm:"type:uuid;index" json:"material_id,omitempty"`
	Description      string          `gorm:"column:description" json:"description"`
	Quantity         decimal.Decimal `gorm:"type:numeric;not null" json:"quantity"`
	Unit             string          `gorm:"column:unit;not null;default:ea" json:"unit"`
	NeedsReview      bool            `gorm:"column:needs_review;not null;default:false" json:"needs_review"`
	SupplierSelected bool            `gorm:"column:supplier_selected;not null;default:false" json:"supplier_selected"`
	OriginCountry    string          `gorm:"column:origin_country" json:"origin_country"`
	HSCode           string          `gorm:"column:hs_code" json:"hs_code"`
	TaxExempt        bool            `gorm:"column:tax_exempt;not null;default:false" json:"tax_exempt"`
	// DutyAmount is the only field the pricing core writes back to an item.
	DutyAmount *decimal.Decimal `gorm:"type:numeric" json:"duty_amount,omitempty"`
	CreatedAt  time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt   `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuoteItem) TableName() string { return "quote_item" }
