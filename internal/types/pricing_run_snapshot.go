package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PricingRunSnapshot is an append-only point-in-time copy of a run and its
// items, taken when a revision is requested. Used for diffing and audit.
type PricingRunSnapshot struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	RunID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"run_id"`
	LineageID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"lineage_id"`
	VersionNumber int            `gorm:"column:version_number;not null" json:"version_number"`
	Reason        string         `gorm:"column:reason" json:"reason"`
	RunData       datatypes.JSON `gorm:"type:jsonb;column:run_data;not null" json:"run_data"`
	ItemData      datatypes.JSON `gorm:"type:jsonb;column:item_data;not null" json:"item_data"`
	CreatedBy     string         `gorm:"column:created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;index" json:"created_at"`
}

func (PricingRunSnapshot) TableName() string { return "pricing_run_snapshot" }
