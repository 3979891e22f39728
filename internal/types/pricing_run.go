package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ApprovalStatusDraft           = "draft"
	ApprovalStatusPendingApproval = "pending_approval"
	ApprovalStatusApproved        = "approved"
	ApprovalStatusRejected        = "rejected"

	OutcomePending   = "pending"
	OutcomeWon       = "won"
	OutcomeLost      = "lost"
	OutcomeCancelled = "cancelled"
)

// PricingRun is one complete, versioned pricing computation over a
// QuoteRequest. Runs are never deleted; older versions are demoted via
// IsCurrent=false and SupersededBy. At most one run per lineage may be
// current at any time (enforced with a partial unique index on postgres
// and a row lock during creation).
type PricingRun struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	RequestID     uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`
	LineageID     uuid.UUID `gorm:"type:uuid;not null;index:idx_pricing_run_lineage_version,unique" json:"lineage_id"`
	VersionNumber int       `gorm:"column:version_number;not null;index:idx_pricing_run_lineage_version,unique" json:"version_number"`
	IsCurrent     bool      `gorm:"column:is_current;not null;default:false;index" json:"is_current"`

	ApprovalStatus string `gorm:"column:approval_status;not null;index" json:"approval_status"` // draft|pending_approval|approved|rejected

	IsLocked bool       `gorm:"column:is_locked;not null;default:false" json:"is_locked"`
	LockedAt *time.Time `gorm:"column:locked_at" json:"locked_at,omitempty"`
	LockedBy string     `gorm:"column:locked_by" json:"locked_by,omitempty"`

	SupersededBy     *uuid.UUID `gorm:"type:uuid" json:"superseded_by,omitempty"`
	SupersededReason string     `gorm:"column:superseded_reason" json:"superseded_reason,omitempty"`

	Subtotal           decimal.Decimal `gorm:"type:numeric;not null" json:"subtotal"`
	TotalTax           decimal.Decimal `gorm:"type:numeric;not null" json:"total_tax"`
	TotalDuty          decimal.Decimal `gorm:"type:numeric;not null" json:"total_duty"`
	TotalLogisticsCost decimal.Decimal `gorm:"type:numeric;not null" json:"total_logistics_cost"`
	TotalLandedCost    decimal.Decimal `gorm:"type:numeric;not null" json:"total_landed_cost"`

	Outcome       string     `gorm:"column:outcome;not null;default:pending" json:"outcome"` // pending|won|lost|cancelled
	OutcomeDate   *time.Time `gorm:"column:outcome_date" json:"outcome_date,omitempty"`
	OutcomeReason string     `gorm:"column:outcome_reason" json:"outcome_reason,omitempty"`

	CreatedBy string         `gorm:"column:created_by" json:"created_by,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PricingRun) TableName() string { return "pricing_run" }
