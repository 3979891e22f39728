package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PricingRule carries markup/logistics/risk percentages scoped by any
// combination of client, material category, origin type and project type.
// Empty/nil scope fields mean "any"; the rates service picks the most
// specific matching rule.
type PricingRule struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ClientID     *uuid.UUID      `gorm:"type:uuid;index" json:"client_id,omitempty"`
	Category     string          `gorm:"column:category;index" json:"category,omitempty"`
	OriginType   string          `gorm:"column:origin_type" json:"origin_type,omitempty"`
	ProjectType  string          `gorm:"column:project_type" json:"project_type,omitempty"`
	MarkupPct    decimal.Decimal `gorm:"type:numeric;not null" json:"markup_pct"`
	LogisticsPct decimal.Decimal `gorm:"type:numeric;not null" json:"logistics_pct"`
	RiskPct      decimal.Decimal `gorm:"type:numeric;not null" json:"risk_pct"`
	ValidFrom    time.Time       `gorm:"column:valid_from;not null" json:"valid_from"`
	ValidTo      *time.Time      `gorm:"column:valid_to" json:"valid_to,omitempty"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (PricingRule) TableName() string { return "pricing_rule" }

// Specificity ranks a rule for best-match resolution: each bound scope
// dimension adds weight, client binding dominating category, category
// dominating origin and project type.
func (r *PricingRule) Specificity() int {
	score := 0
	if r.ClientID != nil {
		score += 8
	}
	if r.Category != "" {
		score += 4
	}
	if r.OriginType != "" {
		score += 2
	}
	if r.ProjectType != "" {
		score += 1
	}
	return score
}
