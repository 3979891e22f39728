package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Client struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name        string         `gorm:"column:name;not null;index" json:"name"`
	Segment     string         `gorm:"column:segment;index" json:"segment"` // strategic|key|standard|new
	Region      string         `gorm:"column:region" json:"region"`
	Industry    string         `gorm:"column:industry" json:"industry"`
	ProjectType string         `gorm:"column:project_type" json:"project_type"`
	FixedMargin bool           `gorm:"column:fixed_margin;not null;default:false" json:"fixed_margin"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Client) TableName() string { return "client" }
