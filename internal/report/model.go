package report

import "time"

// Reportable entity kinds
const (
	EntityUser    = "USER"
	EntityIntent  = "INTENT"
	EntityComment = "COMMENT"
)

// Report statuses
const (
	StatusOpen      = "OPEN"
	StatusReviewed  = "REVIEWED"
	StatusDismissed = "DISMISSED"
)

type Report struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ReporterID uint       `gorm:"not null;index" json:"reporter_id"`
	EntityType string     `gorm:"type:varchar(20);not null;index" json:"entity_type"`
	EntityID   uint       `gorm:"not null" json:"entity_id"`
	Reason     string     `gorm:"type:text;not null" json:"reason"`
	Status     string     `gorm:"type:varchar(20);not null;default:OPEN;index" json:"status"`
	ReviewedBy *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Report) TableName() string {
	return "reports"
}

func validEntityType(t string) bool {
	return t == EntityUser || t == EntityIntent || t == EntityComment
}

type CreateReportRequest struct {
	EntityType string `json:"entity_type" binding:"required"`
	EntityID   uint   `json:"entity_id" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

type ReviewReportRequest struct {
	Status string `json:"status" binding:"required"` // REVIEWED or DISMISSED
}
