package intent

import (
	"time"

	"gorm.io/gorm"
)

// Visibility enums
const (
	VisibilityPublic   = "PUBLIC"
	VisibilityPrivate  = "PRIVATE"
	VisibilityUnlisted = "UNLISTED"
)

// Join mode enums
const (
	JoinModeOpen       = "OPEN"
	JoinModeApproval   = "APPROVAL"
	JoinModeInviteOnly = "INVITE_ONLY"
)

// Intent is a schedulable meetup with owner, members, and lifecycle state
type Intent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Location    string         `gorm:"type:text" json:"location"`
	StartAt     time.Time      `gorm:"not null;index" json:"start_at"`
	EndAt       *time.Time     `json:"end_at,omitempty"`
	Visibility  string         `gorm:"type:varchar(20);not null;default:PUBLIC" json:"visibility"`
	JoinMode    string         `gorm:"type:varchar(20);not null;default:OPEN" json:"join_mode"`
	MinCapacity int            `gorm:"default:0" json:"min_capacity"`
	MaxCapacity int            `gorm:"default:0" json:"max_capacity"` // 0 means unbounded
	CanceledAt  *time.Time     `json:"canceled_at,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	MemberCount int `gorm:"-" json:"member_count"`
}

func (Intent) TableName() string {
	return "intents"
}

func (i *Intent) IsCanceled() bool {
	return i.CanceledAt != nil
}

// HasCapacity reports whether one more member fits under MaxCapacity.
func (i *Intent) HasCapacity(joined int) bool {
	return i.MaxCapacity == 0 || joined < i.MaxCapacity
}

type CreateIntentRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartAt     string `json:"start_at" binding:"required"` // RFC3339
	EndAt       string `json:"end_at,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
	JoinMode    string `json:"join_mode,omitempty"`
	MinCapacity int    `json:"min_capacity,omitempty"`
	MaxCapacity int    `json:"max_capacity,omitempty"`
}

type UpdateIntentRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	StartAt     *string `json:"start_at,omitempty"`
	EndAt       *string `json:"end_at,omitempty"`
	Visibility  *string `json:"visibility,omitempty"`
	JoinMode    *string `json:"join_mode,omitempty"`
	MinCapacity *int    `json:"min_capacity,omitempty"`
	MaxCapacity *int    `json:"max_capacity,omitempty"`
}

func validVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityPrivate || v == VisibilityUnlisted
}

func validJoinMode(m string) bool {
	return m == JoinModeOpen || m == JoinModeApproval || m == JoinModeInviteOnly
}
