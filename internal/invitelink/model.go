package invitelink

import (
	"time"
)

// InviteLink is a shareable token granting bounded-use join rights.
// Revocation is irreversible; expiry and use-count both gate redemption.
type InviteLink struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	IntentID  uint       `gorm:"not null;index" json:"intent_id"`
	Token     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	CreatedBy uint       `gorm:"not null" json:"created_by"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	MaxUses   int        `gorm:"default:0" json:"max_uses"` // 0 means unbounded
	UsedCount int        `gorm:"default:0" json:"used_count"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (InviteLink) TableName() string {
	return "invite_links"
}

func (l *InviteLink) IsRevoked() bool {
	return l.RevokedAt != nil
}

func (l *InviteLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

func (l *InviteLink) IsExhausted() bool {
	return l.MaxUses > 0 && l.UsedCount >= l.MaxUses
}

type CreateInviteLinkRequest struct {
	ExpiresInHours int `json:"expires_in_hours,omitempty"`
	MaxUses        int `json:"max_uses,omitempty"`
}
