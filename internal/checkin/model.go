package checkin

import (
	"time"
)

// Check-in methods
const (
	MethodManual         = "MANUAL"
	MethodModeratorPanel = "MODERATOR_PANEL"
	MethodEventQr        = "EVENT_QR"
	MethodUserQr         = "USER_QR"
)

// Token scopes
const (
	ScopeEvent    = "EVENT"
	ScopePersonal = "PERSONAL"
)

// Token is a rotating opaque check-in token, bound to an intent (shared event
// QR) or to a (user, intent) pair (personal QR). Rotating replaces the value;
// previously issued QR images simply stop matching.
type Token struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IntentID  uint      `gorm:"not null;index:idx_checkin_scope" json:"intent_id"`
	UserID    *uint     `gorm:"index:idx_checkin_scope" json:"user_id,omitempty"` // nil for event-scoped tokens
	Scope     string    `gorm:"type:varchar(10);not null" json:"scope"`
	Value     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"value"`
	RotatedAt time.Time `json:"rotated_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Token) TableName() string {
	return "checkin_tokens"
}

// Result is what the scanner UI renders. A refused check-in (already checked
// in, banned member) is a soft failure with a human-readable reason, not an
// API error.
type Result struct {
	CheckedIn bool   `json:"checked_in"`
	Reason    string `json:"reason,omitempty"`
	IntentID  uint   `json:"intent_id"`
	UserID    uint   `json:"user_id"`
	Method    string `json:"method,omitempty"`
}

type EventQrRequest struct {
	Token string `json:"token" binding:"required"`
}

type UserQrRequest struct {
	Token string `json:"token" binding:"required"`
}
