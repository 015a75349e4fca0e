package membership

import (
	"time"
)

// Membership statuses
const (
	StatusJoined   = "JOINED"
	StatusPending  = "PENDING"
	StatusInvited  = "INVITED"
	StatusRejected = "REJECTED"
	StatusBanned   = "BANNED"
	StatusLeft     = "LEFT"
	StatusKicked   = "KICKED"
)

// Membership roles
const (
	RoleOwner     = "OWNER"
	RoleModerator = "MODERATOR"
	RoleMember    = "MEMBER"
)

// Member is the join record between a user and an intent, composite-keyed by
// (intent_id, user_id). Check-in state lives here as well.
type Member struct {
	IntentID uint   `gorm:"primaryKey;autoIncrement:false" json:"intent_id"`
	UserID   uint   `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Status   string `gorm:"type:varchar(20);not null;index" json:"status"`
	Role     string `gorm:"type:varchar(20);not null;default:MEMBER" json:"role"`

	JoinedAt *time.Time `json:"joined_at,omitempty"`
	LeftAt   *time.Time `json:"left_at,omitempty"`

	IsCheckedIn   bool       `gorm:"default:false" json:"is_checked_in"`
	CheckedInAt   *time.Time `json:"checked_in_at,omitempty"`
	CheckInMethod string     `gorm:"type:varchar(30)" json:"check_in_method,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string {
	return "members"
}

// IsTerminal reports whether the status admits no further transitions.
// Repeating the terminal action is an idempotent no-op, not an error.
func IsTerminal(status string) bool {
	return status == StatusBanned || status == StatusKicked
}

// validTransitions is the forward-only status transition table. A missing row
// (empty from-status) covers first-time creation.
var validTransitions = map[string][]string{
	"":             {StatusJoined, StatusPending, StatusInvited},
	StatusPending:  {StatusJoined, StatusRejected, StatusKicked, StatusBanned},
	StatusInvited:  {StatusJoined, StatusRejected, StatusBanned},
	StatusJoined:   {StatusLeft, StatusKicked, StatusBanned},
	StatusLeft:     {StatusJoined, StatusPending, StatusBanned},
	StatusRejected: {StatusPending, StatusBanned}, // never REJECTED -> JOINED directly
	StatusBanned:   {},
	StatusKicked:   {},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type MemberResponse struct {
	Member
	FullName string `json:"full_name,omitempty"`
}

type RespondInviteRequest struct {
	Accept bool `json:"accept"`
}
